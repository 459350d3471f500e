package models

import (
	"strconv"
	"time"
)

// EntityType identifies which table a sync queue item refers to.
type EntityType string

// Syncable entity types.
const (
	EntityTimeRecord   EntityType = "time_record"
	EntityLocation     EntityType = "location_record"
	EntityPhoto        EntityType = "photo"
	EntityReport       EntityType = "report"
	EntityVerification EntityType = "checkpoint_verification"
)

// SyncableEntityTypes returns all entity types the sync engine drains,
// in default drain order.
func SyncableEntityTypes() []EntityType {
	return []EntityType{
		EntityTimeRecord,
		EntityVerification,
		EntityPhoto,
		EntityReport,
		EntityLocation,
	}
}

// IsValid reports whether the entity type is a known value.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityTimeRecord, EntityLocation, EntityPhoto, EntityReport, EntityVerification:
		return true
	}
	return false
}

// Default upload priorities per entity type. Higher drains first.
const (
	PriorityTimeRecord   = 100
	PriorityVerification = 90
	PriorityPhoto        = 80
	PriorityReport       = 70
	PriorityLocation     = 50
)

// DefaultPriority returns the upload priority for an entity type.
func DefaultPriority(entityType EntityType) int {
	switch entityType {
	case EntityTimeRecord:
		return PriorityTimeRecord
	case EntityVerification:
		return PriorityVerification
	case EntityPhoto:
		return PriorityPhoto
	case EntityReport:
		return PriorityReport
	default:
		return PriorityLocation
	}
}

// FormatEntityID renders a numeric primary key the way the sync queue
// stores entity IDs. Photo IDs are already strings and go in as-is.
func FormatEntityID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// SyncQueueItem is one row of the durable outbox. A row is inserted in
// the same transaction as the local mutation it mirrors, and deleted
// once the remote confirms the upload.
type SyncQueueItem struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EntityType EntityType `gorm:"size:40;uniqueIndex:idx_sync_queue_entity,priority:1" json:"entity_type"`
	EntityID   string     `gorm:"size:36;uniqueIndex:idx_sync_queue_entity,priority:2" json:"entity_id"`

	Priority     int        `gorm:"default:0;index:idx_sync_queue_order,priority:1" json:"priority"`
	RetryCount   int        `gorm:"default:0" json:"retry_count"`
	LastAttempt  *time.Time `gorm:"index:idx_sync_queue_order,priority:2" json:"last_attempt,omitempty"`
	ErrorMessage string     `gorm:"size:1000" json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SyncQueueItem) TableName() string {
	return "sync_queue"
}
