package models

import (
	"time"
)

// Photo is the metadata row for a captured photo. The binary blob lives
// on disk at FilePath; the row is inserted after the file write succeeds,
// and the file is removed again if the insert fails so no orphaned blobs
// are left behind.
type Photo struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	UserID    uint      `gorm:"index" json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	FilePath  string    `gorm:"size:500" json:"file_path"`

	IsSynced     bool   `gorm:"default:false;index" json:"is_synced"`
	SyncProgress int    `gorm:"default:0" json:"sync_progress"`
	RemoteID     string `gorm:"size:64" json:"remote_id,omitempty"`
	ClientRef    string `gorm:"size:36;index" json:"client_ref"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
