package models

import (
	"time"
)

// CheckpointVerification records that a user verified a checkpoint.
// At most one verification exists per (UserID, CheckpointID); verifying
// twice is an idempotent no-op.
type CheckpointVerification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;uniqueIndex:idx_verifications_user_checkpoint,priority:1" json:"user_id"`
	CheckpointID uint      `gorm:"index;uniqueIndex:idx_verifications_user_checkpoint,priority:2" json:"checkpoint_id"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`

	IsSynced  bool   `gorm:"default:false;index" json:"is_synced"`
	RemoteID  string `gorm:"size:64" json:"remote_id,omitempty"`
	ClientRef string `gorm:"size:36;index" json:"client_ref"`

	Checkpoint *Checkpoint `gorm:"foreignKey:CheckpointID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CheckpointVerification) TableName() string {
	return "checkpoint_verifications"
}
