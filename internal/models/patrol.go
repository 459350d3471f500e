package models

import (
	"time"
)

// PatrolLocation is a site that contains checkpoints. Read-mostly
// reference data pulled from the backend.
type PatrolLocation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LastUpdated time.Time `json:"last_updated"`
	RemoteID    string    `gorm:"size:64" json:"remote_id,omitempty"`

	Checkpoints []Checkpoint `gorm:"foreignKey:LocationID;constraint:OnDelete:RESTRICT" json:"checkpoints,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PatrolLocation) TableName() string {
	return "patrol_locations"
}

// Checkpoint is a physical point within a patrol location that requires
// periodic verification.
type Checkpoint struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	LocationID uint    `gorm:"index" json:"location_id"`
	Name       string  `gorm:"size:255" json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RemoteID   string  `gorm:"size:64" json:"remote_id,omitempty"`

	Location *PatrolLocation `gorm:"foreignKey:LocationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Checkpoint) TableName() string {
	return "checkpoints"
}

// PatrolState is the aggregate completion state of a patrol for one user.
type PatrolState string

// Patrol states.
const (
	PatrolNotStarted PatrolState = "not_started"
	PatrolInProgress PatrolState = "in_progress"
	PatrolCompleted  PatrolState = "completed"
)

// PatrolStatus summarises checkpoint completion for a (user, location) pair.
type PatrolStatus struct {
	LocationID          uint        `json:"location_id"`
	TotalCheckpoints    int         `json:"total_checkpoints"`
	VerifiedCheckpoints int         `json:"verified_checkpoints"`
	State               PatrolState `json:"state"`
}
