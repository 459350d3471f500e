package models

import (
	"time"
)

// ClockType distinguishes clock-in from clock-out records.
type ClockType string

// Clock types.
const (
	ClockIn  ClockType = "clock_in"
	ClockOut ClockType = "clock_out"
)

// ValidClockTypes returns all valid clock types.
func ValidClockTypes() []ClockType {
	return []ClockType{ClockIn, ClockOut}
}

// IsValid reports whether the clock type is a known value.
func (c ClockType) IsValid() bool {
	return c == ClockIn || c == ClockOut
}

// TimeRecord is a single clock-in or clock-out event.
// For a given user, accepted records alternate between ClockIn and
// ClockOut; the timeclock service enforces the alternation.
type TimeRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;index:idx_time_records_user_ts,priority:1" json:"user_id"`
	Type      ClockType `gorm:"size:20" json:"type"`
	Timestamp time.Time `gorm:"index:idx_time_records_user_ts,priority:2" json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	// Sync bookkeeping, written only by the sync engine.
	IsSynced  bool   `gorm:"default:false;index" json:"is_synced"`
	RemoteID  string `gorm:"size:64" json:"remote_id,omitempty"`
	ClientRef string `gorm:"size:36;index" json:"client_ref"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (TimeRecord) TableName() string {
	return "time_records"
}
