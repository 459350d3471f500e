package models

import (
	"time"
)

// LocationRecord is a periodic position ping captured while a user is
// on shift. Records are batch-created; invalid coordinates are rejected
// per item without failing the whole batch.
type LocationRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`

	IsSynced  bool   `gorm:"default:false;index" json:"is_synced"`
	RemoteID  string `gorm:"size:64" json:"remote_id,omitempty"`
	ClientRef string `gorm:"size:36;index" json:"client_ref"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (LocationRecord) TableName() string {
	return "location_records"
}

// ValidCoordinates reports whether a latitude/longitude pair is inside
// the WGS84 range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
