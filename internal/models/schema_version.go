package models

import (
	"time"
)

// SchemaVersion records one applied schema migration. The highest
// version present is the database's current schema version.
type SchemaVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Version   float64   `gorm:"uniqueIndex" json:"version"`
	Name      string    `gorm:"size:255" json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName specifies the table name for GORM.
func (SchemaVersion) TableName() string {
	return "schema_versions"
}
