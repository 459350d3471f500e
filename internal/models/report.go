package models

import (
	"strings"
	"time"
)

// MaxReportTextLen is the maximum accepted report body length.
const MaxReportTextLen = 500

// Report is a free-text activity report filed by a user. Mutable by its
// owner only.
type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;index:idx_reports_user_ts,priority:1" json:"user_id"`
	Text      string    `gorm:"size:500" json:"text"`
	Timestamp time.Time `gorm:"index:idx_reports_user_ts,priority:2" json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	IsSynced  bool   `gorm:"default:false;index" json:"is_synced"`
	RemoteID  string `gorm:"size:64" json:"remote_id,omitempty"`
	ClientRef string `gorm:"size:36;index" json:"client_ref"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Report) TableName() string {
	return "activity_reports"
}

// ValidReportText reports whether a report body passes API validation:
// non-empty after trimming and at most MaxReportTextLen characters.
func ValidReportText(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && len([]rune(text)) <= MaxReportTextLen
}
