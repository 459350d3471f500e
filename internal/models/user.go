// Package models defines the core data structures for fieldsync.
package models

import (
	"time"
)

// User represents a field worker identified by phone number.
// Created on first successful verification; immutable afterwards
// except for the IsActive flag.
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PhoneNumber string `gorm:"size:20;uniqueIndex" json:"phone_number"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	RemoteID string `gorm:"size:64" json:"remote_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
