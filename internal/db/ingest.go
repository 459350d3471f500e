package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Client-ref lookups back idempotent ingestion: a device retrying an
// upload resends the same client_ref, and the server answers with the
// row it already has instead of inserting a duplicate.

// GetTimeRecordByClientRef returns the time record carrying the given
// client reference, or nil when none exists.
func (db *DB) GetTimeRecordByClientRef(ref string) (*models.TimeRecord, error) {
	var rec models.TimeRecord
	err := db.First(&rec, "client_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get time record by client ref", err)
	}
	return &rec, nil
}

// GetLocationRecordByClientRef returns the location record carrying the
// given client reference, or nil when none exists.
func (db *DB) GetLocationRecordByClientRef(ref string) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := db.First(&rec, "client_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get location record by client ref", err)
	}
	return &rec, nil
}

// GetPhotoByClientRef returns the photo carrying the given client
// reference, or nil when none exists.
func (db *DB) GetPhotoByClientRef(ref string) (*models.Photo, error) {
	var photo models.Photo
	err := db.First(&photo, "client_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get photo by client ref", err)
	}
	return &photo, nil
}

// GetReportByClientRef returns the report carrying the given client
// reference, or nil when none exists.
func (db *DB) GetReportByClientRef(ref string) (*models.Report, error) {
	var report models.Report
	err := db.First(&report, "client_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get report by client ref", err)
	}
	return &report, nil
}

// GetVerificationByClientRef returns the checkpoint verification
// carrying the given client reference, or nil when none exists.
func (db *DB) GetVerificationByClientRef(ref string) (*models.CheckpointVerification, error) {
	var ver models.CheckpointVerification
	err := db.First(&ver, "client_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get verification by client ref", err)
	}
	return &ver, nil
}
