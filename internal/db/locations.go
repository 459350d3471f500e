package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// SaveLocationRecord inserts the ping when its ID is zero, updates it
// otherwise.
func (db *DB) SaveLocationRecord(rec *models.LocationRecord) error {
	if err := db.Save(rec).Error; err != nil {
		return errs.Storage("save location record", err)
	}
	return nil
}

// GetLocationRecord retrieves a ping by ID. Returns nil when not found.
func (db *DB) GetLocationRecord(id uint) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := db.First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get location record", err)
	}
	return &rec, nil
}

// GetPendingLocationRecords returns all pings not yet synced, oldest
// first, capped at limit (0 = no cap).
func (db *DB) GetPendingLocationRecords(limit int) ([]models.LocationRecord, error) {
	q := db.Where("is_synced = ?", false).Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []models.LocationRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, errs.Storage("get pending location records", err)
	}
	return recs, nil
}

// GetCurrentLocation returns a user's most recent ping, or nil.
func (db *DB) GetCurrentLocation(userID uint) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get current location", err)
	}
	return &rec, nil
}

// GetLocationHistory returns a user's pings between from and to,
// oldest first.
func (db *DB) GetLocationHistory(userID uint, from, to time.Time) ([]models.LocationRecord, error) {
	var recs []models.LocationRecord
	err := db.Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errs.Storage("get location history", err)
	}
	return recs, nil
}

// UpdateLocationSyncStatus sets the sync bookkeeping columns for one
// ping and returns the number of rows affected.
func (db *DB) UpdateLocationSyncStatus(id uint, synced bool, remoteID string) (int64, error) {
	res := db.Model(&models.LocationRecord{}).Where("id = ?", id).
		Updates(map[string]any{"is_synced": synced, "remote_id": remoteID})
	if res.Error != nil {
		return 0, errs.Storage("update location sync status", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteLocationRecord deletes a ping and returns the number of rows
// affected.
func (db *DB) DeleteLocationRecord(id uint) (int64, error) {
	res := db.Delete(&models.LocationRecord{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete location record", res.Error)
	}
	return res.RowsAffected, nil
}
