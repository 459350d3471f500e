package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// SaveTimeRecord inserts the record when its ID is zero, updates it
// otherwise. Insert/update is determined solely by key presence.
func (db *DB) SaveTimeRecord(rec *models.TimeRecord) error {
	if err := db.Save(rec).Error; err != nil {
		return errs.Storage("save time record", err)
	}
	return nil
}

// GetTimeRecord retrieves a time record by ID. Returns nil when not
// found.
func (db *DB) GetTimeRecord(id uint) (*models.TimeRecord, error) {
	var rec models.TimeRecord
	err := db.First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get time record", err)
	}
	return &rec, nil
}

// GetPendingTimeRecords returns all records not yet synced, oldest
// first.
func (db *DB) GetPendingTimeRecords() ([]models.TimeRecord, error) {
	var recs []models.TimeRecord
	err := db.Where("is_synced = ?", false).Order("timestamp ASC").Find(&recs).Error
	if err != nil {
		return nil, errs.Storage("get pending time records", err)
	}
	return recs, nil
}

// GetLatestTimeRecord returns the most recent record for a user, or nil
// when the user has none. The timeclock service uses it to enforce
// clock-in/clock-out alternation.
func (db *DB) GetLatestTimeRecord(userID uint) (*models.TimeRecord, error) {
	var rec models.TimeRecord
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get latest time record", err)
	}
	return &rec, nil
}

// GetTimeRecordsInRange returns a user's records between from and to
// inclusive, oldest first.
func (db *DB) GetTimeRecordsInRange(userID uint, from, to time.Time) ([]models.TimeRecord, error) {
	var recs []models.TimeRecord
	err := db.Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errs.Storage("get time records in range", err)
	}
	return recs, nil
}

// UpdateTimeRecordSyncStatus sets the sync bookkeeping columns for one
// record and returns the number of rows affected.
func (db *DB) UpdateTimeRecordSyncStatus(id uint, synced bool, remoteID string) (int64, error) {
	res := db.Model(&models.TimeRecord{}).Where("id = ?", id).
		Updates(map[string]any{"is_synced": synced, "remote_id": remoteID})
	if res.Error != nil {
		return 0, errs.Storage("update time record sync status", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteTimeRecord deletes a record and returns the number of rows
// affected.
func (db *DB) DeleteTimeRecord(id uint) (int64, error) {
	res := db.Delete(&models.TimeRecord{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete time record", res.Error)
	}
	return res.RowsAffected, nil
}
