package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// SavePhoto upserts the photo metadata row keyed on its UUID primary
// key. Photo IDs are assigned by the photo service before the insert.
func (db *DB) SavePhoto(photo *models.Photo) error {
	if err := db.Save(photo).Error; err != nil {
		return errs.Storage("save photo", err)
	}
	return nil
}

// GetPhoto retrieves a photo by its UUID. Returns nil when not found.
func (db *DB) GetPhoto(id string) (*models.Photo, error) {
	var photo models.Photo
	err := db.First(&photo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get photo", err)
	}
	return &photo, nil
}

// GetPendingPhotos returns all photos not yet synced, oldest first.
func (db *DB) GetPendingPhotos() ([]models.Photo, error) {
	var photos []models.Photo
	err := db.Where("is_synced = ?", false).Order("timestamp ASC").Find(&photos).Error
	if err != nil {
		return nil, errs.Storage("get pending photos", err)
	}
	return photos, nil
}

// UpdatePhotoSyncStatus sets the sync bookkeeping columns for one photo
// and returns the number of rows affected. A successful sync also
// implies full progress.
func (db *DB) UpdatePhotoSyncStatus(id string, synced bool, remoteID string) (int64, error) {
	updates := map[string]any{"is_synced": synced, "remote_id": remoteID}
	if synced {
		updates["sync_progress"] = 100
	}
	res := db.Model(&models.Photo{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return 0, errs.Storage("update photo sync status", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdatePhotoSyncProgress records partial upload progress (0-100).
func (db *DB) UpdatePhotoSyncProgress(id string, progress int) (int64, error) {
	res := db.Model(&models.Photo{}).Where("id = ?", id).Update("sync_progress", progress)
	if res.Error != nil {
		return 0, errs.Storage("update photo sync progress", res.Error)
	}
	return res.RowsAffected, nil
}

// DeletePhoto deletes a photo metadata row and returns the number of
// rows affected. Blob cleanup on disk is the photo service's job.
func (db *DB) DeletePhoto(id string) (int64, error) {
	res := db.Delete(&models.Photo{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete photo", res.Error)
	}
	return res.RowsAffected, nil
}
