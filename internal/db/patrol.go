package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// SavePatrolLocation inserts the location when its ID is zero, updates
// it otherwise.
func (db *DB) SavePatrolLocation(loc *models.PatrolLocation) error {
	if err := db.Save(loc).Error; err != nil {
		return errs.Storage("save patrol location", err)
	}
	return nil
}

// GetPatrolLocation retrieves a location by ID. Returns nil when not
// found.
func (db *DB) GetPatrolLocation(id uint) (*models.PatrolLocation, error) {
	var loc models.PatrolLocation
	err := db.First(&loc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get patrol location", err)
	}
	return &loc, nil
}

// GetPatrolLocations returns all patrol locations ordered by name.
func (db *DB) GetPatrolLocations() ([]models.PatrolLocation, error) {
	var locs []models.PatrolLocation
	if err := db.Order("name ASC").Find(&locs).Error; err != nil {
		return nil, errs.Storage("get patrol locations", err)
	}
	return locs, nil
}

// DeletePatrolLocation deletes a location. Deleting a location that
// still has checkpoints fails; cascading deletes are not used.
func (db *DB) DeletePatrolLocation(id uint) (int64, error) {
	var dependents int64
	if err := db.Model(&models.Checkpoint{}).Where("location_id = ?", id).Count(&dependents).Error; err != nil {
		return 0, errs.Storage("count location checkpoints", err)
	}
	if dependents > 0 {
		return 0, errs.Conflict("patrol location %d has %d checkpoints; delete them first", id, dependents)
	}
	res := db.Delete(&models.PatrolLocation{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete patrol location", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveCheckpoint inserts the checkpoint when its ID is zero, updates it
// otherwise. The referenced patrol location must exist.
func (db *DB) SaveCheckpoint(cp *models.Checkpoint) error {
	if err := db.Save(cp).Error; err != nil {
		return errs.Storage("save checkpoint", err)
	}
	return nil
}

// GetCheckpoint retrieves a checkpoint by ID. Returns nil when not
// found.
func (db *DB) GetCheckpoint(id uint) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	err := db.First(&cp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get checkpoint", err)
	}
	return &cp, nil
}

// GetCheckpointsByLocation returns all checkpoints for a patrol
// location ordered by name.
func (db *DB) GetCheckpointsByLocation(locationID uint) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	err := db.Where("location_id = ?", locationID).Order("name ASC").Find(&cps).Error
	if err != nil {
		return nil, errs.Storage("get checkpoints by location", err)
	}
	return cps, nil
}

// DeleteCheckpoint deletes a checkpoint. Deleting one that still has
// verifications fails.
func (db *DB) DeleteCheckpoint(id uint) (int64, error) {
	var dependents int64
	if err := db.Model(&models.CheckpointVerification{}).Where("checkpoint_id = ?", id).Count(&dependents).Error; err != nil {
		return 0, errs.Storage("count checkpoint verifications", err)
	}
	if dependents > 0 {
		return 0, errs.Conflict("checkpoint %d has %d verifications; delete them first", id, dependents)
	}
	res := db.Delete(&models.Checkpoint{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete checkpoint", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveVerification inserts the verification when its ID is zero,
// updates it otherwise.
func (db *DB) SaveVerification(v *models.CheckpointVerification) error {
	if err := db.Save(v).Error; err != nil {
		return errs.Storage("save verification", err)
	}
	return nil
}

// GetVerification retrieves a verification by ID. Returns nil when not
// found.
func (db *DB) GetVerification(id uint) (*models.CheckpointVerification, error) {
	var v models.CheckpointVerification
	err := db.First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get verification", err)
	}
	return &v, nil
}

// GetVerificationForCheckpoint returns the verification a user recorded
// for one checkpoint, or nil when none exists.
func (db *DB) GetVerificationForCheckpoint(userID, checkpointID uint) (*models.CheckpointVerification, error) {
	var v models.CheckpointVerification
	err := db.Where("user_id = ? AND checkpoint_id = ?", userID, checkpointID).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get verification for checkpoint", err)
	}
	return &v, nil
}

// GetVerificationsByUser returns all verifications a user recorded,
// newest first.
func (db *DB) GetVerificationsByUser(userID uint) ([]models.CheckpointVerification, error) {
	var vs []models.CheckpointVerification
	err := db.Where("user_id = ?", userID).Order("timestamp DESC").Find(&vs).Error
	if err != nil {
		return nil, errs.Storage("get verifications by user", err)
	}
	return vs, nil
}

// CountVerifiedForLocation counts a user's verifications whose
// checkpoints belong to the given location.
func (db *DB) CountVerifiedForLocation(userID, locationID uint) (int64, error) {
	var count int64
	err := db.Model(&models.CheckpointVerification{}).
		Joins("JOIN checkpoints ON checkpoints.id = checkpoint_verifications.checkpoint_id").
		Where("checkpoint_verifications.user_id = ? AND checkpoints.location_id = ?", userID, locationID).
		Count(&count).Error
	if err != nil {
		return 0, errs.Storage("count verified for location", err)
	}
	return count, nil
}

// GetPendingVerifications returns all verifications not yet synced,
// oldest first.
func (db *DB) GetPendingVerifications() ([]models.CheckpointVerification, error) {
	var vs []models.CheckpointVerification
	err := db.Where("is_synced = ?", false).Order("timestamp ASC").Find(&vs).Error
	if err != nil {
		return nil, errs.Storage("get pending verifications", err)
	}
	return vs, nil
}

// UpdateVerificationSyncStatus sets the sync bookkeeping columns for
// one verification and returns the number of rows affected.
func (db *DB) UpdateVerificationSyncStatus(id uint, synced bool, remoteID string) (int64, error) {
	res := db.Model(&models.CheckpointVerification{}).Where("id = ?", id).
		Updates(map[string]any{"is_synced": synced, "remote_id": remoteID})
	if res.Error != nil {
		return 0, errs.Storage("update verification sync status", res.Error)
	}
	return res.RowsAffected, nil
}
