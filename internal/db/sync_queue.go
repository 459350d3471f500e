package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// EnqueueSync inserts an outbox row for an entity, or bumps the
// priority of the existing row when one is already queued. A re-enqueue
// resets the retry count, so an entity edited after a terminal sync
// failure becomes eligible again. Call it inside the same transaction
// as the entity mutation so both happen or neither does.
func (db *DB) EnqueueSync(entityType models.EntityType, entityID string, priority int) error {
	item := models.SyncQueueItem{
		EntityType: entityType,
		EntityID:   entityID,
		Priority:   priority,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"priority":      gorm.Expr("MAX(priority, ?)", priority),
			"retry_count":   0,
			"error_message": "",
		}),
	}).Create(&item).Error
	if err != nil {
		return errs.Storage("enqueue sync", err)
	}
	return nil
}

// NextSyncBatch returns up to limit queue items for one entity type,
// highest priority first, oldest-attempted first as tie-break so no
// item starves. Items whose retry count exceeds maxRetries are
// terminally failed and excluded.
func (db *DB) NextSyncBatch(entityType models.EntityType, limit, maxRetries int) ([]models.SyncQueueItem, error) {
	var items []models.SyncQueueItem
	q := db.Where("entity_type = ? AND retry_count <= ?", entityType, maxRetries).
		Order("priority DESC, last_attempt ASC NULLS FIRST, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, errs.Storage("next sync batch", err)
	}
	return items, nil
}

// MarkSyncAttempt records a failed upload attempt: increments the retry
// count, stamps the attempt time, and keeps the last error message for
// diagnosis.
func (db *DB) MarkSyncAttempt(id uint, attemptAt time.Time, errMsg string) error {
	res := db.Model(&models.SyncQueueItem{}).Where("id = ?", id).
		Updates(map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_attempt":  attemptAt,
			"error_message": errMsg,
		})
	if res.Error != nil {
		return errs.Storage("mark sync attempt", res.Error)
	}
	return nil
}

// MarkSyncFailed terminally fails a queue item by pushing its retry
// count past the cap. The row is kept for audit; NextSyncBatch skips it.
func (db *DB) MarkSyncFailed(id uint, attemptAt time.Time, maxRetries int, errMsg string) error {
	res := db.Model(&models.SyncQueueItem{}).Where("id = ?", id).
		Updates(map[string]any{
			"retry_count":   maxRetries + 1,
			"last_attempt":  attemptAt,
			"error_message": errMsg,
		})
	if res.Error != nil {
		return errs.Storage("mark sync failed", res.Error)
	}
	return nil
}

// DeleteSyncItem removes a queue row after a confirmed remote success.
func (db *DB) DeleteSyncItem(id uint) error {
	if err := db.Delete(&models.SyncQueueItem{}, "id = ?", id).Error; err != nil {
		return errs.Storage("delete sync item", err)
	}
	return nil
}

// GetSyncItem retrieves a queue row by ID. Returns nil when not found.
func (db *DB) GetSyncItem(id uint) (*models.SyncQueueItem, error) {
	var item models.SyncQueueItem
	err := db.First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get sync item", err)
	}
	return &item, nil
}

// GetSyncItemForEntity retrieves the queue row for one entity, or nil.
func (db *DB) GetSyncItemForEntity(entityType models.EntityType, entityID string) (*models.SyncQueueItem, error) {
	var item models.SyncQueueItem
	err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get sync item for entity", err)
	}
	return &item, nil
}

// CountSyncQueue returns the number of rows still queued, terminally
// failed rows included.
func (db *DB) CountSyncQueue() (int64, error) {
	var count int64
	if err := db.Model(&models.SyncQueueItem{}).Count(&count).Error; err != nil {
		return 0, errs.Storage("count sync queue", err)
	}
	return count, nil
}

// GetFailedSyncItems returns terminally failed rows (retry count past
// the cap) for surfacing in sync status output.
func (db *DB) GetFailedSyncItems(maxRetries int) ([]models.SyncQueueItem, error) {
	var items []models.SyncQueueItem
	err := db.Where("retry_count > ?", maxRetries).Order("updated_at DESC").Find(&items).Error
	if err != nil {
		return nil, errs.Storage("get failed sync items", err)
	}
	return items, nil
}
