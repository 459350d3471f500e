// Package syncengine drains the durable sync queue against the backend
// API. It guarantees every locally-created mutation is eventually
// reflected remotely, tolerating intermittent connectivity: transient
// failures retry with capped exponential backoff, permanent failures
// are terminally marked so retry storms cannot build up, and a
// single-flight guard per entity type keeps overlapping triggers
// (timer, connectivity restored, manual sync) from racing on the same
// queue rows.
package syncengine

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/guardpost/fieldsync/internal/api"
	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/log"
	"github.com/guardpost/fieldsync/internal/models"
)

// RemoteAPI is the slice of the backend client the engine needs.
type RemoteAPI interface {
	UploadTimeRecord(ctx context.Context, rec *models.TimeRecord) (*api.UploadResult, error)
	UploadLocationBatch(ctx context.Context, recs []models.LocationRecord) (*api.BatchResult, error)
	UploadPhoto(ctx context.Context, photo *models.Photo, data []byte) (*api.UploadResult, error)
	UploadReport(ctx context.Context, report *models.Report) (*api.UploadResult, error)
	UploadVerification(ctx context.Context, v *models.CheckpointVerification) (*api.UploadResult, error)
}

// Engine drains the sync queue. The engine is the sole writer of the
// IsSynced/RemoteID columns and the sync_queue table; it never mutates
// business fields.
type Engine struct {
	store  *db.DB
	remote RemoteAPI
	cfg    config.SyncConfig

	// now is swappable for tests.
	now func() time.Time

	mu     sync.Mutex
	guards map[models.EntityType]*sync.Mutex
}

// New creates a sync engine.
func New(store *db.DB, remote RemoteAPI, cfg config.SyncConfig) *Engine {
	if cfg.BatchSize <= 0 {
		cfg = config.DefaultSyncConfig()
	}
	return &Engine{
		store:  store,
		remote: remote,
		cfg:    cfg,
		now:    time.Now,
		guards: make(map[models.EntityType]*sync.Mutex),
	}
}

// guard returns the single-flight mutex for an entity type.
func (e *Engine) guard(entityType models.EntityType) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.guards[entityType]
	if !ok {
		g = &sync.Mutex{}
		e.guards[entityType] = g
	}
	return g
}

// Drain runs one pass over every syncable entity type and reports the
// aggregate result. A cancelled context stops between items; the
// in-flight item is requeued as a transient failure.
func (e *Engine) Drain(ctx context.Context) (*Result, error) {
	result := &Result{}
	for _, entityType := range models.SyncableEntityTypes() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sub, err := e.DrainEntity(ctx, entityType)
		result.merge(sub)
		if err != nil {
			return result, err
		}
	}
	log.Printf("sync drain complete: %d synced, %d failed, %d deferred\n",
		result.Succeeded, result.GetFailureCount(), result.Deferred)
	return result, nil
}

// DrainEntity drains the queue for one entity type. When another drain
// for the same type is already running the call returns immediately
// with everything deferred, so two trigger sources never upload the
// same row in parallel.
func (e *Engine) DrainEntity(ctx context.Context, entityType models.EntityType) (*Result, error) {
	g := e.guard(entityType)
	if !g.TryLock() {
		return &Result{Deferred: 1}, nil
	}
	defer g.Unlock()

	items, err := e.store.NextSyncBatch(entityType, e.cfg.BatchSize, e.cfg.MaxRetries)
	if err != nil {
		return &Result{}, err
	}

	due := make([]models.SyncQueueItem, 0, len(items))
	result := &Result{}
	for _, item := range items {
		if e.inBackoff(item) {
			result.Deferred++
			continue
		}
		due = append(due, item)
	}

	if entityType == models.EntityLocation {
		batchResult, err := e.drainLocationBatch(ctx, due)
		result.merge(batchResult)
		return result, err
	}

	for _, item := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.processItem(ctx, item, result)
	}
	return result, nil
}

// inBackoff reports whether a queue item's retry window has not yet
// elapsed. The delay doubles per recorded attempt, capped.
func (e *Engine) inBackoff(item models.SyncQueueItem) bool {
	if item.RetryCount == 0 || item.LastAttempt == nil {
		return false
	}
	return e.now().Before(item.LastAttempt.Add(e.backoffDelay(item.RetryCount)))
}

func (e *Engine) backoffDelay(retryCount int) time.Duration {
	delay := e.cfg.BackoffBase
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= e.cfg.BackoffCap {
			return e.cfg.BackoffCap
		}
	}
	if delay > e.cfg.BackoffCap {
		return e.cfg.BackoffCap
	}
	return delay
}

// processItem attempts one upload and applies the outcome to the store.
func (e *Engine) processItem(ctx context.Context, item models.SyncQueueItem, result *Result) {
	remoteID, err := e.upload(ctx, item)
	switch {
	case err == nil:
		if txErr := e.confirm(item, remoteID); txErr != nil {
			log.Errorf("confirm sync of %s %s: %v", item.EntityType, item.EntityID, txErr)
			result.addFailure(item.EntityType, item.EntityID, txErr, false)
			return
		}
		result.Succeeded++

	case errs.IsTransient(err):
		e.recordAttempt(item, err, result)

	default:
		// Remote validation rejected the payload, the entity vanished
		// locally, or auth failed: retrying cannot help.
		if markErr := e.store.MarkSyncFailed(item.ID, e.now(), e.cfg.MaxRetries, err.Error()); markErr != nil {
			log.Errorf("mark sync failed for %s %s: %v", item.EntityType, item.EntityID, markErr)
		}
		result.addFailure(item.EntityType, item.EntityID, err, true)
	}
}

// recordAttempt books a transient failure; when the retry cap is
// reached the item flips to terminally failed instead.
func (e *Engine) recordAttempt(item models.SyncQueueItem, cause error, result *Result) {
	if item.RetryCount+1 > e.cfg.MaxRetries {
		if err := e.store.MarkSyncFailed(item.ID, e.now(), e.cfg.MaxRetries, cause.Error()); err != nil {
			log.Errorf("mark sync failed for %s %s: %v", item.EntityType, item.EntityID, err)
		}
		result.addFailure(item.EntityType, item.EntityID, cause, true)
		return
	}
	if err := e.store.MarkSyncAttempt(item.ID, e.now(), cause.Error()); err != nil {
		log.Errorf("mark sync attempt for %s %s: %v", item.EntityType, item.EntityID, err)
	}
	result.addFailure(item.EntityType, item.EntityID, cause, false)
}

// upload loads the entity behind a queue item and pushes it to the
// remote. Entities that already carry a RemoteID are not re-submitted;
// the stored ID is reused so the engine never double-submits.
func (e *Engine) upload(ctx context.Context, item models.SyncQueueItem) (string, error) {
	switch item.EntityType {
	case models.EntityTimeRecord:
		id, err := parseUintID(item.EntityID)
		if err != nil {
			return "", err
		}
		rec, err := e.store.GetTimeRecord(id)
		if err != nil {
			return "", err
		}
		if rec == nil {
			return "", errs.NotFound("time record", item.EntityID)
		}
		if rec.RemoteID != "" {
			return rec.RemoteID, nil
		}
		res, err := e.remote.UploadTimeRecord(ctx, rec)
		if err != nil {
			return "", err
		}
		return res.RemoteID, nil

	case models.EntityPhoto:
		photo, err := e.store.GetPhoto(item.EntityID)
		if err != nil {
			return "", err
		}
		if photo == nil {
			return "", errs.NotFound("photo", item.EntityID)
		}
		if photo.RemoteID != "" {
			return photo.RemoteID, nil
		}
		data, err := os.ReadFile(photo.FilePath)
		if err != nil {
			return "", errs.NotFound("photo blob", photo.FilePath)
		}
		res, err := e.remote.UploadPhoto(ctx, photo, data)
		if err != nil {
			return "", err
		}
		return res.RemoteID, nil

	case models.EntityReport:
		id, err := parseUintID(item.EntityID)
		if err != nil {
			return "", err
		}
		report, err := e.store.GetReport(id)
		if err != nil {
			return "", err
		}
		if report == nil {
			return "", errs.NotFound("report", item.EntityID)
		}
		if report.RemoteID != "" {
			return report.RemoteID, nil
		}
		res, err := e.remote.UploadReport(ctx, report)
		if err != nil {
			return "", err
		}
		return res.RemoteID, nil

	case models.EntityVerification:
		id, err := parseUintID(item.EntityID)
		if err != nil {
			return "", err
		}
		v, err := e.store.GetVerification(id)
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", errs.NotFound("verification", item.EntityID)
		}
		if v.RemoteID != "" {
			return v.RemoteID, nil
		}
		res, err := e.remote.UploadVerification(ctx, v)
		if err != nil {
			return "", err
		}
		return res.RemoteID, nil

	default:
		return "", errs.Validation("unknown entity type %q", item.EntityType)
	}
}

// confirm applies a successful upload atomically: the entity's sync
// columns update and the queue row disappears in one transaction, so
// cancellation can never leave a row double-marked or lost.
func (e *Engine) confirm(item models.SyncQueueItem, remoteID string) error {
	return e.store.Transaction(func(tx *db.DB) error {
		var err error
		switch item.EntityType {
		case models.EntityTimeRecord:
			var id uint
			if id, err = parseUintID(item.EntityID); err == nil {
				_, err = tx.UpdateTimeRecordSyncStatus(id, true, remoteID)
			}
		case models.EntityLocation:
			var id uint
			if id, err = parseUintID(item.EntityID); err == nil {
				_, err = tx.UpdateLocationSyncStatus(id, true, remoteID)
			}
		case models.EntityPhoto:
			_, err = tx.UpdatePhotoSyncStatus(item.EntityID, true, remoteID)
		case models.EntityReport:
			var id uint
			if id, err = parseUintID(item.EntityID); err == nil {
				_, err = tx.UpdateReportSyncStatus(id, true, remoteID)
			}
		case models.EntityVerification:
			var id uint
			if id, err = parseUintID(item.EntityID); err == nil {
				_, err = tx.UpdateVerificationSyncStatus(id, true, remoteID)
			}
		default:
			err = errs.Validation("unknown entity type %q", item.EntityType)
		}
		if err != nil {
			return err
		}
		return tx.DeleteSyncItem(item.ID)
	})
}

func parseUintID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.Validation("bad entity id %q", s)
	}
	return uint(n), nil
}
