package syncengine

import (
	"context"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/log"
	"github.com/guardpost/fieldsync/internal/models"
)

// drainLocationBatch uploads queued location pings in one request. The
// server reports per-item outcomes; only the succeeded subset is
// confirmed, failed items stay queued with their retry count bumped.
func (e *Engine) drainLocationBatch(ctx context.Context, items []models.SyncQueueItem) (*Result, error) {
	result := &Result{}
	if len(items) == 0 {
		return result, nil
	}

	// Load the pings behind the queue rows. Already-synced pings are
	// confirmed without re-submitting; vanished ones fail terminally.
	recs := make([]models.LocationRecord, 0, len(items))
	itemByRef := make(map[string]models.SyncQueueItem, len(items))
	for _, item := range items {
		id, err := parseUintID(item.EntityID)
		if err != nil {
			e.failTerminally(item, err, result)
			continue
		}
		rec, err := e.store.GetLocationRecord(id)
		if err != nil {
			return result, err
		}
		if rec == nil {
			e.failTerminally(item, errs.NotFound("location record", item.EntityID), result)
			continue
		}
		if rec.RemoteID != "" {
			if err := e.confirm(item, rec.RemoteID); err != nil {
				result.addFailure(item.EntityType, item.EntityID, err, false)
				continue
			}
			result.Succeeded++
			continue
		}
		recs = append(recs, *rec)
		itemByRef[rec.ClientRef] = item
	}

	if len(recs) == 0 {
		return result, nil
	}

	batch, err := e.remote.UploadLocationBatch(ctx, recs)
	if err != nil {
		// Whole-batch failure: transient errors requeue every item,
		// anything else fails them terminally.
		for _, item := range itemByRef {
			if errs.IsTransient(err) {
				e.recordAttempt(item, err, result)
			} else {
				e.failTerminally(item, err, result)
			}
		}
		return result, nil
	}

	for _, ref := range batch.SyncedIDs {
		item, ok := itemByRef[ref]
		if !ok {
			log.Errorf("location batch: remote confirmed unknown client ref %s", ref)
			continue
		}
		delete(itemByRef, ref)
		remoteID := batch.RemoteIDs[ref]
		if remoteID == "" {
			remoteID = ref
		}
		if err := e.confirm(item, remoteID); err != nil {
			result.addFailure(item.EntityType, item.EntityID, err, false)
			continue
		}
		result.Succeeded++
	}

	for _, ref := range batch.FailedIDs {
		item, ok := itemByRef[ref]
		if !ok {
			continue
		}
		delete(itemByRef, ref)
		e.failTerminally(item, errs.Validation("remote rejected location %s", ref), result)
	}

	// Items the server did not mention at all are treated as transient
	// so the next cycle retries them.
	for _, item := range itemByRef {
		e.recordAttempt(item, errs.Transient("location batch", errMissingOutcome), result)
	}

	return result, nil
}

func (e *Engine) failTerminally(item models.SyncQueueItem, cause error, result *Result) {
	if err := e.store.MarkSyncFailed(item.ID, e.now(), e.cfg.MaxRetries, cause.Error()); err != nil {
		log.Errorf("mark sync failed for %s %s: %v", item.EntityType, item.EntityID, err)
	}
	result.addFailure(item.EntityType, item.EntityID, cause, true)
}

// errMissingOutcome marks batch items the server's response omitted.
var errMissingOutcome = errSentinel("no per-item outcome in batch response")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
