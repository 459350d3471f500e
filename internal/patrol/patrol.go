// Package patrol implements the checkpoint verification engine and the
// patrol status state machine. A patrol for a (user, location) pair
// moves NotStarted -> InProgress -> Completed as the user verifies the
// location's checkpoints.
package patrol

import (
	"time"

	"github.com/google/uuid"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Engine validates and records checkpoint verifications.
type Engine struct {
	store *db.DB

	// radiusMeters rejects verifications farther than this from the
	// checkpoint. Zero disables the proximity gate; the reference
	// behavior stores coordinates without gating on them.
	radiusMeters float64

	now func() time.Time
}

// New creates a verification engine. radiusMeters <= 0 disables the
// proximity policy.
func New(store *db.DB, radiusMeters float64) *Engine {
	return &Engine{
		store:        store,
		radiusMeters: radiusMeters,
		now:          time.Now,
	}
}

// VerifyCheckpoint records that a user verified a checkpoint.
//
// A missing checkpoint is a not-found error. A second verification for
// the same (user, checkpoint) pair is an idempotent success: the
// existing row comes back and nothing is written. When the proximity
// policy is enabled, positions outside the radius are rejected.
//
// The verification row and its sync queue entry are written in one
// transaction.
func (e *Engine) VerifyCheckpoint(userID, checkpointID uint, ts time.Time, lat, lon float64) (*models.CheckpointVerification, error) {
	cp, err := e.store.GetCheckpoint(checkpointID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, errs.NotFound("checkpoint", checkpointID)
	}

	existing, err := e.store.GetVerificationForCheckpoint(userID, checkpointID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if e.radiusMeters > 0 {
		if d := DistanceMeters(lat, lon, cp.Latitude, cp.Longitude); d > e.radiusMeters {
			return nil, errs.Validation("position is %.0fm from checkpoint %d, outside the %.0fm radius",
				d, checkpointID, e.radiusMeters)
		}
	}

	v := &models.CheckpointVerification{
		UserID:       userID,
		CheckpointID: checkpointID,
		Timestamp:    ts,
		Latitude:     lat,
		Longitude:    lon,
		ClientRef:    uuid.NewString(),
	}
	err = e.store.Transaction(func(tx *db.DB) error {
		if err := tx.SaveVerification(v); err != nil {
			return err
		}
		return tx.EnqueueSync(models.EntityVerification, models.FormatEntityID(v.ID), models.PriorityVerification)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// IsCheckpointVerified reports whether the user already verified the
// checkpoint. Pure existence check, no side effects.
func (e *Engine) IsCheckpointVerified(userID, checkpointID uint) (bool, error) {
	v, err := e.store.GetVerificationForCheckpoint(userID, checkpointID)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// GetPatrolStatus derives the aggregate completion state of a patrol
// location for one user by counting its checkpoints against the user's
// verifications of them.
func (e *Engine) GetPatrolStatus(locationID, userID uint) (*models.PatrolStatus, error) {
	loc, err := e.store.GetPatrolLocation(locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, errs.NotFound("patrol location", locationID)
	}

	checkpoints, err := e.store.GetCheckpointsByLocation(locationID)
	if err != nil {
		return nil, err
	}
	verified, err := e.store.CountVerifiedForLocation(userID, locationID)
	if err != nil {
		return nil, err
	}

	status := &models.PatrolStatus{
		LocationID:          locationID,
		TotalCheckpoints:    len(checkpoints),
		VerifiedCheckpoints: int(verified),
	}
	switch {
	case status.TotalCheckpoints > 0 && status.VerifiedCheckpoints == status.TotalCheckpoints:
		status.State = models.PatrolCompleted
	case status.VerifiedCheckpoints > 0:
		status.State = models.PatrolInProgress
	default:
		status.State = models.PatrolNotStarted
	}
	return status, nil
}
