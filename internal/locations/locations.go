// Package locations batch-records position pings. Invalid coordinates
// are rejected per item; one bad ping never fails the whole batch.
package locations

import (
	"time"

	"github.com/google/uuid"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Ping is one position sample submitted for recording.
type Ping struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// ItemError describes one rejected ping.
type ItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchOutcome reports per-item results of a RecordBatch call.
type BatchOutcome struct {
	Stored []models.LocationRecord `json:"stored"`
	Errors []ItemError             `json:"errors,omitempty"`
}

// GetSuccessCount returns the number of pings persisted.
func (o *BatchOutcome) GetSuccessCount() int {
	return len(o.Stored)
}

// HasFailures reports whether any ping was rejected.
func (o *BatchOutcome) HasFailures() bool {
	return len(o.Errors) > 0
}

// Service owns the location_records table.
type Service struct {
	store *db.DB
}

// New creates a locations service.
func New(store *db.DB) *Service {
	return &Service{store: store}
}

// RecordBatch validates and persists a batch of pings for a user. An
// empty batch is itself a validation error. Each stored ping and its
// sync queue row are written in one transaction.
func (s *Service) RecordBatch(userID uint, pings []Ping) (*BatchOutcome, error) {
	if len(pings) == 0 {
		return nil, errs.Validation("empty location batch")
	}

	outcome := &BatchOutcome{}
	for i, ping := range pings {
		if !models.ValidCoordinates(ping.Latitude, ping.Longitude) {
			outcome.Errors = append(outcome.Errors, ItemError{
				Index: i,
				Error: errs.Validation("invalid coordinates (%f, %f)", ping.Latitude, ping.Longitude).Error(),
			})
			continue
		}

		rec := models.LocationRecord{
			UserID:    userID,
			Timestamp: ping.Timestamp,
			Latitude:  ping.Latitude,
			Longitude: ping.Longitude,
			Accuracy:  ping.Accuracy,
			ClientRef: uuid.NewString(),
		}
		err := s.store.Transaction(func(tx *db.DB) error {
			if err := tx.SaveLocationRecord(&rec); err != nil {
				return err
			}
			return tx.EnqueueSync(models.EntityLocation, models.FormatEntityID(rec.ID), models.PriorityLocation)
		})
		if err != nil {
			// Local storage failure is data-loss risk, not a per-item
			// validation problem; propagate it.
			return nil, err
		}
		outcome.Stored = append(outcome.Stored, rec)
	}
	return outcome, nil
}

// Current returns a user's most recent ping, or a not-found error.
func (s *Service) Current(userID uint) (*models.LocationRecord, error) {
	rec, err := s.store.GetCurrentLocation(userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errs.NotFound("location for user", userID)
	}
	return rec, nil
}

// History returns a user's pings between from and to.
func (s *Service) History(userID uint, from, to time.Time) ([]models.LocationRecord, error) {
	return s.store.GetLocationHistory(userID, from, to)
}
