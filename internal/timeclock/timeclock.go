// Package timeclock records clock-in/clock-out events and enforces
// their alternation per user.
package timeclock

import (
	"time"

	"github.com/google/uuid"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Service owns the time_records table.
type Service struct {
	store *db.DB
}

// New creates a timeclock service.
func New(store *db.DB) *Service {
	return &Service{store: store}
}

// Clock records a clock event for a user. For a given user, accepted
// events alternate: clocking in twice in a row is rejected with
// "already clocked in", clocking out without an open shift with
// "not clocked in". The record and its sync queue row are written in
// one transaction.
func (s *Service) Clock(userID uint, clockType models.ClockType, ts time.Time, lat, lon float64) (*models.TimeRecord, error) {
	if !clockType.IsValid() {
		return nil, errs.Validation("unknown clock type %q", clockType)
	}
	if !models.ValidCoordinates(lat, lon) {
		return nil, errs.Validation("invalid coordinates (%f, %f)", lat, lon)
	}

	latest, err := s.store.GetLatestTimeRecord(userID)
	if err != nil {
		return nil, err
	}
	switch {
	case latest == nil && clockType == models.ClockOut:
		return nil, errs.Conflict("not clocked in")
	case latest != nil && latest.Type == clockType && clockType == models.ClockIn:
		return nil, errs.Conflict("already clocked in")
	case latest != nil && latest.Type == clockType:
		return nil, errs.Conflict("not clocked in")
	}

	rec := &models.TimeRecord{
		UserID:    userID,
		Type:      clockType,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		ClientRef: uuid.NewString(),
	}
	err = s.store.Transaction(func(tx *db.DB) error {
		if err := tx.SaveTimeRecord(rec); err != nil {
			return err
		}
		return tx.EnqueueSync(models.EntityTimeRecord, models.FormatEntityID(rec.ID), models.PriorityTimeRecord)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Status reports whether the user is currently clocked in, along with
// the latest record when one exists.
func (s *Service) Status(userID uint) (bool, *models.TimeRecord, error) {
	latest, err := s.store.GetLatestTimeRecord(userID)
	if err != nil {
		return false, nil, err
	}
	if latest == nil {
		return false, nil, nil
	}
	return latest.Type == models.ClockIn, latest, nil
}

// History returns the user's clock events between from and to.
func (s *Service) History(userID uint, from, to time.Time) ([]models.TimeRecord, error) {
	return s.store.GetTimeRecordsInRange(userID, from, to)
}
