// Package reports manages activity reports: owner-scoped CRUD with
// text validation and paginated listing.
package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Service owns the activity_reports table.
type Service struct {
	store *db.DB
}

// New creates a reports service.
func New(store *db.DB) *Service {
	return &Service{store: store}
}

// Create validates and persists a new report for a user, together with
// its sync queue row.
func (s *Service) Create(userID uint, text string, ts time.Time, lat, lon float64) (*models.Report, error) {
	if !models.ValidReportText(text) {
		return nil, errs.Validation("report text must be non-empty and at most %d characters", models.MaxReportTextLen)
	}
	if !models.ValidCoordinates(lat, lon) {
		return nil, errs.Validation("invalid coordinates (%f, %f)", lat, lon)
	}

	report := &models.Report{
		UserID:    userID,
		Text:      text,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		ClientRef: uuid.NewString(),
	}
	err := s.store.Transaction(func(tx *db.DB) error {
		if err := tx.SaveReport(report); err != nil {
			return err
		}
		return tx.EnqueueSync(models.EntityReport, models.FormatEntityID(report.ID), models.PriorityReport)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Update changes a report's text. Only the owner may update; the edit
// re-queues the report for sync.
func (s *Service) Update(userID, reportID uint, text string) (*models.Report, error) {
	if !models.ValidReportText(text) {
		return nil, errs.Validation("report text must be non-empty and at most %d characters", models.MaxReportTextLen)
	}
	report, err := s.getOwned(userID, reportID)
	if err != nil {
		return nil, err
	}

	report.Text = text
	report.IsSynced = false
	err = s.store.Transaction(func(tx *db.DB) error {
		if err := tx.SaveReport(report); err != nil {
			return err
		}
		return tx.EnqueueSync(models.EntityReport, models.FormatEntityID(report.ID), models.PriorityReport)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Delete removes a report. Only the owner may delete.
func (s *Service) Delete(userID, reportID uint) error {
	if _, err := s.getOwned(userID, reportID); err != nil {
		return err
	}
	_, err := s.store.DeleteReport(reportID)
	return err
}

// GetByID returns a report when it exists and belongs to the user.
func (s *Service) GetByID(userID, reportID uint) (*models.Report, error) {
	return s.getOwned(userID, reportID)
}

// List returns one 1-based page of the user's reports, newest first.
func (s *Service) List(userID uint, page, pageSize int) (*db.ReportPage, error) {
	return s.store.ListReports(userID, page, pageSize)
}

// Range returns the user's reports between from and to.
func (s *Service) Range(userID uint, from, to time.Time) ([]models.Report, error) {
	return s.store.GetReportsInRange(userID, from, to)
}

func (s *Service) getOwned(userID, reportID uint) (*models.Report, error) {
	report, err := s.store.GetReport(reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errs.NotFound("report", reportID)
	}
	if report.UserID != userID {
		return nil, errs.Unauthorized("report %d does not belong to user %d", reportID, userID)
	}
	return report, nil
}
