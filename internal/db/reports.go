package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// ReportPage is one page of a user's reports plus the total count of
// the full filtered collection.
type ReportPage struct {
	Items      []models.Report `json:"items"`
	TotalCount int64           `json:"total_count"`
	PageNumber int             `json:"page_number"`
	PageSize   int             `json:"page_size"`
}

// SaveReport inserts the report when its ID is zero, updates it
// otherwise.
func (db *DB) SaveReport(report *models.Report) error {
	if err := db.Save(report).Error; err != nil {
		return errs.Storage("save report", err)
	}
	return nil
}

// GetReport retrieves a report by ID. Returns nil when not found.
func (db *DB) GetReport(id uint) (*models.Report, error) {
	var report models.Report
	err := db.First(&report, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get report", err)
	}
	return &report, nil
}

// GetPendingReports returns all reports not yet synced, oldest first.
func (db *DB) GetPendingReports() ([]models.Report, error) {
	var reports []models.Report
	err := db.Where("is_synced = ?", false).Order("timestamp ASC").Find(&reports).Error
	if err != nil {
		return nil, errs.Storage("get pending reports", err)
	}
	return reports, nil
}

// ListReports returns one 1-based page of a user's reports, newest
// first, along with the total count across all pages.
func (db *DB) ListReports(userID uint, page, pageSize int) (*ReportPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := db.Model(&models.Report{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, errs.Storage("count reports", err)
	}

	var items []models.Report
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, errs.Storage("list reports", err)
	}

	return &ReportPage{
		Items:      items,
		TotalCount: total,
		PageNumber: page,
		PageSize:   pageSize,
	}, nil
}

// GetReportsInRange returns a user's reports between from and to,
// oldest first.
func (db *DB) GetReportsInRange(userID uint, from, to time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := db.Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Order("timestamp ASC").
		Find(&reports).Error
	if err != nil {
		return nil, errs.Storage("get reports in range", err)
	}
	return reports, nil
}

// UpdateReportSyncStatus sets the sync bookkeeping columns for one
// report and returns the number of rows affected.
func (db *DB) UpdateReportSyncStatus(id uint, synced bool, remoteID string) (int64, error) {
	res := db.Model(&models.Report{}).Where("id = ?", id).
		Updates(map[string]any{"is_synced": synced, "remote_id": remoteID})
	if res.Error != nil {
		return 0, errs.Storage("update report sync status", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteReport deletes a report and returns the number of rows
// affected.
func (db *DB) DeleteReport(id uint) (int64, error) {
	res := db.Delete(&models.Report{}, "id = ?", id)
	if res.Error != nil {
		return 0, errs.Storage("delete report", res.Error)
	}
	return res.RowsAffected, nil
}
