package db

import (
	"time"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// CurrentSchemaVersion returns the highest applied migration version,
// or 0 when no migration has run yet. The schema_versions table itself
// is created on demand so a fresh database reads as version 0.
func (db *DB) CurrentSchemaVersion() (float64, error) {
	if err := db.AutoMigrate(&models.SchemaVersion{}); err != nil {
		return 0, errs.Storage("ensure schema_versions table", err)
	}
	var version float64
	err := db.Model(&models.SchemaVersion{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return 0, errs.Storage("read schema version", err)
	}
	return version, nil
}

// RecordSchemaVersion marks one migration as applied.
func (db *DB) RecordSchemaVersion(version float64, name string) error {
	rec := models.SchemaVersion{Version: version, Name: name, AppliedAt: time.Now()}
	if err := db.Create(&rec).Error; err != nil {
		return errs.Storage("record schema version", err)
	}
	return nil
}

// SchemaHistory returns all applied migrations in apply order.
func (db *DB) SchemaHistory() ([]models.SchemaVersion, error) {
	var history []models.SchemaVersion
	if err := db.Order("version ASC").Find(&history).Error; err != nil {
		return nil, errs.Storage("read schema history", err)
	}
	return history, nil
}
