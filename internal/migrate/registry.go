package migrate

import (
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/models"
)

// All returns the built-in migrations for the fieldsync schema. Each
// one re-runs cleanly: AutoMigrate only adds what is missing and the
// raw statements are guarded with IF NOT EXISTS.
func All() []Migration {
	return []Migration{
		{
			Version: 1.0,
			Name:    "base tables",
			Apply: func(conn *db.DB) error {
				return conn.AutoMigrate(
					&models.User{},
					&models.TimeRecord{},
					&models.LocationRecord{},
					&models.Photo{},
					&models.Report{},
					&models.SyncQueueItem{},
				)
			},
		},
		{
			Version: 1.1,
			Name:    "patrol tables",
			Apply: func(conn *db.DB) error {
				return conn.AutoMigrate(
					&models.PatrolLocation{},
					&models.Checkpoint{},
					&models.CheckpointVerification{},
				)
			},
		},
		{
			Version: 1.2,
			Name:    "sync queue drain order index",
			Apply: func(conn *db.DB) error {
				stmts := []string{
					`CREATE INDEX IF NOT EXISTS idx_sync_queue_order ON sync_queue(priority DESC, last_attempt ASC)`,
					`CREATE INDEX IF NOT EXISTS idx_time_records_user_ts ON time_records(user_id, timestamp)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_user_ts ON activity_reports(user_id, timestamp)`,
				}
				for _, stmt := range stmts {
					if err := conn.Exec(stmt).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
