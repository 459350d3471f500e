// Package migrate brings a fieldsync database schema from its recorded
// version to the latest. Migrations are applied exactly once, in
// ascending version order regardless of registration order, and must be
// individually idempotent since version bookkeeping is external to the
// SQL itself.
package migrate

import (
	"fmt"
	"sort"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/log"
)

// Migration is one schema step. Apply must be safe to re-run
// (CREATE TABLE IF NOT EXISTS, guarded ADD COLUMN).
type Migration struct {
	Version float64
	Name    string
	Apply   func(conn *db.DB) error
}

// Manager applies an arbitrary set of migrations in version order.
type Manager struct {
	migrations []Migration
}

// NewManager creates a manager over the given migrations. The slice
// does not need to be sorted.
func NewManager(migrations []Migration) *Manager {
	return &Manager{migrations: migrations}
}

// Run applies every migration with a version greater than the current
// schema version, ascending. It returns the final version reached,
// which equals the input version when nothing applied.
//
// On failure the error propagates and the database stays at the last
// successfully applied version; no partial rollback is attempted.
func (m *Manager) Run(conn *db.DB, current float64) (float64, error) {
	sorted := make([]Migration, len(m.migrations))
	copy(sorted, m.migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	version := current
	for _, mig := range sorted {
		if mig.Version <= version {
			continue
		}
		if err := mig.Apply(conn); err != nil {
			log.Errorf("migration %.1f (%s) failed: %v", mig.Version, mig.Name, err)
			return version, fmt.Errorf("apply migration %.1f (%s): %w", mig.Version, mig.Name, err)
		}
		if err := conn.RecordSchemaVersion(mig.Version, mig.Name); err != nil {
			return version, fmt.Errorf("record migration %.1f: %w", mig.Version, err)
		}
		version = mig.Version
	}
	return version, nil
}

// Up brings conn from its recorded version to the latest registered
// version and returns the version reached.
func Up(conn *db.DB) (float64, error) {
	current, err := conn.CurrentSchemaVersion()
	if err != nil {
		return 0, err
	}
	return NewManager(All()).Run(conn, current)
}
