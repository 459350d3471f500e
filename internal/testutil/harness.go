// Package testutil provides testing utilities.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/migrate"
)

// Harness bundles the temp directories, store and config a test needs.
type Harness struct {
	t *testing.T

	BaseDir   string
	PhotosDir string
	Store     *db.DB
	Config    *config.Config
}

// NewHarness creates an unstarted harness. Call Setup before use.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return &Harness{t: t}
}

// Setup creates temp directories, opens a migrated database and builds
// a config pointing at them.
func (h *Harness) Setup() {
	h.t.Helper()

	h.BaseDir = h.t.TempDir()
	h.PhotosDir = filepath.Join(h.BaseDir, "photos")
	if err := os.MkdirAll(h.PhotosDir, 0755); err != nil {
		h.t.Fatalf("create photos dir: %v", err)
	}

	store, err := db.Open(db.DefaultConfig(filepath.Join(h.BaseDir, "fieldsync.db")))
	if err != nil {
		h.t.Fatalf("open database: %v", err)
	}
	h.Store = store

	if _, err := migrate.Up(store); err != nil {
		h.t.Fatalf("run migrations: %v", err)
	}

	h.Config = &config.Config{
		BaseDir: h.BaseDir,
		Sync:    config.DefaultSyncConfig(),
	}
}

// Teardown closes the store. Temp directories are cleaned up by the
// testing package.
func (h *Harness) Teardown() {
	h.t.Helper()
	if h.Store != nil {
		if err := h.Store.Close(); err != nil {
			h.t.Errorf("close database: %v", err)
		}
		h.Store = nil
	}
}
