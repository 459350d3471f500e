package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the local database schema up to date",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return trackError("migrate", err)
	}

	paths := config.GetPaths(cfg)
	store, err := db.Open(db.DefaultConfig(paths.Database))
	if err != nil {
		return trackError("migrate", err)
	}
	defer func() { _ = store.Close() }()

	before, err := store.CurrentSchemaVersion()
	if err != nil {
		return trackError("migrate", err)
	}

	after, err := migrate.NewManager(migrate.All()).Run(store, before)
	if err != nil {
		return trackError("migrate", err)
	}

	if after == before {
		fmt.Printf("Schema already at version %.1f\n", after)
		return nil
	}

	applied := 0
	for _, m := range migrate.All() {
		if m.Version > before && m.Version <= after {
			applied++
		}
	}
	telemetryClient.TrackMigrationApplied(before, after, applied)
	fmt.Printf("Schema migrated %.1f -> %.1f\n", before, after)
	return nil
}
