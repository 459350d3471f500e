package cli

import (
	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/migrate"
	"github.com/guardpost/fieldsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend API server",
	Long: `Run the backend API server.

The server ingests device uploads idempotently and serves patrol
reference data. It keeps its own database file, separate from the
client store.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return trackError("serve", err)
	}

	paths := config.GetPaths(cfg)
	store, err := db.Open(db.DefaultConfig(paths.ServerDB))
	if err != nil {
		return trackError("serve", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := migrate.Up(store); err != nil {
		return trackError("serve", err)
	}

	srv := server.New(&cfg.Server, store, paths.Photos)
	return trackError("serve", srv.Start(cmd.Context()))
}
