// Package cli provides the command-line interface for fieldsync.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/migrate"
	"github.com/guardpost/fieldsync/internal/telemetry"
	"github.com/guardpost/fieldsync/pkg/version"
)

var telemetryClient telemetry.Client

var commandStartTime time.Time

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Offline-first field workforce sync",
	Long: `Offline-first data capture and sync for mobile patrol workforces.

Clock events, location pings, photos, activity reports and checkpoint
verifications are stored locally first and reconciled with the backend
through a durable sync queue.

Telemetry:
  Telemetry is enabled by default, always anonymous, and will never track
  personal information, location data, or IP addresses.

  Opt-out with:
  	FIELDSYNC_TELEMETRY_TRACKING_ENABLED=false`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "fieldsync" {
			durationMs := time.Since(commandStartTime).Milliseconds()
			telemetryClient.TrackCommandExecuted(cmd.Name(), durationMs)
		}
	},
}

func init() {
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI and tracks the session lifecycle around it.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc == nil {
		tc = telemetry.New(nil)
	}
	telemetryClient = tc
	rootCmd.Version = version.Short()

	sessionStart := time.Now()
	telemetryClient.TrackAppStarted("cli")

	err := rootCmd.ExecuteContext(ctx)

	telemetryClient.TrackAppExited("cli", time.Since(sessionStart).Milliseconds())
	return err
}

// openStore loads the config and opens a migrated client database.
// Callers must Close the returned store.
func openStore() (*config.Config, *db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	paths := config.GetPaths(cfg)
	store, err := db.Open(db.DefaultConfig(paths.Database))
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.Up(store); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return cfg, store, nil
}

// trackError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	telemetryClient.TrackCommandError(cmdName, classifyError(err))
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	switch {
	case errs.IsValidation(err):
		return "validation_error"
	case errs.IsNotFound(err):
		return "not_found_error"
	case errs.IsUnauthorized(err):
		return "unauthorized_error"
	case errs.IsConflict(err):
		return "conflict_error"
	case errs.IsTransient(err):
		return "network_error"
	case errs.IsStorage(err):
		return "database_error"
	case strings.Contains(strings.ToLower(err.Error()), "config"):
		return "config_error"
	default:
		return "unknown_error"
	}
}
