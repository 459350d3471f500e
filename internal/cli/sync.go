package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/api"
	"github.com/guardpost/fieldsync/internal/syncengine"
)

var syncWatch bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drain the sync queue against the backend",
	Long: `Drain the sync queue against the backend.

Runs one drain cycle: every pending item whose backoff window has
elapsed is uploaded, confirmed items leave the queue, transient failures
are retried on a later cycle.

With --watch the drain runs on the configured interval until
interrupted.

The bearer token is read from FIELDSYNC_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep draining on the configured interval")
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, store, err := openStore()
	if err != nil {
		return trackError("sync", err)
	}
	defer func() { _ = store.Close() }()

	token := api.StaticToken(os.Getenv("FIELDSYNC_TOKEN"))
	client := api.New(cfg.Remote.BaseURL, cfg.Remote.Timeout, token)
	engine := syncengine.New(store, client, cfg.Sync)

	if syncWatch {
		fmt.Printf("Watching sync queue (interval %s), Ctrl-C to stop\n", cfg.Sync.Interval)
		trigger := syncengine.NewTrigger(engine, cfg.Sync.Interval)
		trigger.SyncNow()
		trigger.Run(ctx)
		return nil
	}

	start := time.Now()
	result, err := engine.Drain(ctx)
	if err != nil {
		return trackError("sync", err)
	}

	telemetryClient.TrackSyncCycleCompleted(
		result.GetSuccessCount(),
		result.GetFailureCount(),
		result.Deferred,
		time.Since(start).Milliseconds(),
	)

	fmt.Printf("Synced %d item(s), %d failure(s)\n", result.GetSuccessCount(), result.GetFailureCount())
	for _, f := range result.Failures {
		marker := "retrying"
		if f.Terminal {
			marker = "terminal"
		}
		fmt.Printf("  %s %s/%s: %s\n", marker, f.EntityType, f.EntityID, f.Error)
	}
	return nil
}
