package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/timeclock"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show clock state and sync queue health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return trackError("status", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("status", err)
	}

	clockedIn, latest, err := timeclock.New(store).Status(user.ID)
	if err != nil {
		return trackError("status", err)
	}
	if clockedIn {
		fmt.Printf("Clocked in since %s\n", latest.Timestamp.Format(time.RFC3339))
	} else {
		fmt.Println("Not clocked in")
	}

	pending, err := store.CountSyncQueue()
	if err != nil {
		return trackError("status", err)
	}
	fmt.Printf("Sync queue: %d pending item(s)\n", pending)

	failed, err := store.GetFailedSyncItems(cfg.Sync.MaxRetries)
	if err != nil {
		return trackError("status", err)
	}
	if len(failed) > 0 {
		fmt.Printf("%d item(s) failed permanently:\n", len(failed))
		for _, item := range failed {
			fmt.Printf("  %s/%s: %s\n", item.EntityType, item.EntityID, item.ErrorMessage)
		}
	}
	return nil
}
