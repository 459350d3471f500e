package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/models"
	"github.com/guardpost/fieldsync/internal/timeclock"
)

var (
	clockLat float64
	clockLon float64
)

var clockCmd = &cobra.Command{
	Use:   "clock <in|out>",
	Short: "Record a clock-in or clock-out event",
	Long: `Record a clock-in or clock-out event.

Events are stored locally and queued for sync. Clock-ins and clock-outs
must alternate; a duplicate is rejected.

Examples:
  fieldsync clock in --phone +15550100 --lat 40.7 --lon -74.0
  fieldsync clock out --phone +15550100 --lat 40.7 --lon -74.0`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"in", "out"},
	RunE:      runClock,
}

func init() {
	clockCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
	clockCmd.Flags().Float64Var(&clockLat, "lat", 0, "latitude of the event")
	clockCmd.Flags().Float64Var(&clockLon, "lon", 0, "longitude of the event")
}

func runClock(cmd *cobra.Command, args []string) error {
	clockType := models.ClockIn
	if args[0] == "out" {
		clockType = models.ClockOut
	}

	_, store, err := openStore()
	if err != nil {
		return trackError("clock", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("clock", err)
	}

	rec, err := timeclock.New(store).Clock(user.ID, clockType, time.Now(), clockLat, clockLon)
	if err != nil {
		return trackError("clock", err)
	}

	fmt.Printf("Recorded %s at %s (queued for sync)\n", rec.Type, rec.Timestamp.Format(time.RFC3339))
	return nil
}
