package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/locations"
)

var (
	pingLat      float64
	pingLon      float64
	pingAccuracy float64
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Record and inspect location pings",
}

var locationPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Record one location ping",
	Args:  cobra.NoArgs,
	RunE:  runLocationPing,
}

var locationCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the most recent recorded position",
	Args:  cobra.NoArgs,
	RunE:  runLocationCurrent,
}

func init() {
	locationPingCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
	locationPingCmd.Flags().Float64Var(&pingLat, "lat", 0, "latitude")
	locationPingCmd.Flags().Float64Var(&pingLon, "lon", 0, "longitude")
	locationPingCmd.Flags().Float64Var(&pingAccuracy, "accuracy", 0, "reported accuracy in meters")

	locationCurrentCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")

	locationCmd.AddCommand(locationPingCmd)
	locationCmd.AddCommand(locationCurrentCmd)
}

func runLocationPing(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return trackError("ping", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("ping", err)
	}

	outcome, err := locations.New(store).RecordBatch(user.ID, []locations.Ping{{
		Timestamp: time.Now(),
		Latitude:  pingLat,
		Longitude: pingLon,
		Accuracy:  pingAccuracy,
	}})
	if err != nil {
		return trackError("ping", err)
	}
	if outcome.HasFailures() {
		return trackError("ping", fmt.Errorf("ping rejected: %s", outcome.Errors[0].Error))
	}

	fmt.Println("Location recorded (queued for sync)")
	return nil
}

func runLocationCurrent(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return trackError("current", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("current", err)
	}

	rec, err := locations.New(store).Current(user.ID)
	if err != nil {
		return trackError("current", err)
	}

	fmt.Printf("(%f, %f) at %s\n", rec.Latitude, rec.Longitude, rec.Timestamp.Format(time.RFC3339))
	return nil
}
