package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/patrol"
)

var (
	verifyLat float64
	verifyLon float64
)

var verifyCmd = &cobra.Command{
	Use:   "verify <checkpoint-id>",
	Short: "Verify a patrol checkpoint",
	Long: `Verify a patrol checkpoint.

Verifying the same checkpoint twice is a no-op: the existing
verification is reported as success. When a proximity radius is
configured, verifications outside it are rejected.

Examples:
  fieldsync verify 12 --phone +15550100 --lat 40.7 --lon -74.0`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
	verifyCmd.Flags().Float64Var(&verifyLat, "lat", 0, "latitude of the verification")
	verifyCmd.Flags().Float64Var(&verifyLon, "lon", 0, "longitude of the verification")
}

func runVerify(cmd *cobra.Command, args []string) error {
	checkpointID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return trackError("verify", fmt.Errorf("invalid checkpoint id %q", args[0]))
	}

	cfg, store, err := openStore()
	if err != nil {
		return trackError("verify", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("verify", err)
	}

	engine := patrol.New(store, cfg.Patrol.RadiusMeters)
	ver, err := engine.VerifyCheckpoint(user.ID, uint(checkpointID), time.Now(), verifyLat, verifyLon)
	if err != nil {
		return trackError("verify", err)
	}

	telemetryClient.TrackCheckpointVerified(cfg.Patrol.RadiusMeters > 0)
	fmt.Printf("Checkpoint %d verified at %s\n", ver.CheckpointID, ver.Timestamp.Format(time.RFC3339))
	return nil
}
