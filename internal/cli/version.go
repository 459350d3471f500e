package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
