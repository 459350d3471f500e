package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardpost/fieldsync/internal/reports"
)

var (
	reportLat      float64
	reportLon      float64
	reportPage     int
	reportPageSize int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Create and list activity reports",
}

var reportAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Create an activity report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportAdd,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activity reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

func init() {
	reportAddCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
	reportAddCmd.Flags().Float64Var(&reportLat, "lat", 0, "latitude")
	reportAddCmd.Flags().Float64Var(&reportLon, "lon", 0, "longitude")

	reportListCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number of the acting user")
	reportListCmd.Flags().IntVar(&reportPage, "page", 1, "page number (1-based)")
	reportListCmd.Flags().IntVar(&reportPageSize, "page-size", 20, "items per page")

	reportCmd.AddCommand(reportAddCmd)
	reportCmd.AddCommand(reportListCmd)
}

func runReportAdd(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return trackError("add", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("add", err)
	}

	report, err := reports.New(store).Create(user.ID, args[0], time.Now(), reportLat, reportLon)
	if err != nil {
		return trackError("add", err)
	}

	fmt.Printf("Report %d created (queued for sync)\n", report.ID)
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return trackError("list", err)
	}
	defer func() { _ = store.Close() }()

	user, err := resolveUser(store)
	if err != nil {
		return trackError("list", err)
	}

	page, err := reports.New(store).List(user.ID, reportPage, reportPageSize)
	if err != nil {
		return trackError("list", err)
	}

	fmt.Printf("Page %d (%d total)\n", page.PageNumber, page.TotalCount)
	for _, r := range page.Items {
		marker := " "
		if r.IsSynced {
			marker = "*"
		}
		fmt.Printf("%s %d  %s  %s\n", marker, r.ID, r.Timestamp.Format("2006-01-02 15:04"), r.Text)
	}
	return nil
}
