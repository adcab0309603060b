package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Downstream inventory propagation",
}

var syncScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the row set and apply pending effects",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := apiClient().Scan(context.Background())
		if err != nil {
			return err
		}
		printScan(rep)
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last background scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := apiClient().SyncStatus(context.Background())
		if err != nil {
			return err
		}
		printScan(rep)
		return nil
	},
}

func printScan(rep *syncer.Report) {
	fmt.Printf("rows %d  applied %d  skipped %d  failed %d\n", rep.Rows, rep.Applied, rep.Skipped, rep.Failed)
	if rep.Cancelled {
		fmt.Println(warningStyle.Render("  ! scan was superseded before it finished"))
	}
	if rep.Failed > 0 {
		fmt.Println(warningStyle.Render("  ! failed effects stay pending and are retried on the next scan"))
	}
}

func init() {
	syncCmd.AddCommand(syncScanCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
