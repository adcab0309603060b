package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOut     string
	exportAccount string
)

var exportCmd = &cobra.Command{
	Use:       "export <trial-balance|balance-sheet|general-ledger>",
	Short:     "Export a report as CSV",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"trial-balance", "balance-sheet", "general-ledger"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cobra.OnlyValidArgs(cmd, args); err != nil {
			return err
		}
		w, err := reportWindow()
		if err != nil && args[0] != "general-ledger" {
			return err
		}
		data, err := apiClient().ExportCSV(context.Background(), args[0], w, exportAccount)
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d bytes)\n", exportOut, len(data))
		return nil
	},
}

func init() {
	addWindowFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportAccount, "account", "", "General ledger: only this account")
	rootCmd.AddCommand(exportCmd)
}
