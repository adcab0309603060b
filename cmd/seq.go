package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var seqDate string

var seqCmd = &cobra.Command{
	Use:   "seq",
	Short: "Document number sequences",
}

var seqNextCmd = &cobra.Command{
	Use:   "next <prefix>",
	Short: "Issue the next document number for a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := apiClient().NextNumber(context.Background(), args[0], seqDate)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func init() {
	seqNextCmd.Flags().StringVar(&seqDate, "date", "", "Document date (YYYY-MM-DD, default today)")
	seqCmd.AddCommand(seqNextCmd)
	rootCmd.AddCommand(seqCmd)
}
