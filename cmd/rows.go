package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/merge"
)

var (
	rowsOrigin  string
	rowsAccount string
	rowsOverlay bool
)

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Inspect and draft ledger rows",
}

var rowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merged row set",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := apiClient().Rows(context.Background(), ledger.Origin(rowsOrigin), rowsAccount)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No rows.")
			return nil
		}

		row := "%-10s %-6s %13s %13s %-11s %-1s %-18s %s\n"
		fmt.Print(headerStyle.Render(fmt.Sprintf(row, "DATE", "ACCT", "DEBIT", "CREDIT", "SOURCE", "L", "REF/ENTRY", "MEMO")))
		for _, r := range rows {
			lock := ""
			if r.Locked {
				lock = "*"
			}
			fmt.Printf(row, r.Date.Format(ledger.DateLayout), r.Account, money(r.Debit), money(r.Credit),
				r.Origin, lock, truncate(r.DocumentRef(), 18), truncate(r.Memo, 40))
		}
		return nil
	},
}

var rowsAddCmd = &cobra.Command{
	Use:   "add <file.json>",
	Short: "Add rows from a JSON array file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		var rows []ledger.Row
		if err := json.NewDecoder(in).Decode(&rows); err != nil {
			return fmt.Errorf("decode rows: %w", err)
		}

		res, err := apiClient().AddRows(context.Background(), rows, rowsOverlay)
		if err != nil {
			return err
		}
		fmt.Printf("Added %d of %d rows (%d in set).\n", res.Added, len(rows), res.Total)
		return nil
	},
}

var rowsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the merge key of every manual row",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := apiClient().Rows(context.Background(), ledger.OriginManual, rowsAccount)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Println(merge.Key(r))
		}
		return nil
	},
}

var rowsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an unlocked manual row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteRow(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Row deleted.")
		return nil
	},
}

func init() {
	rowsListCmd.Flags().StringVar(&rowsOrigin, "origin", "", "Filter by origin (server, local-cache, manual)")
	rowsListCmd.Flags().StringVar(&rowsAccount, "account", "", "Filter by account code")
	rowsKeysCmd.Flags().StringVar(&rowsAccount, "account", "", "Filter by account code")
	rowsAddCmd.Flags().BoolVar(&rowsOverlay, "overlay", false, "Add as local-cache rows instead of manual drafts")
	rowsCmd.AddCommand(rowsListCmd, rowsAddCmd, rowsKeysCmd, rowsDeleteCmd)
	rootCmd.AddCommand(rowsCmd)
}
