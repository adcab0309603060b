package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/client"
	"github.com/simonvc/ledgersync/internal/ledger"
)

var entryCmd = &cobra.Command{
	Use:     "entry",
	Aliases: []string{"je"},
	Short:   "Manage journal entries",
}

var (
	entryDate      string
	entryReference string
	entryMemo      string
	entryCurrency  string
	entryRate      string
	entryLines     []string // format: "account:debit:credit[:memo]"
)

// parseLine reads "account:debit:credit[:memo]". Blank amounts are zero.
func parseLine(s string) (ledger.Line, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return ledger.Line{}, fmt.Errorf("invalid line %q, expected account:debit:credit[:memo]", s)
	}
	debit, err := ledger.ParseAmount(parts[1])
	if err != nil {
		return ledger.Line{}, fmt.Errorf("invalid debit in %q: %w", s, err)
	}
	credit, err := ledger.ParseAmount(parts[2])
	if err != nil {
		return ledger.Line{}, fmt.Errorf("invalid credit in %q: %w", s, err)
	}
	l := ledger.Line{Account: strings.TrimSpace(parts[0]), Debit: debit, Credit: credit}
	if len(parts) == 4 {
		l.Memo = parts[3]
	}
	return l, nil
}

func entryRequest() (client.EntryRequest, error) {
	req := client.EntryRequest{
		Date:      entryDate,
		Reference: entryReference,
		Memo:      entryMemo,
		Currency:  entryCurrency,
	}
	if entryRate != "" {
		rate, err := ledger.ParseAmount(entryRate)
		if err != nil {
			return req, fmt.Errorf("invalid rate: %w", err)
		}
		req.Rate = rate
	}
	for _, s := range entryLines {
		l, err := parseLine(s)
		if err != nil {
			return req, err
		}
		req.Lines = append(req.Lines, l)
	}
	return req, nil
}

var entryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft journal entry",
	Long: "Create a draft entry. Each --line is \"account:debit:credit[:memo]\", e.g. \"1000:1000:\" and " +
		"\"Sales Revenue::1000\". Accounts may be codes, \"1000 - Cash\" labels or exact names.",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := entryRequest()
		if err != nil {
			return err
		}
		e, err := apiClient().CreateEntry(context.Background(), req)
		if err != nil {
			return err
		}
		printEntry(e)
		return nil
	},
}

var entryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an entry balances without saving it",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := entryRequest()
		if err != nil {
			return err
		}
		res, err := apiClient().Validate(context.Background(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Debit %s  Credit %s  (base %s / %s)\n",
			ledger.FormatLocale(res.TotalDebit), ledger.FormatLocale(res.TotalCredit),
			ledger.FormatLocale(res.BaseDebit), ledger.FormatLocale(res.BaseCredit))
		fmt.Println(badge(res.OK))
		if !res.OK {
			fmt.Println(warningStyle.Render("  ! " + res.Reason))
		}
		return nil
	},
}

var (
	quickDebit  string
	quickCredit string
	quickAmount string
)

var entryQuickCmd = &cobra.Command{
	Use:   "quick",
	Short: "Create a two-line draft entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := ledger.ParseAmount(quickAmount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		e, err := apiClient().QuickEntry(context.Background(), client.QuickEntryRequest{
			Date:          entryDate,
			DebitAccount:  quickDebit,
			CreditAccount: quickCredit,
			Amount:        amount,
			Memo:          entryMemo,
			Reference:     entryReference,
			Currency:      entryCurrency,
		})
		if err != nil {
			return err
		}
		printEntry(e)
		return nil
	},
}

var entryListStatus string

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := apiClient().ListEntries(context.Background(), ledger.Status(entryListStatus))
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}

		row := "%-36s %-18s %-10s %-9s %-12s %s\n"
		fmt.Print(headerStyle.Render(fmt.Sprintf(row, "ID", "NUMBER", "DATE", "STATUS", "REFERENCE", "MEMO")))
		for _, e := range entries {
			fmt.Printf(row, e.ID, e.Number, e.Date.Format(ledger.DateLayout), e.Status,
				truncate(e.Reference, 12), truncate(e.Memo, 30))
		}
		return nil
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := apiClient().GetEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		printEntry(e)
		return nil
	},
}

var entryApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a draft entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := apiClient().ApproveEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Entry %s approved.\n", e.Number)
		return nil
	},
}

var entryPostCmd = &cobra.Command{
	Use:   "post <id>",
	Short: "Post an approved entry to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := apiClient().PostEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Entry %s posted.\n", e.Number)
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry and its ledger rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteEntry(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Entry %s deleted.\n", args[0])
		return nil
	},
}

func printEntry(e *ledger.JournalEntry) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s  %s", e.Number, e.DisplayNumber)))
	fmt.Printf("ID:        %s\n", e.ID)
	fmt.Printf("Date:      %s\n", e.Date.Format(ledger.DateLayout))
	fmt.Printf("Status:    %s\n", e.Status)
	fmt.Printf("Currency:  %s @ %s\n", e.Currency, e.Rate)
	if e.Reference != "" {
		fmt.Printf("Reference: %s\n", e.Reference)
	}
	if e.Memo != "" {
		fmt.Printf("Memo:      %s\n", e.Memo)
	}
	fmt.Println()

	row := "  %-6s %15s %15s  %s\n"
	fmt.Print(headerStyle.Render(fmt.Sprintf(row, "ACCT", "DEBIT", "CREDIT", "MEMO")))
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		fmt.Printf(row, l.Account, money(l.Debit), money(l.Credit), l.Memo)
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	fmt.Print(totalStyle.Render(fmt.Sprintf(row, "", ledger.FormatAmount(debit, e.Currency), ledger.FormatAmount(credit, e.Currency), e.Currency)))
}

func init() {
	for _, c := range []*cobra.Command{entryCreateCmd, entryValidateCmd, entryQuickCmd} {
		c.Flags().StringVar(&entryDate, "date", "", "Entry date (YYYY-MM-DD, default today)")
		c.Flags().StringVar(&entryReference, "ref", "", "Document reference")
		c.Flags().StringVar(&entryMemo, "memo", "", "Memo")
		c.Flags().StringVar(&entryCurrency, "currency", "", "Currency code (default base currency)")
	}
	for _, c := range []*cobra.Command{entryCreateCmd, entryValidateCmd} {
		c.Flags().StringVar(&entryRate, "rate", "", "Exchange rate to base currency")
		c.Flags().StringArrayVar(&entryLines, "line", nil, "Line as account:debit:credit[:memo] (repeatable)")
		c.MarkFlagRequired("line")
	}

	entryQuickCmd.Flags().StringVar(&quickDebit, "debit", "", "Debit account")
	entryQuickCmd.Flags().StringVar(&quickCredit, "credit", "", "Credit account")
	entryQuickCmd.Flags().StringVar(&quickAmount, "amount", "", "Amount")
	entryQuickCmd.MarkFlagRequired("debit")
	entryQuickCmd.MarkFlagRequired("credit")
	entryQuickCmd.MarkFlagRequired("amount")

	entryListCmd.Flags().StringVar(&entryListStatus, "status", "", "Filter by status (draft, approved, posted)")

	entryCmd.AddCommand(entryCreateCmd, entryValidateCmd, entryQuickCmd, entryListCmd,
		entryShowCmd, entryApproveCmd, entryPostCmd, entryDeleteCmd)
	rootCmd.AddCommand(entryCmd)
}
