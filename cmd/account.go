package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/report"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

var (
	acctCreateCode        string
	acctCreateName        string
	acctCreateDescription string
	acctCreateCategory    string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		acct := ledger.Account{
			Code:        acctCreateCode,
			Name:        acctCreateName,
			Description: acctCreateDescription,
		}
		if acctCreateCategory != "" {
			cat, err := ledger.ParseCategory(acctCreateCategory)
			if err != nil {
				return err
			}
			acct.Category = cat
		}

		created, err := apiClient().CreateAccount(context.Background(), acct)
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s %s\n", created.Code, created.Name)
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"chart"},
	Short:   "List the effective chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		chart, err := apiClient().GetChart(context.Background())
		if err != nil {
			return err
		}
		if len(chart) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		row := "%-6s %-32s %-10s %-11s %s\n"
		fmt.Print(headerStyle.Render(fmt.Sprintf(row, "CODE", "NAME", "CATEGORY", "CLASS", "DESCRIPTION")))
		for _, a := range chart {
			class := "-"
			if ledger.IsBalanceSheet(a.Category) {
				class = "non-current"
				if a.Current {
					class = "current"
				}
			}
			fmt.Printf(row, a.Code, truncate(a.Name, 32), ledger.CategoryLabel(a.Category), class, truncate(a.Description, 40))
		}
		return nil
	},
}

var acctBalanceAsOf string

var accountBalanceCmd = &cobra.Command{
	Use:   "balance <code>",
	Short: "Show an account's balance as of a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().UTC()
		if acctBalanceAsOf != "" {
			d, err := ledger.ParseDate(acctBalanceAsOf)
			if err != nil {
				return err
			}
			date = d
		}

		tb, err := apiClient().TrialBalance(context.Background(), report.AsOfWindow(date))
		if err != nil {
			return err
		}
		for _, l := range tb.Lines {
			if l.Account != args[0] {
				continue
			}
			fmt.Printf("Account: %s %s\n", l.Account, l.Name)
			fmt.Printf("Debit:   %s\n", ledger.FormatLocale(l.EndingDebit))
			fmt.Printf("Credit:  %s\n", ledger.FormatLocale(l.EndingCredit))
			return nil
		}
		fmt.Printf("Account %s has no activity up to %s.\n", args[0], date.Format(ledger.DateLayout))
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete an unused account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Account code (digits; leading digit sets the category)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateDescription, "description", "", "Description")
	accountCreateCmd.Flags().StringVar(&acctCreateCategory, "category", "", "Category override")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")

	accountBalanceCmd.Flags().StringVar(&acctBalanceAsOf, "as-of", "", "Balance date (YYYY-MM-DD, default today)")

	accountCmd.AddCommand(accountCreateCmd, accountListCmd, accountBalanceCmd, accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}
