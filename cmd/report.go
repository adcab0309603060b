package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/report"
)

var (
	reportStart    string
	reportEnd      string
	reportAsOf     string
	reportUnclosed bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show period reports",
}

func reportWindow() (report.Window, error) {
	return report.ParseWindow(reportStart, reportEnd, reportAsOf)
}

var trialBalanceCmd = &cobra.Command{
	Use:     "trial-balance",
	Aliases: []string{"trial", "tb"},
	Short:   "Show trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := reportWindow()
		if err != nil {
			return err
		}
		tb, err := apiClient().TrialBalance(context.Background(), w)
		if err != nil {
			return err
		}
		printTrialBalance(&tb.TrialBalance, tb.Warnings)
		return nil
	},
}

var balanceSheetCmd = &cobra.Command{
	Use:     "balance-sheet",
	Aliases: []string{"bs", "balance"},
	Short:   "Show balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := reportWindow()
		if err != nil {
			return err
		}
		bs, err := apiClient().BalanceSheet(context.Background(), w, reportUnclosed)
		if err != nil {
			return err
		}
		printBalanceSheet(&bs.BalanceSheet, bs.Warnings)
		return nil
	},
}

var profitLossCmd = &cobra.Command{
	Use:     "profit-loss",
	Aliases: []string{"pnl"},
	Short:   "Show profit and loss",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := reportWindow()
		if err != nil {
			return err
		}
		pl, err := apiClient().ProfitAndLoss(context.Background(), w)
		if err != nil {
			return err
		}
		printProfitAndLoss(pl)
		return nil
	},
}

func printTrialBalance(tb *report.TrialBalance, warnings []string) {
	w := 120
	fmt.Println()
	fmt.Println(titleStyle.Render(center("TRIAL BALANCE", w)))
	fmt.Println(center(tb.Window.String(), w))
	fmt.Println()

	row := "  %-6s %-28s %13s %13s %13s %13s %13s %13s\n"
	fmt.Print(headerStyle.Render(fmt.Sprintf(row, "CODE", "NAME", "OPEN DR", "OPEN CR", "PERIOD DR", "PERIOD CR", "END DR", "END CR")))
	for _, l := range tb.Lines {
		fmt.Printf(row, l.Account, truncate(l.Name, 28),
			money(l.OpeningDebit), money(l.OpeningCredit),
			money(l.PeriodDebit), money(l.PeriodCredit),
			money(l.EndingDebit), money(l.EndingCredit))
	}
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Print(totalStyle.Render(fmt.Sprintf(row, "", "TOTALS",
		money(tb.TotalOpeningDebit), money(tb.TotalOpeningCredit),
		money(tb.TotalPeriodDebit), money(tb.TotalPeriodCredit),
		money(tb.TotalEndingDebit), money(tb.TotalEndingCredit))))

	fmt.Println()
	fmt.Println("  " + badge(tb.Balanced))
	printWarnings(warnings)
}

func printBalanceSheet(bs *report.BalanceSheet, warnings []string) {
	w := 60
	fmt.Println()
	fmt.Println(titleStyle.Render(center("BALANCE SHEET", w)))
	fmt.Println(center(bs.Window.String(), w))
	fmt.Println()

	for _, s := range bs.Sections {
		fmt.Println(headerStyle.Render("  " + strings.ToUpper(s.Name)))
		fmt.Printf("  %s\n", strings.Repeat("─", w-4))
		for _, l := range s.Lines {
			fmt.Printf("  %-6s %-*s%15s\n", l.Account, w-24, truncate(l.Name, 30), money(l.Amount))
		}
		fmt.Printf("%-*s%15s\n\n", w-15, "  Total "+s.Name, money(s.Total))
	}

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Print(totalStyle.Render(fmt.Sprintf("%-*s%15s\n", w-15, "  Total Assets", money(bs.TotalAssets))))
	fmt.Print(totalStyle.Render(fmt.Sprintf("%-*s%15s\n", w-15, "  Total L + E", money(bs.TotalLiabilities.Add(bs.TotalEquity)))))
	if !bs.Diff.IsZero() {
		fmt.Printf("%-*s%15s\n", w-15, "  Difference", money(bs.Diff))
	}

	fmt.Println()
	fmt.Println("  " + badge(bs.Balanced))
	printWarnings(warnings)
}

func printProfitAndLoss(pl *report.ProfitAndLoss) {
	w := 60
	fmt.Println()
	fmt.Println(titleStyle.Render(center("PROFIT AND LOSS", w)))
	fmt.Println(center(pl.Window.String(), w))
	fmt.Println()

	fmt.Println(headerStyle.Render("  REVENUE"))
	for _, l := range pl.Revenue {
		fmt.Printf("  %-6s %-*s%15s\n", l.Account, w-24, truncate(l.Name, 30), money(l.Net))
	}
	fmt.Printf("%-*s%15s\n\n", w-15, "  Total Revenue", money(pl.TotalRevenue))

	fmt.Println(headerStyle.Render("  EXPENSES"))
	for _, l := range pl.Expenses {
		fmt.Printf("  %-6s %-*s%15s\n", l.Account, w-24, truncate(l.Name, 30), money(l.Net.Neg()))
	}
	fmt.Printf("%-*s%15s\n\n", w-15, "  Total Expenses", money(pl.TotalExpense.Neg()))

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Print(totalStyle.Render(fmt.Sprintf("%-*s%15s\n", w-15, "  Net Income", money(pl.NetIncome))))
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportStart, "start", "", "Period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reportEnd, "end", "", "Period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reportAsOf, "as-of", "", "As-of date (YYYY-MM-DD); overrides --start/--end")
}

func init() {
	for _, c := range []*cobra.Command{trialBalanceCmd, balanceSheetCmd, profitLossCmd} {
		addWindowFlags(c)
		reportCmd.AddCommand(c)
	}
	balanceSheetCmd.Flags().BoolVar(&reportUnclosed, "unclosed-earnings", false, "Show un-closed P&L as an equity line")
	rootCmd.AddCommand(reportCmd)
}
