package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/simonvc/ledgersync/internal/ledger"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	totalStyle   = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	goodBadge    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	badBadge     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1)
)

func badge(balanced bool) string {
	if balanced {
		return goodBadge.Render("BALANCED")
	}
	return badBadge.Render("UNBALANCED")
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

// money renders blank for zero and parentheses for negatives.
func money(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	if d.IsNegative() {
		return "(" + ledger.FormatLocale(d.Neg()) + ")"
	}
	return ledger.FormatLocale(d)
}

func printWarnings(ws []string) {
	for _, w := range ws {
		fmt.Println(warningStyle.Render("  ! " + w))
	}
}
