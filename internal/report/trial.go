package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

// Namer resolves an account code to its display name.
type Namer interface {
	Name(code string) string
}

type TrialBalanceLine struct {
	Account       string          `json:"account"`
	Name          string          `json:"name"`
	OpeningDebit  decimal.Decimal `json:"openingDebit"`
	OpeningCredit decimal.Decimal `json:"openingCredit"`
	PeriodDebit   decimal.Decimal `json:"periodDebit"`
	PeriodCredit  decimal.Decimal `json:"periodCredit"`
	EndingDebit   decimal.Decimal `json:"endingDebit"`
	EndingCredit  decimal.Decimal `json:"endingCredit"`
}

type TrialBalance struct {
	Window             Window             `json:"window"`
	Lines              []TrialBalanceLine `json:"lines"`
	TotalOpeningDebit  decimal.Decimal    `json:"totalOpeningDebit"`
	TotalOpeningCredit decimal.Decimal    `json:"totalOpeningCredit"`
	TotalPeriodDebit   decimal.Decimal    `json:"totalPeriodDebit"`
	TotalPeriodCredit  decimal.Decimal    `json:"totalPeriodCredit"`
	TotalEndingDebit   decimal.Decimal    `json:"totalEndingDebit"`
	TotalEndingCredit  decimal.Decimal    `json:"totalEndingCredit"`
	// Diff is TotalEndingDebit - TotalEndingCredit.
	Diff     decimal.Decimal `json:"diff"`
	Balanced bool            `json:"balanced"`
}

// NewTrialBalance builds the trial balance for the window. Opening and
// ending nets are placed on whichever column their sign falls on.
func NewTrialBalance(rows []ledger.Row, w Window, names Namer) (*TrialBalance, error) {
	balances, err := Aggregate(rows, "", w)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{
		Window:             w,
		Lines:              make([]TrialBalanceLine, 0, len(balances)),
		TotalOpeningDebit:  decimal.Zero,
		TotalOpeningCredit: decimal.Zero,
		TotalPeriodDebit:   decimal.Zero,
		TotalPeriodCredit:  decimal.Zero,
		TotalEndingDebit:   decimal.Zero,
		TotalEndingCredit:  decimal.Zero,
	}
	for _, b := range balances {
		line := TrialBalanceLine{
			Account:      b.Account,
			PeriodDebit:  b.PeriodDebit,
			PeriodCredit: b.PeriodCredit,
		}
		if names != nil {
			line.Name = names.Name(b.Account)
		}
		line.OpeningDebit, line.OpeningCredit = split(b.Opening())
		line.EndingDebit, line.EndingCredit = split(b.Ending())

		tb.TotalOpeningDebit = tb.TotalOpeningDebit.Add(line.OpeningDebit)
		tb.TotalOpeningCredit = tb.TotalOpeningCredit.Add(line.OpeningCredit)
		tb.TotalPeriodDebit = tb.TotalPeriodDebit.Add(line.PeriodDebit)
		tb.TotalPeriodCredit = tb.TotalPeriodCredit.Add(line.PeriodCredit)
		tb.TotalEndingDebit = tb.TotalEndingDebit.Add(line.EndingDebit)
		tb.TotalEndingCredit = tb.TotalEndingCredit.Add(line.EndingCredit)
		tb.Lines = append(tb.Lines, line)
	}
	tb.Diff = tb.TotalEndingDebit.Sub(tb.TotalEndingCredit)
	tb.Balanced = ledger.NearlyEqual(tb.TotalEndingDebit, tb.TotalEndingCredit)
	return tb, nil
}

// Warnings lists inconsistencies worth a banner. The book is never adjusted.
func (tb *TrialBalance) Warnings() []string {
	var out []string
	if !tb.Balanced {
		out = append(out, fmt.Sprintf("trial balance out of balance: ending debits %s, ending credits %s, diff %s",
			tb.TotalEndingDebit.StringFixed(2), tb.TotalEndingCredit.StringFixed(2), tb.Diff.StringFixed(2)))
	}
	if !ledger.NearlyEqual(tb.TotalPeriodDebit, tb.TotalPeriodCredit) {
		out = append(out, fmt.Sprintf("period movement out of balance: debits %s, credits %s",
			tb.TotalPeriodDebit.StringFixed(2), tb.TotalPeriodCredit.StringFixed(2)))
	}
	return out
}
