package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

const (
	SectionCurrentAssets         = "Current Assets"
	SectionNonCurrentAssets      = "Non-current Assets"
	SectionCurrentLiabilities    = "Current Liabilities"
	SectionNonCurrentLiabilities = "Non-current Liabilities"
	SectionEquity                = "Equity"
)

// UnclosedEarningsName labels the synthetic equity line added by
// WithUnclosedEarnings.
const UnclosedEarningsName = "Current period earnings"

type BalanceSheetLine struct {
	Account string          `json:"account"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
}

type BalanceSheetSection struct {
	Name     string             `json:"name"`
	Category ledger.Category    `json:"category"`
	Lines    []BalanceSheetLine `json:"lines"`
	Total    decimal.Decimal    `json:"total"`
}

type BalanceSheet struct {
	Window           Window                `json:"window"`
	Sections         []BalanceSheetSection `json:"sections"`
	TotalAssets      decimal.Decimal       `json:"totalAssets"`
	TotalLiabilities decimal.Decimal       `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal       `json:"totalEquity"`
	// Diff is TotalAssets - (TotalLiabilities + TotalEquity).
	Diff     decimal.Decimal `json:"diff"`
	Balanced bool            `json:"balanced"`
	Skipped  []string        `json:"skipped,omitempty"`
}

type bsOptions struct {
	unclosedEarnings bool
}

type BalanceSheetOption func(*bsOptions)

// WithUnclosedEarnings adds revenue and expense accounts that have not been
// closed to retained earnings as one synthetic equity line.
func WithUnclosedEarnings() BalanceSheetOption {
	return func(o *bsOptions) { o.unclosedEarnings = true }
}

// NewBalanceSheet groups ending balances of asset, liability and equity
// accounts into sections. Amounts carry the normal-balance sign. Accounts
// whose code yields no category are listed in Skipped.
func NewBalanceSheet(rows []ledger.Row, w Window, chart Chart, opts ...BalanceSheetOption) (*BalanceSheet, error) {
	var o bsOptions
	for _, opt := range opts {
		opt(&o)
	}

	balances, err := Aggregate(rows, "", w)
	if err != nil {
		return nil, err
	}

	sections := []BalanceSheetSection{
		{Name: SectionCurrentAssets, Category: ledger.CategoryAsset},
		{Name: SectionNonCurrentAssets, Category: ledger.CategoryAsset},
		{Name: SectionCurrentLiabilities, Category: ledger.CategoryLiability},
		{Name: SectionNonCurrentLiabilities, Category: ledger.CategoryLiability},
		{Name: SectionEquity, Category: ledger.CategoryEquity},
	}
	index := map[string]int{}
	for i, s := range sections {
		index[s.Name] = i
		sections[i].Total = decimal.Zero
		sections[i].Lines = []BalanceSheetLine{}
	}

	bs := &BalanceSheet{Window: w}
	earnings := decimal.Zero
	for _, b := range balances {
		cat, err := chart.Category(b.Account)
		if err != nil {
			bs.Skipped = append(bs.Skipped, b.Account)
			continue
		}
		if !ledger.IsBalanceSheet(cat) {
			earnings = earnings.Sub(b.Ending())
			continue
		}
		amount := b.NormalEnding(cat)
		if amount.IsZero() {
			continue
		}
		name := sectionFor(cat, chart.IsCurrent(b.Account))
		i := index[name]
		sections[i].Lines = append(sections[i].Lines, BalanceSheetLine{
			Account: b.Account,
			Name:    chart.Name(b.Account),
			Amount:  amount,
		})
		sections[i].Total = sections[i].Total.Add(amount)
	}

	if o.unclosedEarnings && !earnings.IsZero() {
		i := index[SectionEquity]
		sections[i].Lines = append(sections[i].Lines, BalanceSheetLine{Name: UnclosedEarningsName, Amount: earnings})
		sections[i].Total = sections[i].Total.Add(earnings)
	}

	bs.Sections = sections
	bs.TotalAssets = sections[0].Total.Add(sections[1].Total)
	bs.TotalLiabilities = sections[2].Total.Add(sections[3].Total)
	bs.TotalEquity = sections[4].Total
	bs.Diff = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.Balanced = bs.Diff.Abs().LessThan(ledger.Epsilon)
	return bs, nil
}

func sectionFor(cat ledger.Category, current bool) string {
	switch cat {
	case ledger.CategoryAsset:
		if current {
			return SectionCurrentAssets
		}
		return SectionNonCurrentAssets
	case ledger.CategoryLiability:
		if current {
			return SectionCurrentLiabilities
		}
		return SectionNonCurrentLiabilities
	default:
		return SectionEquity
	}
}

// Section returns the named section, or nil.
func (bs *BalanceSheet) Section(name string) *BalanceSheetSection {
	for i := range bs.Sections {
		if bs.Sections[i].Name == name {
			return &bs.Sections[i]
		}
	}
	return nil
}

func (bs *BalanceSheet) Warnings() []string {
	var out []string
	if !bs.Balanced {
		out = append(out, fmt.Sprintf("balance sheet does not balance: assets %s, liabilities and equity %s, diff %s",
			bs.TotalAssets.StringFixed(2), bs.TotalLiabilities.Add(bs.TotalEquity).StringFixed(2), bs.Diff.StringFixed(2)))
	}
	for _, code := range bs.Skipped {
		out = append(out, fmt.Sprintf("account %q has no category and was left out", code))
	}
	return out
}
