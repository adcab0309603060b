package report

import (
	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

type ProfitAndLossLine struct {
	Account  string          `json:"account"`
	Name     string          `json:"name"`
	Category ledger.Category `json:"category"`
	// Net is credit minus debit: revenue positive, expense negative.
	Net decimal.Decimal `json:"net"`
}

type ProfitAndLoss struct {
	Window       Window              `json:"window"`
	Revenue      []ProfitAndLossLine `json:"revenue"`
	Expenses     []ProfitAndLossLine `json:"expenses"`
	TotalRevenue decimal.Decimal     `json:"totalRevenue"`
	TotalExpense decimal.Decimal     `json:"totalExpense"`
	NetIncome    decimal.Decimal     `json:"netIncome"`
}

// NewProfitAndLoss nets revenue and expense accounts. A PERIOD window uses
// the movement inside the window; an AS_OF window uses the cumulative
// balance up to and including the date.
func NewProfitAndLoss(rows []ledger.Row, w Window, chart Chart) (*ProfitAndLoss, error) {
	balances, err := Aggregate(rows, "", w)
	if err != nil {
		return nil, err
	}

	pl := &ProfitAndLoss{
		Window:       w,
		Revenue:      []ProfitAndLossLine{},
		Expenses:     []ProfitAndLossLine{},
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
		NetIncome:    decimal.Zero,
	}
	for _, b := range balances {
		cat, err := chart.Category(b.Account)
		if err != nil || ledger.IsBalanceSheet(cat) {
			continue
		}
		net := b.PeriodCredit.Sub(b.PeriodDebit)
		if w.Mode == ModeAsOf {
			net = b.Ending().Neg()
		}
		if net.IsZero() {
			continue
		}
		line := ProfitAndLossLine{Account: b.Account, Name: chart.Name(b.Account), Category: cat, Net: net}
		if cat == ledger.CategoryRevenue {
			pl.Revenue = append(pl.Revenue, line)
			pl.TotalRevenue = pl.TotalRevenue.Add(net)
		} else {
			pl.Expenses = append(pl.Expenses, line)
			pl.TotalExpense = pl.TotalExpense.Add(net)
		}
		pl.NetIncome = pl.NetIncome.Add(net)
	}
	return pl, nil
}
