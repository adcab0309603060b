// Package report turns a merged row set into trial balance, balance sheet and
// profit and loss views. Every function is pure: it reads a snapshot of rows
// and returns an immutable view model. Sums use exact decimals, so the order
// of the input rows never changes a total.
package report

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

// Chart is the account metadata the views need. *ledger.Chart satisfies it.
type Chart interface {
	Name(code string) string
	Category(code string) (ledger.Category, error)
	IsCurrent(code string) bool
}

// Balance is the per-account aggregate for a window. Sums are raw; the
// normal-balance sign is applied only by the Normal* helpers.
type Balance struct {
	Account       string
	OpeningDebit  decimal.Decimal
	OpeningCredit decimal.Decimal
	PeriodDebit   decimal.Decimal
	PeriodCredit  decimal.Decimal
}

// Opening is the net debit-minus-credit before the window.
func (b Balance) Opening() decimal.Decimal {
	return b.OpeningDebit.Sub(b.OpeningCredit)
}

// Ending is Opening + PeriodDebit - PeriodCredit.
func (b Balance) Ending() decimal.Decimal {
	return b.Opening().Add(b.PeriodDebit).Sub(b.PeriodCredit)
}

// NormalOpening returns Opening signed by the category's normal side.
func (b Balance) NormalOpening(cat ledger.Category) decimal.Decimal {
	return normal(b.Opening(), cat)
}

// NormalEnding returns Ending signed by the category's normal side, so a
// revenue account with credits shows a positive balance.
func (b Balance) NormalEnding(cat ledger.Category) decimal.Decimal {
	return normal(b.Ending(), cat)
}

func normal(net decimal.Decimal, cat ledger.Category) decimal.Decimal {
	if ledger.NormalBalance(cat) == ledger.SideCredit {
		return net.Neg()
	}
	return net
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Account      string          `json:"account"`
		Opening      decimal.Decimal `json:"opening"`
		PeriodDebit  decimal.Decimal `json:"periodDebit"`
		PeriodCredit decimal.Decimal `json:"periodCredit"`
		Ending       decimal.Decimal `json:"ending"`
	}{b.Account, b.Opening(), b.PeriodDebit, b.PeriodCredit, b.Ending()})
}

// Aggregate accumulates rows per account for the window. An empty account
// means every account. The result is sorted by account code.
func Aggregate(rows []ledger.Row, account string, w Window) ([]Balance, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	byAccount := make(map[string]*Balance)
	for _, r := range rows {
		if account != "" && r.Account != account {
			continue
		}
		bk := w.classify(r.Date)
		if bk == bucketIgnore {
			continue
		}
		b, ok := byAccount[r.Account]
		if !ok {
			b = &Balance{
				Account:       r.Account,
				OpeningDebit:  decimal.Zero,
				OpeningCredit: decimal.Zero,
				PeriodDebit:   decimal.Zero,
				PeriodCredit:  decimal.Zero,
			}
			byAccount[r.Account] = b
		}
		switch bk {
		case bucketOpening:
			b.OpeningDebit = b.OpeningDebit.Add(r.Debit)
			b.OpeningCredit = b.OpeningCredit.Add(r.Credit)
		case bucketMovement:
			b.PeriodDebit = b.PeriodDebit.Add(r.Debit)
			b.PeriodCredit = b.PeriodCredit.Add(r.Credit)
		}
	}

	out := make([]Balance, 0, len(byAccount))
	for _, b := range byAccount {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

// split puts a net amount on the debit or credit column.
func split(net decimal.Decimal) (debit, credit decimal.Decimal) {
	if net.IsNegative() {
		return decimal.Zero, net.Neg()
	}
	return net, decimal.Zero
}
