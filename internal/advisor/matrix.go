package advisor

import (
	"github.com/simonvc/ledgersync/internal/ledger"
)

// Pair is an allowed (debit category, credit category) combination.
type Pair struct {
	Debit  ledger.Category
	Credit ledger.Category
}

// DefaultPairs is the compliance rule set. Every permitted posting pattern is
// listed once; the matrix for both sides is derived from it, so a pair allowed
// from the debit side is always allowed from the credit side too.
var DefaultPairs = []Pair{
	{ledger.CategoryAsset, ledger.CategoryAsset},         // transfer between cash accounts
	{ledger.CategoryAsset, ledger.CategoryLiability},     // borrowing, customer deposit
	{ledger.CategoryAsset, ledger.CategoryEquity},        // capital injection
	{ledger.CategoryAsset, ledger.CategoryRevenue},       // cash or credit sale
	{ledger.CategoryAsset, ledger.CategoryExpense},       // expense refund
	{ledger.CategoryLiability, ledger.CategoryAsset},     // paying a supplier
	{ledger.CategoryLiability, ledger.CategoryLiability}, // refinancing
	{ledger.CategoryLiability, ledger.CategoryRevenue},   // unearned revenue recognised
	{ledger.CategoryLiability, ledger.CategoryExpense},   // accrual reversal
	{ledger.CategoryEquity, ledger.CategoryAsset},        // drawings
	{ledger.CategoryEquity, ledger.CategoryLiability},    // dividend declared
	{ledger.CategoryEquity, ledger.CategoryEquity},       // reserve transfer
	{ledger.CategoryRevenue, ledger.CategoryAsset},       // sales return paid out
	{ledger.CategoryRevenue, ledger.CategoryLiability},   // sales return credited to customer
	{ledger.CategoryExpense, ledger.CategoryAsset},       // paid expense
	{ledger.CategoryExpense, ledger.CategoryLiability},   // accrued expense
}

// Matrix maps (side, category) to the categories permitted on the opposite
// side.
type Matrix map[ledger.Side]map[ledger.Category][]ledger.Category

// NewMatrix derives the two-sided matrix from a pair list.
func NewMatrix(pairs []Pair) Matrix {
	m := Matrix{
		ledger.SideDebit:  make(map[ledger.Category][]ledger.Category),
		ledger.SideCredit: make(map[ledger.Category][]ledger.Category),
	}
	for _, p := range pairs {
		m[ledger.SideDebit][p.Debit] = appendUnique(m[ledger.SideDebit][p.Debit], p.Credit)
		m[ledger.SideCredit][p.Credit] = appendUnique(m[ledger.SideCredit][p.Credit], p.Debit)
	}
	for _, bySide := range m {
		for cat, allowed := range bySide {
			bySide[cat] = ordered(allowed)
		}
	}
	return m
}

// Permitted returns the categories allowed opposite a posting on side to a
// category.
func (m Matrix) Permitted(side ledger.Side, cat ledger.Category) []ledger.Category {
	allowed := m[side][cat]
	out := make([]ledger.Category, len(allowed))
	copy(out, allowed)
	return out
}

// Permits reports whether debiting debit against crediting credit is allowed.
func (m Matrix) Permits(debit, credit ledger.Category) bool {
	for _, c := range m[ledger.SideDebit][debit] {
		if c == credit {
			return true
		}
	}
	return false
}

func appendUnique(list []ledger.Category, c ledger.Category) []ledger.Category {
	for _, x := range list {
		if x == c {
			return list
		}
	}
	return append(list, c)
}

// ordered sorts categories in chart order.
func ordered(list []ledger.Category) []ledger.Category {
	out := make([]ledger.Category, 0, len(list))
	for _, c := range ledger.AllCategories {
		for _, x := range list {
			if x == c {
				out = append(out, c)
			}
		}
	}
	return out
}
