package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(date, account, debit, credit string) ledger.Row {
	return ledger.Row{
		Date:    ledger.MustDate(date),
		Account: account,
		Debit:   dec(debit),
		Credit:  dec(credit),
		Origin:  ledger.OriginServer,
	}
}

func january() Window {
	return PeriodWindow(ledger.MustDate("2025-01-01"), ledger.MustDate("2025-01-31"))
}

func cashSale() []ledger.Row {
	return []ledger.Row{
		row("2025-01-10", "1000", "1000", "0"),
		row("2025-01-10", "4000", "0", "1000"),
	}
}

func find(t *testing.T, bs []Balance, account string) Balance {
	t.Helper()
	for _, b := range bs {
		if b.Account == account {
			return b
		}
	}
	t.Fatalf("account %s not aggregated", account)
	return Balance{}
}

func TestAggregateCashSale(t *testing.T) {
	balances, err := Aggregate(cashSale(), "", january())
	require.NoError(t, err)
	require.Len(t, balances, 2)

	cash := find(t, balances, "1000")
	assert.True(t, cash.Opening().IsZero())
	assert.True(t, cash.PeriodDebit.Equal(dec("1000")))
	assert.True(t, cash.PeriodCredit.IsZero())
	assert.True(t, cash.Ending().Equal(dec("1000")))

	sales := find(t, balances, "4000")
	assert.True(t, sales.Opening().IsZero())
	assert.True(t, sales.PeriodCredit.Equal(dec("1000")))
	assert.True(t, sales.NormalEnding(ledger.CategoryRevenue).Equal(dec("1000")))
	assert.True(t, sales.Ending().Equal(dec("-1000")))
}

func TestAggregatePeriodBuckets(t *testing.T) {
	rows := []ledger.Row{
		row("2024-12-31", "1000", "50", "0"),
		row("2025-01-01", "1000", "10", "0"),
		row("2025-01-31", "1000", "0", "5"),
		row("2025-02-01", "1000", "999", "0"),
	}
	balances, err := Aggregate(rows, "1000", january())
	require.NoError(t, err)
	require.Len(t, balances, 1)

	b := balances[0]
	assert.True(t, b.Opening().Equal(dec("50")))
	assert.True(t, b.PeriodDebit.Equal(dec("10")))
	assert.True(t, b.PeriodCredit.Equal(dec("5")))
	assert.True(t, b.Ending().Equal(dec("55")))
}

func TestAggregateAsOf(t *testing.T) {
	rows := []ledger.Row{
		row("2025-03-01", "1000", "100", "0"),
		row("2025-03-02", "1000", "0", "30"),
		row("2025-03-03", "1000", "7", "0"),
	}
	balances, err := Aggregate(rows, "", AsOfWindow(ledger.MustDate("2025-03-02")))
	require.NoError(t, err)
	require.Len(t, balances, 1)

	b := balances[0]
	assert.True(t, b.Opening().Equal(dec("100")))
	assert.True(t, b.PeriodCredit.Equal(dec("30")))
	assert.True(t, b.Ending().Equal(dec("70")))
}

func TestAggregateFiltersAccount(t *testing.T) {
	balances, err := Aggregate(cashSale(), "4000", january())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "4000", balances[0].Account)
}

func TestAggregateOrderIndependent(t *testing.T) {
	rows := []ledger.Row{
		row("2025-01-02", "1000", "0.1", "0"),
		row("2025-01-03", "1000", "0.2", "0"),
		row("2024-12-03", "1000", "0.3", "0"),
		row("2025-01-04", "2000", "0", "0.6"),
	}
	reversed := make([]ledger.Row, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}

	a, err := Aggregate(rows, "", january())
	require.NoError(t, err)
	b, err := Aggregate(reversed, "", january())
	require.NoError(t, err)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Account, b[i].Account)
		assert.True(t, a[i].Ending().Equal(b[i].Ending()))
	}
}

func TestAggregateEndingInvariant(t *testing.T) {
	rows := []ledger.Row{
		row("2024-11-01", "2000", "0", "400"),
		row("2024-12-15", "2000", "150", "0"),
		row("2025-01-05", "2000", "0", "75.25"),
		row("2025-01-20", "2000", "20", "0"),
	}
	balances, err := Aggregate(rows, "", january())
	require.NoError(t, err)
	for _, b := range balances {
		want := b.Opening().Add(b.PeriodDebit).Sub(b.PeriodCredit)
		assert.True(t, b.Ending().Equal(want))
	}
}

func TestAggregateRejectsBadWindow(t *testing.T) {
	_, err := Aggregate(cashSale(), "", PeriodWindow(ledger.MustDate("2025-02-01"), ledger.MustDate("2025-01-01")))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Aggregate(cashSale(), "", Window{Mode: "WEEKLY"})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("", "", "2025-06-30")
	require.NoError(t, err)
	assert.Equal(t, ModeAsOf, w.Mode)

	w, err = ParseWindow("2025-01-01", "2025-01-31", "")
	require.NoError(t, err)
	assert.Equal(t, ModePeriod, w.Mode)
	assert.Equal(t, "2025-01-01 to 2025-01-31", w.String())

	_, err = ParseWindow("2025-01-01", "", "")
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = ParseWindow("yesterday", "2025-01-31", "")
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestTrialBalance(t *testing.T) {
	rows := append(cashSale(),
		row("2024-12-01", "1000", "500", "0"),
		row("2024-12-01", "3000", "0", "500"),
	)
	tb, err := NewTrialBalance(rows, january(), ledger.DefaultChart())
	require.NoError(t, err)
	require.Len(t, tb.Lines, 3)

	assert.Equal(t, "Cash on Hand", tb.Lines[0].Name)
	assert.True(t, tb.Lines[0].OpeningDebit.Equal(dec("500")))
	assert.True(t, tb.Lines[0].EndingDebit.Equal(dec("1500")))
	assert.True(t, tb.Lines[1].EndingCredit.Equal(dec("500")))
	assert.True(t, tb.Lines[2].EndingCredit.Equal(dec("1000")))

	assert.True(t, tb.Balanced)
	assert.True(t, tb.Diff.IsZero())
	assert.Empty(t, tb.Warnings())
}

func TestTrialBalanceSurfacesImbalance(t *testing.T) {
	rows := append(cashSale(), row("2025-01-15", "1200", "40", "0"))
	tb, err := NewTrialBalance(rows, january(), nil)
	require.NoError(t, err)

	assert.False(t, tb.Balanced)
	assert.True(t, tb.Diff.Equal(dec("40")))
	assert.Len(t, tb.Warnings(), 2)
}

func TestBalanceSheetCashSale(t *testing.T) {
	bs, err := NewBalanceSheet(cashSale(), january(), ledger.DefaultChart())
	require.NoError(t, err)

	assert.True(t, bs.TotalAssets.Equal(dec("1000")))
	assert.True(t, bs.TotalLiabilities.IsZero())
	assert.True(t, bs.TotalEquity.IsZero())
	// Revenue not yet closed to retained earnings leaves the sheet open.
	assert.False(t, bs.Balanced)
	assert.True(t, bs.Diff.Equal(dec("1000")))

	current := bs.Section(SectionCurrentAssets)
	require.NotNil(t, current)
	require.Len(t, current.Lines, 1)
	assert.Equal(t, "1000", current.Lines[0].Account)
}

func TestBalanceSheetUnclosedEarnings(t *testing.T) {
	bs, err := NewBalanceSheet(cashSale(), january(), ledger.DefaultChart(), WithUnclosedEarnings())
	require.NoError(t, err)

	assert.True(t, bs.TotalEquity.Equal(dec("1000")))
	assert.True(t, bs.Balanced)
	assert.True(t, bs.Diff.IsZero())
	eq := bs.Section(SectionEquity)
	require.Len(t, eq.Lines, 1)
	assert.Equal(t, UnclosedEarningsName, eq.Lines[0].Name)
}

func TestBalanceSheetDiff(t *testing.T) {
	balanced := []ledger.Row{
		row("2025-01-02", "1000", "800", "0"),
		row("2025-01-02", "3000", "0", "500"),
		row("2025-01-02", "2500", "0", "300"),
		row("2025-01-03", "1500", "200", "0"),
		row("2025-01-03", "2000", "0", "200"),
	}
	bs, err := NewBalanceSheet(balanced, january(), ledger.DefaultChart())
	require.NoError(t, err)
	assert.True(t, bs.Balanced)
	assert.True(t, bs.Diff.IsZero())
	assert.True(t, bs.TotalAssets.Equal(dec("1000")))
	assert.Len(t, bs.Section(SectionNonCurrentAssets).Lines, 1)
	assert.Len(t, bs.Section(SectionNonCurrentLiabilities).Lines, 1)
	assert.Len(t, bs.Section(SectionCurrentLiabilities).Lines, 1)
	assert.Empty(t, bs.Warnings())

	injected := append(balanced, row("2025-01-20", "1200", "75", "0"))
	bs, err = NewBalanceSheet(injected, january(), ledger.DefaultChart())
	require.NoError(t, err)
	assert.False(t, bs.Balanced)
	assert.True(t, bs.Diff.Equal(dec("75")))
	assert.NotEmpty(t, bs.Warnings())
}

func TestBalanceSheetSkipsInvalidCodes(t *testing.T) {
	rows := []ledger.Row{row("2025-01-02", "0999", "10", "0")}
	bs, err := NewBalanceSheet(rows, january(), ledger.DefaultChart())
	require.NoError(t, err)
	assert.Equal(t, []string{"0999"}, bs.Skipped)
}

func TestProfitAndLoss(t *testing.T) {
	rows := append(cashSale(),
		row("2025-01-12", "5100", "250", "0"),
		row("2025-01-12", "1000", "0", "250"),
		row("2024-12-12", "4000", "0", "9000"),
		row("2024-12-12", "1000", "9000", "0"),
	)
	pl, err := NewProfitAndLoss(rows, january(), ledger.DefaultChart())
	require.NoError(t, err)

	require.Len(t, pl.Revenue, 1)
	assert.True(t, pl.Revenue[0].Net.Equal(dec("1000")))
	require.Len(t, pl.Expenses, 1)
	assert.True(t, pl.Expenses[0].Net.Equal(dec("-250")))
	assert.True(t, pl.TotalRevenue.Equal(dec("1000")))
	assert.True(t, pl.TotalExpense.Equal(dec("-250")))
	assert.True(t, pl.NetIncome.Equal(dec("750")))
}

func TestProfitAndLossCashSale(t *testing.T) {
	pl, err := NewProfitAndLoss(cashSale(), january(), ledger.DefaultChart())
	require.NoError(t, err)
	assert.True(t, pl.TotalRevenue.Equal(dec("1000")))
	assert.True(t, pl.NetIncome.Equal(dec("1000")))
}

func TestProfitAndLossAsOfIsCumulative(t *testing.T) {
	rows := []ledger.Row{
		row("2024-12-12", "4000", "0", "9000"),
		row("2025-01-10", "4000", "0", "1000"),
	}
	pl, err := NewProfitAndLoss(rows, AsOfWindow(ledger.MustDate("2025-01-10")), ledger.DefaultChart())
	require.NoError(t, err)
	assert.True(t, pl.NetIncome.Equal(dec("10000")))
}

func TestTrialBalanceCSV(t *testing.T) {
	tb, err := NewTrialBalance([]ledger.Row{
		row("2025-01-10", "1000", "1234.5", "0"),
		row("2025-01-10", "4000", "0", "1234.5"),
	}, january(), ledger.DefaultChart())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrialBalanceCSV(&buf, tb))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, TrialBalanceHeader, records[0])
	assert.Equal(t, []string{"1000", "Cash on Hand", "0,00", "0,00", "1.234,50", "0,00", "1.234,50", "0,00"}, records[1])
	assert.Equal(t, "TOTAL", records[3][0])
}

func TestBalanceSheetCSV(t *testing.T) {
	bs, err := NewBalanceSheet(cashSale(), january(), ledger.DefaultChart())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBalanceSheetCSV(&buf, bs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// header + one line + five TOTAL rows + CHECK
	require.Len(t, records, 8)
	assert.Equal(t, []string{SectionCurrentAssets, "1000", "Cash on Hand", "1.000,00"}, records[1])
	assert.Equal(t, []string{SectionCurrentAssets, "TOTAL", "", "1.000,00"}, records[2])
	last := records[len(records)-1]
	assert.Equal(t, "CHECK", last[0])
	assert.Equal(t, "1.000,00", last[3])
}

func TestGeneralLedgerCSV(t *testing.T) {
	r := row("2025-01-10", "1000", "1000", "0")
	r.Memo = "Cash sale"
	r.Reference = "INV-0001"
	r.EntryNumber = "JE-20250110-0001"

	var buf bytes.Buffer
	require.NoError(t, WriteGeneralLedgerCSV(&buf, []ledger.Row{r}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, GeneralLedgerHeader, records[0])
	assert.Equal(t, []string{"2025-01-10", "1000", "Cash sale", "1.000,00", "0,00", "INV-0001", "JE-20250110-0001"}, records[1])
}
