package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateBalanced(t *testing.T) {
	v := NewValidator(DefaultChart(), "USD")

	res := v.Validate(Candidate{Lines: []Line{
		{Account: "1000 - Cash on Hand", Debit: dec("100")},
		{Account: "4000", Credit: dec("60")},
		{Account: "Service Revenue", Credit: dec("40")},
		{},
	}})
	require.True(t, res.OK, res.Reason)
	require.Len(t, res.Lines, 3)
	assert.Equal(t, "1000", res.Lines[0].Account)
	assert.Equal(t, "4100", res.Lines[2].Account)
	assert.True(t, res.TotalDebit.Equal(dec("100")))
	assert.True(t, res.TotalCredit.Equal(dec("100")))
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator(DefaultChart(), "USD")

	tests := []struct {
		name  string
		cand  Candidate
		error error
	}{
		{
			name:  "single line",
			cand:  Candidate{Lines: []Line{{Account: "1000", Debit: dec("10")}, {Account: "4000"}}},
			error: ErrTooFewLines,
		},
		{
			name:  "missing account",
			cand:  Candidate{Lines: []Line{{Account: "1000", Debit: dec("10")}, {Credit: dec("10")}}},
			error: ErrMissingAccount,
		},
		{
			name:  "unknown account name",
			cand:  Candidate{Lines: []Line{{Account: "1000", Debit: dec("10")}, {Account: "Treasure Chest", Credit: dec("10")}}},
			error: ErrMissingAccount,
		},
		{
			name:  "both sides on one line",
			cand:  Candidate{Lines: []Line{{Account: "1000", Debit: dec("10"), Credit: dec("10")}, {Account: "4000", Credit: dec("10")}}},
			error: ErrInconsistentSides,
		},
		{
			name:  "off by a cent",
			cand:  Candidate{Lines: []Line{{Account: "1000", Debit: dec("10.00")}, {Account: "4000", Credit: dec("10.01")}}},
			error: ErrUnbalancedEntry,
		},
		{
			name:  "invalid code",
			cand:  Candidate{Lines: []Line{{Account: "0999", Debit: dec("10")}, {Account: "4000", Credit: dec("10")}}},
			error: ErrInvalidAccountCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.cand)
			assert.False(t, res.OK)
			assert.ErrorIs(t, res.Err, tt.error)
			assert.NotEmpty(t, res.Reason)
			assert.True(t, IsValidationError(res.Err))
		})
	}
}

func TestValidateWithinEpsilon(t *testing.T) {
	v := NewValidator(nil, "USD")
	res := v.Validate(Candidate{Lines: []Line{
		{Account: "1000", Debit: dec("10.004")},
		{Account: "4000", Credit: dec("10")},
	}})
	assert.True(t, res.OK, res.Reason)

	res = v.Validate(Candidate{Lines: []Line{
		{Account: "1000", Debit: dec("10.005")},
		{Account: "4000", Credit: dec("10")},
	}})
	assert.ErrorIs(t, res.Err, ErrUnbalancedEntry)
}

func TestValidateNegativeAmountsFlipSide(t *testing.T) {
	v := NewValidator(nil, "USD")
	res := v.Validate(Candidate{Lines: []Line{
		{Account: "1000", Debit: dec("50")},
		{Account: "4000", Debit: dec("-50")},
	}})
	require.True(t, res.OK, res.Reason)
	assert.True(t, res.Lines[1].Credit.Equal(dec("50")))
	assert.True(t, res.Lines[1].Debit.IsZero())
}

func TestValidateBaseCurrency(t *testing.T) {
	v := NewValidator(nil, "USD")

	// Balances nominally, but the per-line override breaks the base equality.
	override := dec("1.2")
	res := v.Validate(Candidate{Currency: "EUR", Rate: dec("1.1"), Lines: []Line{
		{Account: "1010", Debit: dec("100")},
		{Account: "4000", Credit: dec("100"), Rate: &override},
	}})
	assert.ErrorIs(t, res.Err, ErrUnbalancedBase)

	// Unbalanced nominally, balanced in base: still rejected.
	half := dec("0.5")
	res = v.Validate(Candidate{Currency: "EUR", Lines: []Line{
		{Account: "1010", Debit: dec("50")},
		{Account: "4000", Credit: dec("100"), Rate: &half},
	}})
	assert.ErrorIs(t, res.Err, ErrUnbalancedEntry)

	res = v.Validate(Candidate{Currency: "EUR", Rate: dec("1.1"), Lines: []Line{
		{Account: "1010", Debit: dec("100")},
		{Account: "4000", Credit: dec("100")},
	}})
	require.True(t, res.OK, res.Reason)
	assert.True(t, res.BaseDebit.Equal(dec("110")))
}

func TestQuickEntryUsesSameValidator(t *testing.T) {
	v := NewValidator(DefaultChart(), "USD")
	q := QuickEntry{Date: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), DebitAccount: "5100", CreditAccount: "1010", Amount: dec("75")}

	assert.NoError(t, v.Check(q.Candidate()))

	q.CreditAccount = ""
	assert.ErrorIs(t, v.Check(q.Candidate()), ErrMissingAccount)

	e := QuickEntry{Date: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), DebitAccount: "5100", CreditAccount: "1010", Amount: dec("75")}.Entry()
	assert.Equal(t, MustDate("2025-01-10"), e.Date)
	assert.Equal(t, StatusDraft, e.Status)
	assert.Len(t, e.Lines, 2)
}

func TestEntryLinesNormalized(t *testing.T) {
	v := NewValidator(DefaultChart(), "USD")
	rate := dec("2")
	res := v.Validate(Candidate{Currency: "EUR", Rate: rate, Lines: []Line{
		{Account: "1000 - Cash on Hand", Debit: dec("-40")},
		{},
		{Account: "Sales Revenue", Debit: dec("40"), Rate: &rate},
	}})
	require.True(t, res.OK, res.Reason)
	assert.True(t, res.BaseDebit.Equal(dec("80")))
	assert.True(t, res.BaseCredit.Equal(dec("80")))

	lines := res.EntryLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1000", lines[0].Account)
	assert.True(t, lines[0].Credit.Equal(dec("40")))
	assert.True(t, lines[0].Debit.IsZero())
	assert.Equal(t, "4000", lines[1].Account)
	require.NotNil(t, lines[1].Rate)
	assert.True(t, lines[1].Rate.Equal(rate))
}
