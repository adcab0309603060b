package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is a set of lines awaiting the balance check. Rate converts the
// entry currency to the base currency; zero means 1.
type Candidate struct {
	Currency string
	Rate     decimal.Decimal
	Lines    []Line
}

// NormalizedLine is a candidate line after account resolution and amount
// coercion.
type NormalizedLine struct {
	Account    string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	BaseDebit  decimal.Decimal
	BaseCredit decimal.Decimal
	Memo       string
	Rate       *decimal.Decimal
}

// Result is the outcome of Validate. Err wraps one of the sentinel errors
// when OK is false.
type Result struct {
	OK          bool             `json:"ok"`
	Reason      string           `json:"reason,omitempty"`
	Err         error            `json:"-"`
	Lines       []NormalizedLine `json:"-"`
	TotalDebit  decimal.Decimal  `json:"total_debit"`
	TotalCredit decimal.Decimal  `json:"total_credit"`
	BaseDebit   decimal.Decimal  `json:"base_debit"`
	BaseCredit  decimal.Decimal  `json:"base_credit"`
}

func reject(res Result, err error) Result {
	res.OK = false
	res.Err = err
	res.Reason = err.Error()
	return res
}

// EntryLines returns the normalized lines in the form stored on an entry:
// resolved codes, one positive side, blank lines dropped.
func (r Result) EntryLines() []Line {
	out := make([]Line, len(r.Lines))
	for i, nl := range r.Lines {
		out[i] = Line{Account: nl.Account, Debit: nl.Debit, Credit: nl.Credit, Memo: nl.Memo, Rate: nl.Rate}
	}
	return out
}

// Validator enforces the double-entry invariant on candidate entries. It holds
// no mutable state and never persists anything.
type Validator struct {
	Chart        *Chart
	BaseCurrency string
}

// NewValidator returns a validator resolving accounts against chart.
func NewValidator(chart *Chart, baseCurrency string) *Validator {
	return &Validator{Chart: chart, BaseCurrency: baseCurrency}
}

// Check is Validate for callers that only need an error.
func (v *Validator) Check(c Candidate) error {
	res := v.Validate(c)
	if res.OK {
		return nil
	}
	return res.Err
}

// Validate normalizes every line and checks that debits equal credits within
// Epsilon, both in entry currency and in base currency.
func (v *Validator) Validate(c Candidate) Result {
	res := Result{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		BaseDebit:   decimal.Zero,
		BaseCredit:  decimal.Zero,
	}

	if c.Currency != "" && !ValidCurrency(c.Currency) {
		return reject(res, fmt.Errorf("%w: %s", ErrInvalidCurrency, c.Currency))
	}
	entryRate := c.Rate
	if entryRate.IsZero() {
		entryRate = decimal.NewFromInt(1)
	}
	if entryRate.IsNegative() {
		return reject(res, fmt.Errorf("%w: %s", ErrInvalidRate, entryRate))
	}

	for i, l := range c.Lines {
		nl, skip, err := v.normalize(l, entryRate)
		if err != nil {
			return reject(res, fmt.Errorf("line %d: %w", i+1, err))
		}
		if skip {
			continue
		}
		res.Lines = append(res.Lines, nl)
		res.TotalDebit = res.TotalDebit.Add(nl.Debit)
		res.TotalCredit = res.TotalCredit.Add(nl.Credit)
		res.BaseDebit = res.BaseDebit.Add(nl.BaseDebit)
		res.BaseCredit = res.BaseCredit.Add(nl.BaseCredit)
	}

	if len(res.Lines) < 2 {
		return reject(res, fmt.Errorf("%w: got %d", ErrTooFewLines, len(res.Lines)))
	}
	if !NearlyEqual(res.TotalDebit, res.TotalCredit) {
		return reject(res, fmt.Errorf("%w: debit=%s credit=%s", ErrUnbalancedEntry, res.TotalDebit, res.TotalCredit))
	}
	if !NearlyEqual(res.BaseDebit, res.BaseCredit) {
		return reject(res, fmt.Errorf("%w: debit=%s credit=%s", ErrUnbalancedBase, res.BaseDebit, res.BaseCredit))
	}

	res.OK = true
	return res
}

// normalize resolves the account and coerces amounts. Negative amounts move to
// the opposite side. Blank lines are skipped.
func (v *Validator) normalize(l Line, entryRate decimal.Decimal) (NormalizedLine, bool, error) {
	debit, credit := l.Debit, l.Credit
	if debit.IsNegative() {
		credit = credit.Add(debit.Abs())
		debit = decimal.Zero
	}
	if credit.IsNegative() {
		debit = debit.Add(credit.Abs())
		credit = decimal.Zero
	}

	account := strings.TrimSpace(l.Account)
	if debit.IsZero() && credit.IsZero() {
		return NormalizedLine{}, true, nil
	}
	if debit.IsPositive() && credit.IsPositive() {
		return NormalizedLine{}, false, fmt.Errorf("%w: debit=%s credit=%s", ErrInconsistentSides, debit, credit)
	}
	if account == "" {
		return NormalizedLine{}, false, ErrMissingAccount
	}

	code := account
	if v.Chart != nil {
		resolved, ok := v.Chart.Resolve(account)
		if !ok {
			return NormalizedLine{}, false, fmt.Errorf("%w: %q", ErrMissingAccount, account)
		}
		code = resolved
	}
	if _, err := v.category(code); err != nil {
		return NormalizedLine{}, false, err
	}

	rate := entryRate
	var override *decimal.Decimal
	if l.Rate != nil && !l.Rate.IsZero() {
		if l.Rate.IsNegative() {
			return NormalizedLine{}, false, fmt.Errorf("%w: %s", ErrInvalidRate, l.Rate)
		}
		rate = *l.Rate
		r := *l.Rate
		override = &r
	}

	return NormalizedLine{
		Account:    code,
		Debit:      debit,
		Credit:     credit,
		BaseDebit:  debit.Mul(rate),
		BaseCredit: credit.Mul(rate),
		Memo:       l.Memo,
		Rate:       override,
	}, false, nil
}

func (v *Validator) category(code string) (Category, error) {
	if v.Chart != nil {
		return v.Chart.Category(code)
	}
	return CategoryForCode(code)
}

// IsValidationError reports whether err came from the balance check and should
// block persistence rather than be treated as an internal failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUnbalancedEntry, ErrUnbalancedBase, ErrTooFewLines, ErrMissingAccount,
		ErrInconsistentSides, ErrInvalidAccountCode, ErrInvalidRate, ErrInvalidCurrency,
		ErrInvalidRow, ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
