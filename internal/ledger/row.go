package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire form of calendar dates.
const DateLayout = "2006-01-02"

// Side is the debit or credit side of a posting.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// ParseSide accepts debit/credit and the dr/cr abbreviations.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "dr", "d":
		return SideDebit, nil
	case "credit", "cr", "c":
		return SideCredit, nil
	}
	return "", fmt.Errorf("invalid side %q (want debit or credit)", s)
}

// Origin records where a row came from.
type Origin string

const (
	OriginServer     Origin = "server"
	OriginLocalCache Origin = "local-cache"
	OriginManual     Origin = "manual"
)

// Row is one debit-or-credit leg of a posting.
type Row struct {
	Date          time.Time       `json:"-"`
	Account       string          `json:"account"`
	Memo          string          `json:"memo"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Reference     string          `json:"reference,omitempty"`
	EntryNumber   string          `json:"entryNumber,omitempty"`
	Origin        Origin          `json:"source,omitempty"`
	Locked        bool            `json:"locked,omitempty"`
	OriginEntryID string          `json:"originEntryId,omitempty"`
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Side returns the side carrying the row's amount.
func (r Row) Side() Side {
	if r.Debit.IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// Amount returns the positive amount on the row's side.
func (r Row) Amount() decimal.Decimal {
	if r.Debit.IsPositive() {
		return r.Debit
	}
	return r.Credit
}

// DocumentRef returns the reference, falling back to the entry number.
func (r Row) DocumentRef() string {
	if r.Reference != "" {
		return r.Reference
	}
	return r.EntryNumber
}

// Validate checks the one-sided invariant and that the row names an account.
func (r Row) Validate() error {
	if strings.TrimSpace(r.Account) == "" {
		return ErrMissingAccount
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: row has no date", ErrInvalidDate)
	}
	if r.Debit.IsNegative() || r.Credit.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidRow)
	}
	if r.Debit.IsPositive() == r.Credit.IsPositive() {
		return fmt.Errorf("%w: debit=%s credit=%s", ErrInvalidRow, r.Debit, r.Credit)
	}
	return nil
}

type rowAlias Row

type rowJSON struct {
	Date string `json:"date"`
	rowAlias
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{Date: r.Date.Format(DateLayout), rowAlias: rowAlias(r)})
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var raw rowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Row(raw.rowAlias)
	if raw.Date != "" {
		d, err := parseWireDate(raw.Date)
		if err != nil {
			return err
		}
		r.Date = d
	}
	return nil
}

// parseWireDate accepts a bare date or a full ISO-8601 timestamp.
func parseWireDate(s string) (time.Time, error) {
	if d, err := ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Day(t), nil
}
