package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a journal entry.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusPosted   Status = "posted"
)

// Line is one line of a journal entry as composed on a form.
// Rate overrides the entry-level exchange rate when set.
type Line struct {
	Account string           `json:"account"`
	Debit   decimal.Decimal  `json:"debit"`
	Credit  decimal.Decimal  `json:"credit"`
	Memo    string           `json:"memo,omitempty"`
	Rate    *decimal.Decimal `json:"rate,omitempty"`
}

// JournalEntry is a draft or posted transaction. Posted entries are terminal;
// corrections are made with a new reversing entry.
type JournalEntry struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	DisplayNumber string          `json:"display_number,omitempty"`
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference,omitempty"`
	Memo          string          `json:"memo,omitempty"`
	Currency      string          `json:"currency"`
	Rate          decimal.Decimal `json:"rate"`
	Status        Status          `json:"status"`
	Lines         []Line          `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
}

// Approve moves a draft to approved.
func (e *JournalEntry) Approve() error {
	if e.Status != StatusDraft {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, StatusApproved)
	}
	e.Status = StatusApproved
	return nil
}

// Post moves an approved entry to posted.
func (e *JournalEntry) Post(at time.Time) error {
	if e.Status != StatusApproved {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, StatusPosted)
	}
	e.Status = StatusPosted
	e.PostedAt = &at
	return nil
}

// Candidate returns the entry in the form the Validator checks.
func (e *JournalEntry) Candidate() Candidate {
	return Candidate{Currency: e.Currency, Rate: e.Rate, Lines: e.Lines}
}

// Rows materializes the entry's non-zero lines as ledger rows. Rows of a
// posted entry are locked.
func (e *JournalEntry) Rows() []Row {
	rows := make([]Row, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.Debit.IsZero() && l.Credit.IsZero() {
			continue
		}
		memo := l.Memo
		if memo == "" {
			memo = e.Memo
		}
		rows = append(rows, Row{
			Date:          Day(e.Date),
			Account:       l.Account,
			Memo:          memo,
			Debit:         l.Debit,
			Credit:        l.Credit,
			Reference:     e.Reference,
			EntryNumber:   e.Number,
			Origin:        OriginServer,
			Locked:        e.Status == StatusPosted,
			OriginEntryID: e.ID,
		})
	}
	return rows
}

// QuickEntry is the simplified two-account form.
type QuickEntry struct {
	Date          time.Time       `json:"date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Memo          string          `json:"memo,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Rate          decimal.Decimal `json:"rate"`
}

// Candidate expands the quick form into two lines.
func (q QuickEntry) Candidate() Candidate {
	return Candidate{
		Currency: q.Currency,
		Rate:     q.Rate,
		Lines: []Line{
			{Account: q.DebitAccount, Debit: q.Amount, Memo: q.Memo},
			{Account: q.CreditAccount, Credit: q.Amount, Memo: q.Memo},
		},
	}
}

// Entry builds a draft journal entry from the quick form.
func (q QuickEntry) Entry() *JournalEntry {
	c := q.Candidate()
	return &JournalEntry{
		Date:      Day(q.Date),
		Reference: q.Reference,
		Memo:      q.Memo,
		Currency:  q.Currency,
		Rate:      q.Rate,
		Status:    StatusDraft,
		Lines:     c.Lines,
	}
}
