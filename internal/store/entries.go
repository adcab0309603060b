package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonvc/ledgersync/internal/ledger"
)

// CreateEntry stores a draft. Callers validate the entry first; the store
// only enforces balance when the entry is posted.
func (s *Store) CreateEntry(ctx context.Context, e *ledger.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = ledger.StatusDraft
	}
	if e.Rate.IsZero() {
		e.Rate = decimal.NewFromInt(1)
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, number, display_number, date, reference, memo, currency, rate, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Number, e.DisplayNumber, e.Date.Format(ledger.DateLayout), e.Reference, e.Memo,
		e.Currency, e.Rate, string(e.Status), e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	for i, l := range e.Lines {
		var rate decimal.NullDecimal
		if l.Rate != nil {
			rate = decimal.NewNullDecimal(*l.Rate)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entry_lines (entry_id, position, account, debit, credit, memo, rate) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i, l.Account, l.Debit, l.Credit, l.Memo, rate,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const entryColumns = `id, number, display_number, date, reference, memo, currency, rate, status, created_at, posted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var date, createdAt string
	var postedAt sql.NullString
	err := sc.Scan(&e.ID, &e.Number, &e.DisplayNumber, &date, &e.Reference, &e.Memo,
		&e.Currency, &e.Rate, &e.Status, &createdAt, &postedAt)
	if err != nil {
		return nil, err
	}
	e.Date, _ = ledger.ParseDate(date)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if postedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, postedAt.String)
		e.PostedAt = &t
	}
	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	e, err := scanEntry(s.reader.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	lines, err := s.linesForEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Lines = lines
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, filter EntryFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	query += ` ORDER BY date, number, created_at`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range entries {
		lines, err := s.linesForEntry(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func (s *Store) linesForEntry(ctx context.Context, id string) ([]ledger.Line, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT account, debit, credit, memo, rate FROM entry_lines WHERE entry_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.Line
	for rows.Next() {
		var l ledger.Line
		var rate decimal.NullDecimal
		if err := rows.Scan(&l.Account, &l.Debit, &l.Credit, &l.Memo, &rate); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		if rate.Valid {
			r := rate.Decimal
			l.Rate = &r
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateStatus persists a transition made with JournalEntry.Approve or Post.
// Posting fires the balance trigger.
func (s *Store) UpdateStatus(ctx context.Context, e *ledger.JournalEntry) error {
	var postedAt sql.NullString
	if e.PostedAt != nil {
		postedAt = sql.NullString{String: e.PostedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	res, err := s.writer.ExecContext(ctx,
		`UPDATE journal_entries SET status = ?, posted_at = ? WHERE id = ?`,
		string(e.Status), postedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

// DeleteEntry removes an entry and, by cascade, its lines.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

// PostedRows materializes every posted entry as locked rows, in date order.
func (s *Store) PostedRows(ctx context.Context) ([]ledger.Row, error) {
	entries, err := s.ListEntries(ctx, EntryFilter{Status: ledger.StatusPosted})
	if err != nil {
		return nil, err
	}
	var rows []ledger.Row
	for i := range entries {
		rows = append(rows, entries[i].Rows()...)
	}
	return rows, nil
}
