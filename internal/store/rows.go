package store

import (
	"context"
	"fmt"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/merge"
)

// InsertRows stores ad-hoc rows keyed by their merge key. Rows already
// stored under the same key are left untouched. It returns the number of
// rows added.
func (s *Store) InsertRows(ctx context.Context, rows []ledger.Row) (int, error) {
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM ledger_rows`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read row sequence: %w", err)
	}

	added := 0
	for _, r := range rows {
		seq++
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO ledger_rows
			 (row_key, date, account, memo, debit, credit, reference, entry_number, origin_entry_id, origin, locked, seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			merge.Key(r), r.Date.Format(ledger.DateLayout), r.Account, r.Memo, r.Debit, r.Credit,
			r.Reference, r.EntryNumber, r.OriginEntryID, string(r.Origin), boolToInt(r.Locked), seq,
		)
		if err != nil {
			return 0, fmt.Errorf("insert row: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// ListRows returns stored rows in insertion order.
func (s *Store) ListRows(ctx context.Context, filter RowFilter) ([]ledger.Row, error) {
	query := `SELECT date, account, memo, debit, credit, reference, entry_number, origin_entry_id, origin, locked
		FROM ledger_rows WHERE 1=1`
	args := []any{}

	if filter.Origin != "" {
		query += ` AND origin = ?`
		args = append(args, string(filter.Origin))
	}
	if filter.Account != "" {
		query += ` AND account = ?`
		args = append(args, filter.Account)
	}
	query += ` ORDER BY seq`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.Row
	for rows.Next() {
		var r ledger.Row
		var date string
		var locked int
		if err := rows.Scan(&date, &r.Account, &r.Memo, &r.Debit, &r.Credit,
			&r.Reference, &r.EntryNumber, &r.OriginEntryID, &r.Origin, &locked); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Date, _ = ledger.ParseDate(date)
		r.Locked = locked == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRow removes an unlocked manual row by key.
func (s *Store) DeleteRow(ctx context.Context, key string) error {
	var origin string
	var locked int
	err := s.reader.QueryRowContext(ctx,
		`SELECT origin, locked FROM ledger_rows WHERE row_key = ?`, key).Scan(&origin, &locked)
	if err != nil {
		return ledger.ErrRowNotFound
	}
	if locked == 1 || ledger.Origin(origin) != ledger.OriginManual {
		return fmt.Errorf("%w: %s", ledger.ErrRowLocked, key)
	}

	if _, err := s.writer.ExecContext(ctx, `DELETE FROM ledger_rows WHERE row_key = ?`, key); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}
