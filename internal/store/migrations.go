package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			code        TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS coa_settings (
			code    TEXT NOT NULL,
			setting TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (code, setting)
		)`,

		`CREATE TABLE IF NOT EXISTS journal_entries (
			id             TEXT PRIMARY KEY,
			number         TEXT NOT NULL,
			display_number TEXT NOT NULL DEFAULT '',
			date           TEXT NOT NULL,
			reference      TEXT NOT NULL DEFAULT '',
			memo           TEXT NOT NULL DEFAULT '',
			currency       TEXT NOT NULL,
			rate           TEXT NOT NULL DEFAULT '1',
			status         TEXT NOT NULL CHECK (status IN ('draft','approved','posted')),
			created_at     TEXT NOT NULL,
			posted_at      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(date)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_status ON journal_entries(status)`,

		`CREATE TABLE IF NOT EXISTS entry_lines (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			account  TEXT NOT NULL,
			debit    TEXT NOT NULL DEFAULT '0',
			credit   TEXT NOT NULL DEFAULT '0',
			memo     TEXT NOT NULL DEFAULT '',
			rate     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_lines_entry ON entry_lines(entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_lines_account ON entry_lines(account)`,

		`CREATE TABLE IF NOT EXISTS ledger_rows (
			row_key         TEXT PRIMARY KEY,
			date            TEXT NOT NULL,
			account         TEXT NOT NULL,
			memo            TEXT NOT NULL DEFAULT '',
			debit           TEXT NOT NULL DEFAULT '0',
			credit          TEXT NOT NULL DEFAULT '0',
			reference       TEXT NOT NULL DEFAULT '',
			entry_number    TEXT NOT NULL DEFAULT '',
			origin_entry_id TEXT NOT NULL DEFAULT '',
			origin          TEXT NOT NULL CHECK (origin IN ('server','local-cache','manual')),
			locked          INTEGER NOT NULL DEFAULT 0,
			seq             INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_rows_origin ON ledger_rows(origin)`,

		`CREATE TABLE IF NOT EXISTS counters (
			key   TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sync_keys (
			key         TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		// Trigger: a posted entry must balance within 0.005
		`CREATE TRIGGER IF NOT EXISTS trg_check_balance
		BEFORE UPDATE OF status ON journal_entries
		WHEN NEW.status = 'posted'
		BEGIN
			SELECT CASE
				WHEN (
					SELECT ABS(COALESCE(SUM(CAST(debit AS REAL)), 0) - COALESCE(SUM(CAST(credit AS REAL)), 0))
					FROM entry_lines
					WHERE entry_id = NEW.id
				) >= 0.005
				THEN RAISE(ABORT, 'entry lines do not balance')
			END;
		END`,

		// Trigger: posted entries are terminal
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_posted_entry
		BEFORE UPDATE ON journal_entries
		WHEN OLD.status = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify a posted entry');
		END`,

		// Trigger: prevent adding lines to posted entries
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_lines_insert
		BEFORE INSERT ON entry_lines
		WHEN (SELECT status FROM journal_entries WHERE id = NEW.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot add lines to a posted entry');
		END`,

		// Trigger: prevent updating lines of posted entries
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_lines_update
		BEFORE UPDATE ON entry_lines
		WHEN (SELECT status FROM journal_entries WHERE id = OLD.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify lines of a posted entry');
		END`,

		// Trigger: lines of a posted entry go only with the entry itself
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_lines_delete
		BEFORE DELETE ON entry_lines
		WHEN (SELECT status FROM journal_entries WHERE id = OLD.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove lines from a posted entry');
		END`,

		// Trigger: locked rows are never mutated
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_locked_rows
		BEFORE UPDATE ON ledger_rows
		WHEN OLD.locked = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify a locked row');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_locked_rows_delete
		BEFORE DELETE ON ledger_rows
		WHEN OLD.locked = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove a locked row');
		END`,

		// Trigger: sync keys are append-only
		`CREATE TRIGGER IF NOT EXISTS trg_sync_keys_delete
		BEFORE DELETE ON sync_keys
		BEGIN
			SELECT RAISE(ABORT, 'sync keys are append-only');
		END`,

		// Trigger: counters never go backwards
		`CREATE TRIGGER IF NOT EXISTS trg_counters_monotonic
		BEFORE UPDATE ON counters
		WHEN NEW.value < OLD.value
		BEGIN
			SELECT RAISE(ABORT, 'counters are monotonic');
		END`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}

	for _, a := range ledger.DefaultAccounts {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO accounts (code, name, description, category) VALUES (?, ?, ?, ?)`,
			a.Code, a.Name, a.Description, string(a.Category),
		)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.Code, err)
		}
	}

	return nil
}
