package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Store) CreateAccount(ctx context.Context, acct ledger.Account) error {
	if _, err := ledger.CategoryForCode(acct.Code); err != nil {
		return err
	}
	if acct.Category != "" && !ledger.ValidCategory(acct.Category) {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidCategory, acct.Category)
	}

	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO accounts (code, name, description, category) VALUES (?, ?, ?, ?)`,
		acct.Code, acct.Name, acct.Description, string(acct.Category),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, code string) (*ledger.Account, error) {
	var acct ledger.Account
	err := s.reader.QueryRowContext(ctx,
		`SELECT code, name, description, category FROM accounts WHERE code = ?`, code,
	).Scan(&acct.Code, &acct.Name, &acct.Description, &acct.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT code, name, description, category FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var acct ledger.Account
		if err := rows.Scan(&acct.Code, &acct.Name, &acct.Description, &acct.Category); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// DeleteAccount refuses when any entry line or stored row uses the code.
func (s *Store) DeleteAccount(ctx context.Context, code string) error {
	if _, err := s.GetAccount(ctx, code); err != nil {
		return err
	}

	var count int
	err := s.reader.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM entry_lines WHERE account = ?) + (SELECT COUNT(*) FROM ledger_rows WHERE account = ?)`,
		code, code).Scan(&count)
	if err != nil {
		return fmt.Errorf("check usage: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete account %s: used by %d lines", code, count)
	}

	_, err = s.writer.ExecContext(ctx, `DELETE FROM accounts WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Chart builds a chart from the stored accounts and settings.
func (s *Store) Chart(ctx context.Context) (*ledger.Chart, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.ListAllSettings(ctx)
	if err != nil {
		return nil, err
	}
	chart := ledger.NewChart(accounts...)
	if err := chart.ApplySettings(settings); err != nil {
		return nil, fmt.Errorf("apply settings: %w", err)
	}
	return chart, nil
}
