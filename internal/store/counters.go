package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Get and Set make Store a sequence.Store.
func (s *Store) Get(ctx context.Context, key string) (int64, bool, error) {
	var v int64
	err := s.reader.QueryRowContext(ctx, `SELECT value FROM counters WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get counter: %w", err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO counters (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}
