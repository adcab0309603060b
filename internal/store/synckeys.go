package store

import (
	"context"
	"fmt"
)

// Has and Record make Store a syncer.KeyStore.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_keys WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check sync key: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Record(ctx context.Context, key string) error {
	if _, err := s.writer.ExecContext(ctx, `INSERT OR IGNORE INTO sync_keys (key) VALUES (?)`, key); err != nil {
		return fmt.Errorf("record sync key: %w", err)
	}
	return nil
}

func (s *Store) SyncKeyCount(ctx context.Context) (int, error) {
	var n int
	if err := s.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_keys`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sync keys: %w", err)
	}
	return n, nil
}
