package store

import (
	"context"
	"fmt"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Store) ListAllSettings(ctx context.Context) ([]ledger.CoASetting, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT code, setting, value FROM coa_settings ORDER BY code, setting`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []ledger.CoASetting
	for rows.Next() {
		var cs ledger.CoASetting
		if err := rows.Scan(&cs.Code, &cs.Setting, &cs.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, cs)
	}
	return settings, rows.Err()
}

func (s *Store) UpsertSetting(ctx context.Context, setting ledger.CoASetting) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO coa_settings (code, setting, value) VALUES (?, ?, ?)
		 ON CONFLICT(code, setting) DO UPDATE SET value = excluded.value`,
		setting.Code, setting.Setting, setting.Value,
	)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, code string, name ledger.SettingName) error {
	_, err := s.writer.ExecContext(ctx,
		`DELETE FROM coa_settings WHERE code = ? AND setting = ?`, code, name)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}
