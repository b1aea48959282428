package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// LoadSetting reads one settings document and its version token. Absent keys
// yield a nil payload with version 0.
func (s *Store) LoadSetting(ctx context.Context, key string) (json.RawMessage, int64, error) {
	var (
		value   []byte
		version int64
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT value, version FROM app_settings WHERE key = $1`, key).Scan(&value, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return value, version, nil
}

// SaveSetting replaces a settings document iff its stored version still
// matches expectedVersion, bumping the version on success. A fresh insert
// always succeeds (there is nothing to conflict with). Returns false when a
// concurrent writer got there first.
func (s *Store) SaveSetting(ctx context.Context, key string, value any, expectedVersion int64) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO app_settings (key, value, version)
		VALUES ($1, $2::jsonb, 1)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, version = app_settings.version + 1
		WHERE app_settings.version = $3
	`, key, payload, expectedVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
