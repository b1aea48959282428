package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brokeragedesk/backend/internal/models"
)

// The record_locks table carries a uniqueness constraint on
// (resource_type, resource_id); that constraint is what arbitrates
// concurrent acquires.

func (s *Store) DeleteExpiredLocks(ctx context.Context, now time.Time) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM record_locks WHERE expires_at < $1`, now)
	return err
}

// InsertLockIfAbsent inserts the lease unless one already exists for the key.
// A uniqueness rejection reports inserted=false rather than an error: losing
// the race is an expected outcome.
func (s *Store) InsertLockIfAbsent(ctx context.Context, lease models.Lease) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO record_locks (resource_type, resource_id, locked_by, locked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (resource_type, resource_id) DO NOTHING
	`, lease.ResourceType, lease.ResourceID, lease.Holder, lease.AcquiredAt, lease.ExpiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetLock(ctx context.Context, resourceType, resourceID string) (*models.Lease, error) {
	var lease models.Lease
	err := s.Pool.QueryRow(ctx, `
		SELECT resource_type, resource_id, locked_by, locked_at, expires_at
		FROM record_locks WHERE resource_type = $1 AND resource_id = $2
	`, resourceType, resourceID).Scan(
		&lease.ResourceType, &lease.ResourceID, &lease.Holder,
		&lease.AcquiredAt, &lease.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (s *Store) DeleteLock(ctx context.Context, resourceType, resourceID string) error {
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM record_locks WHERE resource_type = $1 AND resource_id = $2`,
		resourceType, resourceID)
	return err
}

func (s *Store) ListLocks(ctx context.Context) ([]models.Lease, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT resource_type, resource_id, locked_by, locked_at, expires_at FROM record_locks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lease
	for rows.Next() {
		var lease models.Lease
		if err := rows.Scan(&lease.ResourceType, &lease.ResourceID, &lease.Holder,
			&lease.AcquiredAt, &lease.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, lease)
	}
	return out, rows.Err()
}
