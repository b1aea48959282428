// Package lock grants short-lived exclusive leases on (resource type,
// resource id) pairs so concurrent editors do not clobber the same record.
package lock

import (
	"context"
	"time"

	"github.com/brokeragedesk/backend/internal/models"
)

// Duration is how long a granted lease lives. There is no renewal: a holder
// who needs more time re-acquires after expiry.
const Duration = 2 * time.Minute

// Store is the durable lease table. InsertLockIfAbsent must be atomic under
// concurrent callers: the uniqueness constraint on the key pair decides the
// winner, and a rejected insert reports inserted=false, not an error.
type Store interface {
	DeleteExpiredLocks(ctx context.Context, now time.Time) error
	InsertLockIfAbsent(ctx context.Context, lease models.Lease) (bool, error)
	GetLock(ctx context.Context, resourceType, resourceID string) (*models.Lease, error)
	DeleteLock(ctx context.Context, resourceType, resourceID string) error
	ListLocks(ctx context.Context) ([]models.Lease, error)
}

// Conflict reports that a live lease is already held by someone else. It is a
// normal outcome, not an error.
type Conflict struct {
	Holder     string    `json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Manager struct {
	Store Store
	Now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{Store: store, Now: time.Now}
}

// Acquire purges expired leases, then attempts to take the lease for the key.
// Exactly one of lease/conflict is non-nil on success. When the insert loses
// the uniqueness race, the winner's lease is re-read and reported as the
// conflict; if it vanished in between, the conflict carries an unknown holder.
func (m *Manager) Acquire(ctx context.Context, resourceType, resourceID, holder string) (*models.Lease, *Conflict, error) {
	now := m.Now().UTC()
	if err := m.Store.DeleteExpiredLocks(ctx, now); err != nil {
		return nil, nil, err
	}

	lease := models.Lease{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Holder:       holder,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(Duration),
	}
	inserted, err := m.Store.InsertLockIfAbsent(ctx, lease)
	if err != nil {
		return nil, nil, err
	}
	if inserted {
		return &lease, nil, nil
	}

	existing, err := m.Store.GetLock(ctx, resourceType, resourceID)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, &Conflict{Holder: "unknown"}, nil
	}
	return nil, &Conflict{
		Holder:     existing.Holder,
		AcquiredAt: existing.AcquiredAt,
		ExpiresAt:  existing.ExpiresAt,
	}, nil
}

// Release drops any lease for the key. Idempotent, no ownership check:
// callers are trusted, and releasing a missing lease is a no-op.
func (m *Manager) Release(ctx context.Context, resourceType, resourceID string) error {
	return m.Store.DeleteLock(ctx, resourceType, resourceID)
}

// ListActive purges expired leases and returns the rest.
func (m *Manager) ListActive(ctx context.Context) ([]models.Lease, error) {
	if err := m.Store.DeleteExpiredLocks(ctx, m.Now().UTC()); err != nil {
		return nil, err
	}
	return m.Store.ListLocks(ctx)
}
