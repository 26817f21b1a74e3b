package locking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// LockStore is the shared storage primitive beneath StoreLocker. TryInsert
// atomically claims the key for owner and reports whether the claim won;
// a stale row whose expiry has passed counts as absent. Delete releases a
// claim but only for its owner.
type LockStore interface {
	TryInsert(ctx context.Context, key, owner string, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, key, owner string) error
}

// StoreLocker implements Locker over a shared LockStore by polling a
// unique-keyed claim. Granularity is per key: attempts on different keys
// never contend. Each call claims at most one key, so lock ordering
// deadlocks cannot arise.
type StoreLocker struct {
	store        LockStore
	ttl          time.Duration // staleness bound for claims abandoned by a crashed process
	pollInterval time.Duration
	now          func() time.Time
}

// NewStoreLocker creates a StoreLocker. ttl bounds how long an abandoned
// claim can shadow its key.
func NewStoreLocker(store LockStore, ttl time.Duration) *StoreLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StoreLocker{
		store:        store,
		ttl:          ttl,
		pollInterval: 50 * time.Millisecond,
		now:          time.Now,
	}
}

// Acquire claims key, retrying until wait elapses. Timeout and context
// cancellation both surface as a conflict: the caller treats "could not
// serialize" the same as "someone else has the slot".
func (l *StoreLocker) Acquire(ctx context.Context, key string, wait time.Duration) (*Guard, error) {
	owner := uuid.NewString()
	deadline := l.now().Add(wait)

	for {
		won, err := l.store.TryInsert(ctx, key, owner, l.now().Add(l.ttl))
		if err != nil {
			return nil, domain.NewInternalError("failed to acquire slot lock", err)
		}
		if won {
			return NewGuard(func() error {
				// Release must not inherit a cancelled request context.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return l.store.Delete(releaseCtx, key, owner)
			}), nil
		}

		if !l.now().Add(l.pollInterval).Before(deadline) {
			return nil, domain.NewConflictError("slot is busy, please try again")
		}
		select {
		case <-ctx.Done():
			return nil, domain.NewConflictError("slot is busy, please try again")
		case <-time.After(l.pollInterval):
		}
	}
}
