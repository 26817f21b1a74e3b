package locking

import (
	"context"
	"sync"
	"time"
)

// MemoryLockStore is an in-process LockStore for tests and single-node
// deployments. Production deployments use the database-backed store so locks
// are visible across instances.
type MemoryLockStore struct {
	mu    sync.Mutex
	now   func() time.Time
	rows  map[string]memoryLockRow
}

type memoryLockRow struct {
	owner     string
	expiresAt time.Time
}

// NewMemoryLockStore creates an empty in-memory lock store.
func NewMemoryLockStore(now func() time.Time) *MemoryLockStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryLockStore{now: now, rows: make(map[string]memoryLockRow)}
}

// TryInsert claims key unless a live claim by another owner exists.
func (s *MemoryLockStore) TryInsert(_ context.Context, key, owner string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[key]; ok && s.now().Before(row.expiresAt) {
		return false, nil
	}
	s.rows[key] = memoryLockRow{owner: owner, expiresAt: expiresAt}
	return true, nil
}

// Delete releases the claim on key if owner still holds it.
func (s *MemoryLockStore) Delete(_ context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[key]; ok && row.owner == owner {
		delete(s.rows, key)
	}
	return nil
}
