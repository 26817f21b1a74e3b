package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryCounterStore is an in-process CounterStore for tests and single-node
// deployments. Stale windows are pruned opportunistically on write.
type MemoryCounterStore struct {
	mu     sync.Mutex
	counts map[string]int
	seen   map[string]time.Time
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counts: make(map[string]int),
		seen:   make(map[string]time.Time),
	}
}

// Increment bumps and returns the counter for (scope, identity, window).
func (s *MemoryCounterStore) Increment(_ context.Context, scope, identity string, windowStart time.Time) (int, error) {
	key := fmt.Sprintf("%s|%s|%d", scope, identity, windowStart.Unix())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key]++
	s.seen[key] = windowStart

	// Drop counters two windows old or more.
	for k, ws := range s.seen {
		if windowStart.Sub(ws) >= 2*time.Hour {
			delete(s.counts, k)
			delete(s.seen, k)
		}
	}
	return s.counts[key], nil
}
