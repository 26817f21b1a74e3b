package locking

import (
	"context"
	"time"
)

// Guard represents a held mutual-exclusion lock. Release is safe to call
// exactly once, normally via defer, and must run on every code path of the
// critical section.
type Guard struct {
	release func() error
}

// NewGuard wraps a release function.
func NewGuard(release func() error) *Guard {
	return &Guard{release: release}
}

// Release frees the lock.
func (g *Guard) Release() error {
	if g == nil || g.release == nil {
		return nil
	}
	release := g.release
	g.release = nil
	return release()
}

// Locker is the narrow mutual-exclusion interface injected into the booking
// admission path. Acquire blocks up to wait for the per-key lock and fails
// fast with a conflict error on timeout; it never blocks indefinitely.
// Implementations must be visible across process boundaries.
type Locker interface {
	Acquire(ctx context.Context, key string, wait time.Duration) (*Guard, error)
}
