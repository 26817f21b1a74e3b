package ratelimit

import (
	"context"
	"time"
)

// Scopes for booking-attempt limits.
const (
	ScopeEmail = "email"
	ScopeIP    = "ip"
)

// CounterStore increments and returns a shared fixed-window counter. The
// store is read-then-write; exact-once semantics are not required, since a
// slight overcount under extreme concurrency only makes the limiter
// stricter, never unsafe.
type CounterStore interface {
	Increment(ctx context.Context, scope, identity string, windowStart time.Time) (int, error)
}

// Limiter caps booking attempts per requester identity. It is consulted
// before any lock is taken.
type Limiter struct {
	store  CounterStore
	window time.Duration
	limits map[string]int
	now    func() time.Time
}

// New creates a Limiter with per-scope attempt limits over the window.
func New(store CounterStore, window time.Duration, limits map[string]int, now func() time.Time) *Limiter {
	if window <= 0 {
		window = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, window: window, limits: limits, now: now}
}

// Allow records an attempt for identity under scope and reports whether it
// is within the limit. Scopes without a configured limit always pass.
func (l *Limiter) Allow(ctx context.Context, scope, identity string) (bool, error) {
	limit, ok := l.limits[scope]
	if !ok || limit <= 0 || identity == "" {
		return true, nil
	}

	windowStart := l.now().UTC().Truncate(l.window)
	count, err := l.store.Increment(ctx, scope, identity, windowStart)
	if err != nil {
		return false, err
	}
	return count <= limit, nil
}
