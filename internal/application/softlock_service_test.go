package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
)

type softLockFixture struct {
	clock *clock.Fixed
	repo  *fakeSoftLockRepo
	svc   *SoftLockService
	key   domain.ResourceKey
	date  time.Time
	start time.Time
	end   time.Time
}

func newSoftLockFixture() *softLockFixture {
	clk := &clock.Fixed{Instant: time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)}
	repo := newFakeSoftLockRepo()
	start := time.Date(2026, 1, 8, 10, 0, 0, 0, time.UTC)
	return &softLockFixture{
		clock: clk,
		repo:  repo,
		svc:   NewSoftLockService(repo, 5*time.Minute, clk, zap.NewNop()),
		key:   domain.ResourceKey{ServiceID: uuid.New()},
		date:  time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		start: start,
		end:   start.Add(time.Hour),
	}
}

func TestSoftLock_CreateAndConflict(t *testing.T) {
	f := newSoftLockFixture()
	ctx := context.Background()

	lock, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, 0)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), lock.ExpiresAt)

	// A second hold on the same slot conflicts while the first is live.
	_, err = f.svc.Create(ctx, f.key, f.date, f.start, f.end, 0)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	// A different slot is free.
	_, err = f.svc.Create(ctx, f.key, f.date, f.start.Add(time.Hour), f.end.Add(time.Hour), 0)
	require.NoError(t, err)
}

func TestSoftLock_ExpiredHoldIsReclaimed(t *testing.T) {
	f := newSoftLockFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, time.Minute)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)

	second, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestSoftLock_IsLockedByOther(t *testing.T) {
	f := newSoftLockFixture()
	ctx := context.Background()

	lock, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, time.Minute)
	require.NoError(t, err)

	held, err := f.svc.IsLockedByOther(ctx, lock.SlotKey, nil)
	require.NoError(t, err)
	assert.True(t, held)

	// The holder's own token is never "other".
	held, err = f.svc.IsLockedByOther(ctx, lock.SlotKey, &lock.Token)
	require.NoError(t, err)
	assert.False(t, held)

	other := uuid.New()
	held, err = f.svc.IsLockedByOther(ctx, lock.SlotKey, &other)
	require.NoError(t, err)
	assert.True(t, held)

	// An expired hold no longer blocks anyone.
	f.clock.Advance(2 * time.Minute)
	held, err = f.svc.IsLockedByOther(ctx, lock.SlotKey, nil)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestSoftLock_ReleaseIsIdempotent(t *testing.T) {
	f := newSoftLockFixture()
	ctx := context.Background()

	lock, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, 0)
	require.NoError(t, err)

	released, err := f.svc.Release(ctx, lock.Token)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = f.svc.Release(ctx, lock.Token)
	require.NoError(t, err)
	assert.False(t, released)

	released, err = f.svc.Release(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, released)
}

func TestSoftLock_CleanupExpired(t *testing.T) {
	f := newSoftLockFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.key, f.date, f.start, f.end, time.Minute)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.key, f.date, f.start.Add(time.Hour), f.end.Add(time.Hour), time.Hour)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)

	n, err := f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the lapsed hold is swept")
}
