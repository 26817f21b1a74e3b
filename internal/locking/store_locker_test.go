package locking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/service-scheduling/internal/domain"
)

func TestStoreLocker_AcquireAndRelease(t *testing.T) {
	locker := NewStoreLocker(NewMemoryLockStore(nil), 30*time.Second)
	ctx := context.Background()

	guard, err := locker.Acquire(ctx, "slot:a", time.Second)
	require.NoError(t, err)

	// Second attempt on the same key times out while the guard is held.
	_, err = locker.Acquire(ctx, "slot:a", 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	require.NoError(t, guard.Release())

	guard2, err := locker.Acquire(ctx, "slot:a", time.Second)
	require.NoError(t, err)
	require.NoError(t, guard2.Release())
}

func TestStoreLocker_DifferentKeysDoNotContend(t *testing.T) {
	locker := NewStoreLocker(NewMemoryLockStore(nil), 30*time.Second)
	ctx := context.Background()

	guardA, err := locker.Acquire(ctx, "slot:a", 100*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = guardA.Release() }()

	guardB, err := locker.Acquire(ctx, "slot:b", 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, guardB.Release())
}

func TestStoreLocker_WaitsForRelease(t *testing.T) {
	locker := NewStoreLocker(NewMemoryLockStore(nil), 30*time.Second)
	ctx := context.Background()

	guard, err := locker.Acquire(ctx, "slot:a", time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = guard.Release()
	}()

	// The waiter should win once the holder releases, well within the wait.
	guard2, err := locker.Acquire(ctx, "slot:a", 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, guard2.Release())
}

func TestStoreLocker_StaleClaimIsStolen(t *testing.T) {
	now := time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)
	store := NewMemoryLockStore(func() time.Time { return now })

	// Simulate a crashed holder that never released.
	won, err := store.TryInsert(context.Background(), "slot:a", "dead-owner", now.Add(50*time.Millisecond))
	require.NoError(t, err)
	require.True(t, won)

	now = now.Add(time.Second)

	locker := NewStoreLocker(store, 30*time.Second)
	guard, err := locker.Acquire(context.Background(), "slot:a", 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, guard.Release())
}

func TestStoreLocker_MutualExclusionUnderContention(t *testing.T) {
	locker := NewStoreLocker(NewMemoryLockStore(nil), 30*time.Second)
	ctx := context.Background()

	var inCritical int32
	var maxInCritical int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard, err := locker.Acquire(ctx, "slot:contended", 5*time.Second)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inCritical, 1)
			for {
				cur := atomic.LoadInt32(&maxInCritical)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInCritical, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inCritical, -1)
			_ = guard.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInCritical), "at most one holder at a time")
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	calls := 0
	guard := NewGuard(func() error {
		calls++
		return nil
	})

	require.NoError(t, guard.Release())
	require.NoError(t, guard.Release())
	assert.Equal(t, 1, calls)

	var nilGuard *Guard
	assert.NoError(t, nilGuard.Release())
}
