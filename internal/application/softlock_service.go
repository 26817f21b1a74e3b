package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
)

// SoftLockService manages short-lived checkout holds on slots. Holds are
// advisory, never authoritative: the admission coordinator still re-validates
// capacity. Expiry is lazy on reads; the periodic sweep only reclaims
// storage.
type SoftLockService struct {
	locks      booking.SoftLockRepository
	defaultTTL time.Duration
	clock      clock.Clock
	logger     *zap.Logger
}

// NewSoftLockService creates a SoftLockService.
func NewSoftLockService(locks booking.SoftLockRepository, defaultTTL time.Duration, clk clock.Clock, logger *zap.Logger) *SoftLockService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &SoftLockService{locks: locks, defaultTTL: defaultTTL, clock: clk, logger: logger}
}

// Create takes a hold on the slot for ttl (<=0 uses the default). It fails
// with a conflict if an unexpired hold already covers the slot.
func (s *SoftLockService) Create(ctx context.Context, key domain.ResourceKey, date, startAt, endAt time.Time, ttl time.Duration) (*booking.SoftLock, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.clock.Now()

	lock, err := booking.NewSoftLock(key, date, startAt, endAt, ttl, now)
	if err != nil {
		return nil, err
	}

	existing, err := s.locks.FindBySlotKey(ctx, lock.SlotKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Expired(now) {
			return nil, domain.NewConflictError("slot is held by another checkout")
		}
		// Lapsed hold: reclaim its row so the unique slot key is free.
		if _, err := s.locks.DeleteByToken(ctx, existing.Token); err != nil {
			return nil, err
		}
	}

	if err := s.locks.Save(ctx, lock); err != nil {
		return nil, err
	}
	s.logger.Debug("soft lock created", zap.String("slot", lock.SlotKey))
	return lock, nil
}

// IsLockedByOther reports whether an unexpired hold by someone other than
// ownToken covers the slot key. A hold never blocks the checkout session
// that created it from completing its own booking.
func (s *SoftLockService) IsLockedByOther(ctx context.Context, slotKey string, ownToken *uuid.UUID) (bool, error) {
	lock, err := s.locks.FindBySlotKey(ctx, slotKey)
	if err != nil {
		return false, err
	}
	if lock == nil || lock.Expired(s.clock.Now()) {
		return false, nil
	}
	if ownToken != nil && *ownToken == lock.Token {
		return false, nil
	}
	return true, nil
}

// Release removes a hold by token. Unknown or already-released tokens return
// false without error: release is idempotent.
func (s *SoftLockService) Release(ctx context.Context, token uuid.UUID) (bool, error) {
	return s.locks.DeleteByToken(ctx, token)
}

// CleanupExpired reclaims storage for lapsed holds.
func (s *SoftLockService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.locks.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("swept expired soft locks", zap.Int64("count", n))
	}
	return n, nil
}

// RunSweeper runs CleanupExpired on the interval until ctx is cancelled.
func (s *SoftLockService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				s.logger.Warn("soft lock sweep failed", zap.Error(err))
			}
		}
	}
}
