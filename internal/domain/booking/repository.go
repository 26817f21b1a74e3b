package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// BookedInterval is the buffered occupancy of an existing reservation, used
// by the capacity evaluator.
type BookedInterval struct {
	StartAt  time.Time
	EndAt    time.Time
	Quantity int
}

// ReservationRepository defines the persistence contract for reservations.
// InTransaction yields a repository bound to a database transaction; the
// admission coordinator re-runs its capacity check and performs the insert
// through that bound repository so no pre-transaction snapshot is trusted.
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindByToken(ctx context.Context, token string) (*Reservation, error)

	// FindOverlapping returns the buffered intervals of non-cancelled
	// reservations for the same bookable unit on the date. The buffer
	// minutes widen each stored interval before the overlap test.
	FindOverlapping(ctx context.Context, key domain.ResourceKey, date time.Time, bufferBefore, bufferAfter int) ([]BookedInterval, error)

	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new reservation. A storage-level uniqueness violation
	// on the slot identity surfaces as a conflict error.
	Save(ctx context.Context, res *Reservation) error

	// Update persists a status transition with optimistic locking.
	Update(ctx context.Context, res *Reservation) error

	// InTransaction runs fn with a repository bound to one transaction.
	// fn returning an error rolls the transaction back.
	InTransaction(ctx context.Context, fn func(ReservationRepository) error) error
}

// SoftLockRepository defines the persistence contract for checkout holds.
// The store must be shared across processes: holds taken by one instance
// must be visible to every other.
type SoftLockRepository interface {
	// FindBySlotKey returns the lock for the slot, expired or not, or nil.
	FindBySlotKey(ctx context.Context, slotKey string) (*SoftLock, error)

	FindByToken(ctx context.Context, token uuid.UUID) (*SoftLock, error)

	// Save persists a new lock. A second unexpired lock on the same slot
	// key surfaces as a conflict error.
	Save(ctx context.Context, lock *SoftLock) error

	// DeleteByToken removes a lock, reporting whether one existed.
	DeleteByToken(ctx context.Context, token uuid.UUID) (bool, error)

	// DeleteExpired reclaims storage for lapsed locks.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
