package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// SoftLock is a short-lived, token-addressable hold on a slot taken while a
// customer walks through checkout. It is advisory: it never replaces the
// admission checks, it only shields a checkout in progress from other
// customers.
type SoftLock struct {
	Token     uuid.UUID
	SlotKey   string
	Resource  domain.ResourceKey
	Date      time.Time // UTC midnight
	StartAt   time.Time
	EndAt     time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewSoftLock creates a hold on the slot expiring after ttl.
func NewSoftLock(resource domain.ResourceKey, date, startAt, endAt time.Time, ttl time.Duration, now time.Time) (*SoftLock, error) {
	if err := resource.Validate(); err != nil {
		return nil, err
	}
	if !startAt.Before(endAt) {
		return nil, domain.NewValidationError("lock start must precede end")
	}
	if ttl <= 0 {
		return nil, domain.NewValidationError("lock TTL must be positive")
	}

	// Slot keys are minted from UTC wall clock everywhere; a zoned startAt
	// must not produce a different key than the admission path computes.
	day := date.UTC().Truncate(24 * time.Hour)
	startUTC := startAt.UTC()
	startMinute := startUTC.Hour()*60 + startUTC.Minute()
	return &SoftLock{
		Token:     uuid.New(),
		SlotKey:   resource.SlotKey(day.Format("2006-01-02"), startMinute),
		Resource:  resource,
		Date:      day,
		StartAt:   startAt.UTC(),
		EndAt:     endAt.UTC(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// Expired reports whether the lock has lapsed at the given instant. Expiry is
// evaluated lazily on the read path; a lapsed lock is treated as absent.
func (l *SoftLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Describe renders the lock for logs.
func (l *SoftLock) Describe() string {
	return fmt.Sprintf("%s (expires %s)", l.SlotKey, l.ExpiresAt.Format(time.RFC3339))
}
