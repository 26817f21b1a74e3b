package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/availability"
	"github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/catalog"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
)

// AvailabilityService computes the offerable slots for a resource and date:
// schedule resolution, blackout filtering, slot generation and capacity
// evaluation, memoized in the tag-indexed cache.
type AvailabilityService struct {
	services     catalog.ServiceRepository
	rules        schedule.RuleRepository
	blackouts    schedule.BlackoutRepository
	reservations booking.ReservationRepository
	cache        *cache.AvailabilityCache
	clock        clock.Clock
	logger       *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService.
func NewAvailabilityService(
	services catalog.ServiceRepository,
	rules schedule.RuleRepository,
	blackouts schedule.BlackoutRepository,
	reservations booking.ReservationRepository,
	availCache *cache.AvailabilityCache,
	clk clock.Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		services:     services,
		rules:        rules,
		blackouts:    blackouts,
		reservations: reservations,
		cache:        availCache,
		clock:        clk,
		logger:       logger,
	}
}

// GetAvailableSlots returns the slots on date that can satisfy quantity,
// ascending by start. The full computed slot list (including exhausted
// slots) is cached; quantity filtering happens per request.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, date time.Time, key domain.ResourceKey, quantity int) ([]availability.Slot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	svc, err := s.services.FindByID(ctx, key.ServiceID)
	if err != nil {
		return nil, err
	}
	quantity = svc.EffectiveQuantity(quantity)

	cacheKey := cache.Key(date, key.EmployeePart(), key.ServiceID.String())
	if slots, ok := s.cache.Get(cacheKey); ok {
		return filterOfferable(slots, quantity), nil
	}

	slots, err := s.computeSlots(ctx, s.reservations, svc, key, date)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, slots, []string{
		cache.DateTag(date),
		cache.EmployeeTag(key.EmployeePart()),
		cache.ServiceTag(key.ServiceID.String()),
	})
	return filterOfferable(slots, quantity), nil
}

// IsSlotAvailable is the authoritative point check for a single slot. It
// never consults the cache; both the pre-admission check and the
// in-transaction re-check go through computeSlots against live data.
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, date, startAt, endAt time.Time, key domain.ResourceKey, quantity int) (bool, error) {
	remaining, err := s.remainingAt(ctx, s.reservations, date, startAt, endAt, key, quantity)
	if err != nil {
		return false, err
	}
	return remaining >= 0, nil
}

// RemainingCapacityTx re-evaluates a slot's remaining capacity through a
// transaction-bound reservation repository. The admission coordinator calls
// this inside its transaction so it never trusts a pre-transaction snapshot.
func (s *AvailabilityService) RemainingCapacityTx(ctx context.Context, txRepo booking.ReservationRepository, svc *catalog.Service, key domain.ResourceKey, date, startAt, endAt time.Time) (int, error) {
	booked, err := txRepo.FindOverlapping(ctx, key, date, svc.BufferBeforeMinutes(), svc.BufferAfterMinutes())
	if err != nil {
		return 0, err
	}
	slot := availability.Slot{StartAt: startAt, EndAt: endAt}
	before := time.Duration(svc.BufferBeforeMinutes()) * time.Minute
	after := time.Duration(svc.BufferAfterMinutes()) * time.Minute
	return availability.EvaluateCapacity(slot, before, after, booked, svc.MaxCapacity()), nil
}

// remainingAt computes a single slot's remaining capacity against live data,
// returning -1 when the slot is not offerable at all (outside any window,
// blacked out, in the past, or wrong duration).
func (s *AvailabilityService) remainingAt(ctx context.Context, repo booking.ReservationRepository, date, startAt, endAt time.Time, key domain.ResourceKey, quantity int) (int, error) {
	if err := key.Validate(); err != nil {
		return -1, err
	}
	svc, err := s.services.FindByID(ctx, key.ServiceID)
	if err != nil {
		return -1, err
	}
	quantity = svc.EffectiveQuantity(quantity)

	slots, err := s.computeSlots(ctx, repo, svc, key, date)
	if err != nil {
		return -1, err
	}
	for _, slot := range slots {
		if slot.StartAt.Equal(startAt) && slot.EndAt.Equal(endAt) {
			if availability.Offerable(slot.RemainingCapacity, quantity) {
				return slot.RemainingCapacity, nil
			}
			return -1, nil
		}
	}
	return -1, nil
}

// computeSlots runs the full pipeline: resolver, blackout filter, generator,
// capacity evaluator.
func (s *AvailabilityService) computeSlots(ctx context.Context, repo booking.ReservationRepository, svc *catalog.Service, key domain.ResourceKey, date time.Time) ([]availability.Slot, error) {
	blackouts, err := s.blackouts.FindCovering(ctx, date)
	if err != nil {
		return nil, err
	}
	if schedule.IsBlackedOut(blackouts, key, date) {
		return []availability.Slot{}, nil
	}

	rules, err := s.rules.FindForDate(ctx, key, date)
	if err != nil {
		return nil, err
	}
	windows := schedule.ResolveWindows(rules, key, date)
	if len(windows) == 0 {
		return []availability.Slot{}, nil
	}

	slots := availability.GenerateSlots(windows, date, svc.Location(), svc.Duration(), 0, s.clock.Now())
	if len(slots) == 0 {
		return []availability.Slot{}, nil
	}

	booked, err := repo.FindOverlapping(ctx, key, date, svc.BufferBeforeMinutes(), svc.BufferAfterMinutes())
	if err != nil {
		return nil, err
	}

	before := time.Duration(svc.BufferBeforeMinutes()) * time.Minute
	after := time.Duration(svc.BufferAfterMinutes()) * time.Minute
	for i := range slots {
		slots[i].MaxCapacity = svc.MaxCapacity()
		slots[i].RemainingCapacity = availability.EvaluateCapacity(slots[i], before, after, booked, svc.MaxCapacity())
	}
	return slots, nil
}

func filterOfferable(slots []availability.Slot, quantity int) []availability.Slot {
	out := make([]availability.Slot, 0, len(slots))
	for _, slot := range slots {
		if availability.Offerable(slot.RemainingCapacity, quantity) {
			out = append(out, slot)
		}
	}
	return out
}
