package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
)

// ScheduleService manages schedule rules and blackout ranges (admin surface).
// Every write invalidates the availability cache for the affected employee
// and, for event rules and blackouts, the affected dates.
type ScheduleService struct {
	rules     schedule.RuleRepository
	blackouts schedule.BlackoutRepository
	cache     *cache.AvailabilityCache
	logger    *zap.Logger
}

// NewScheduleService creates a ScheduleService.
func NewScheduleService(
	rules schedule.RuleRepository,
	blackouts schedule.BlackoutRepository,
	availCache *cache.AvailabilityCache,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{rules: rules, blackouts: blackouts, cache: availCache, logger: logger}
}

// CreateRule validates and persists a schedule rule.
func (s *ScheduleService) CreateRule(ctx context.Context, rule schedule.Rule) (*schedule.Rule, error) {
	rule.ID = uuid.New()
	rule.Active = true
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.rules.Save(ctx, &rule); err != nil {
		return nil, err
	}

	s.invalidateForRule(rule)
	s.logger.Info("schedule rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("kind", string(rule.Kind)),
	)
	return &rule, nil
}

// DeactivateRule retires a rule; its windows stop contributing immediately.
func (s *ScheduleService) DeactivateRule(ctx context.Context, id uuid.UUID) error {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.Deactivate(ctx, id); err != nil {
		return err
	}

	s.invalidateForRule(*rule)
	return nil
}

// ListRules returns a paginated list of all rules.
func (s *ScheduleService) ListRules(ctx context.Context, page, limit int) ([]schedule.Rule, int64, error) {
	return s.rules.ListAll(ctx, page, limit)
}

// CreateBlackout validates and persists a blackout range.
func (s *ScheduleService) CreateBlackout(ctx context.Context, blackout schedule.BlackoutRange) (*schedule.BlackoutRange, error) {
	blackout.ID = uuid.New()
	blackout.Active = true
	blackout.StartDate = blackout.StartDate.UTC().Truncate(24 * time.Hour)
	blackout.EndDate = blackout.EndDate.UTC().Truncate(24 * time.Hour)
	if err := blackout.Validate(); err != nil {
		return nil, err
	}
	if err := validateBlackoutWindow(blackout); err != nil {
		return nil, err
	}
	if err := s.blackouts.Save(ctx, &blackout); err != nil {
		return nil, err
	}

	s.invalidateForBlackout(blackout)
	s.logger.Info("blackout created",
		zap.String("blackout_id", blackout.ID.String()),
		zap.Time("start", blackout.StartDate),
		zap.Time("end", blackout.EndDate),
	)
	return &blackout, nil
}

// DeactivateBlackout lifts a blackout range.
func (s *ScheduleService) DeactivateBlackout(ctx context.Context, id uuid.UUID) error {
	blackout, err := s.blackouts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blackouts.Deactivate(ctx, id); err != nil {
		return err
	}

	s.invalidateForBlackout(*blackout)
	return nil
}

// ListBlackouts returns a paginated list of all blackout ranges.
func (s *ScheduleService) ListBlackouts(ctx context.Context, page, limit int) ([]schedule.BlackoutRange, int64, error) {
	return s.blackouts.ListAll(ctx, page, limit)
}

func (s *ScheduleService) invalidateForRule(rule schedule.Rule) {
	if rule.EmployeeID != nil {
		s.cache.InvalidateTag(cache.EmployeeTag(rule.EmployeeID.String()))
	}
	if rule.ServiceID != nil {
		s.cache.InvalidateTag(cache.ServiceTag(rule.ServiceID.String()))
	}
	if rule.Kind == schedule.RuleKindEvent && rule.EventDate != nil {
		s.cache.InvalidateDate(*rule.EventDate)
		return
	}
	if rule.EmployeeID == nil && rule.ServiceID == nil {
		// An unscoped recurring rule matches every resource key, so every
		// cached day is stale regardless of which employee it was read for.
		s.cache.InvalidateAll()
	}
}

func (s *ScheduleService) invalidateForBlackout(blackout schedule.BlackoutRange) {
	for d := blackout.StartDate; !d.After(blackout.EndDate); d = d.Add(24 * time.Hour) {
		s.cache.InvalidateDate(d)
	}
}

// validateBlackoutWindow rejects a blackout wider than a year; a typo'd year
// range would otherwise loop over thousands of cache tags.
func validateBlackoutWindow(blackout schedule.BlackoutRange) error {
	if blackout.EndDate.Sub(blackout.StartDate) > 366*24*time.Hour {
		return domain.NewValidationError("blackout range cannot exceed one year")
	}
	return nil
}
