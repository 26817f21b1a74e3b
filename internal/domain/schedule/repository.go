package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// RuleRepository defines persistence operations for schedule rules.
type RuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// FindForDate retrieves the active rules that could apply to the
	// resource on the date: recurring rules for its weekday plus event
	// rules for the date itself. Scope filtering happens in the resolver.
	FindForDate(ctx context.Context, key domain.ResourceKey, date time.Time) ([]Rule, error)

	ListAll(ctx context.Context, page, limit int) ([]Rule, int64, error)
	Save(ctx context.Context, rule *Rule) error
	Update(ctx context.Context, rule *Rule) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// BlackoutRepository defines persistence operations for blackout ranges.
type BlackoutRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BlackoutRange, error)

	// FindCovering retrieves the active ranges whose span contains the date.
	FindCovering(ctx context.Context, date time.Time) ([]BlackoutRange, error)

	ListAll(ctx context.Context, page, limit int) ([]BlackoutRange, int64, error)
	Save(ctx context.Context, blackout *BlackoutRange) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
