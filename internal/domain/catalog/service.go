package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// Service is the aggregate root for a bookable service definition. Capacity
// lives here: MaxCapacity is the number of concurrent booking units a single
// slot can hold, and AllowQuantitySelection lets one reservation consume more
// than one unit. Legacy services keep the degenerate capacity of 1.
type Service struct {
	id                     uuid.UUID
	name                   string
	durationMinutes        int
	bufferBeforeMinutes    int
	bufferAfterMinutes     int
	maxCapacity            int
	allowQuantitySelection bool
	priceCents             *int64
	timezone               string
	active                 bool
	version                int64
	createdAt              time.Time
	updatedAt              time.Time
}

// NewService creates an active service definition with validated fields.
func NewService(
	name string,
	durationMinutes, bufferBeforeMinutes, bufferAfterMinutes, maxCapacity int,
	allowQuantitySelection bool,
	priceCents *int64,
	timezone string,
) (*Service, error) {
	if name == "" {
		return nil, domain.NewValidationError("service name is required")
	}
	if durationMinutes <= 0 {
		return nil, domain.NewValidationError("service duration must be positive")
	}
	if bufferBeforeMinutes < 0 || bufferAfterMinutes < 0 {
		return nil, domain.NewValidationError("buffers cannot be negative")
	}
	if maxCapacity < 1 {
		return nil, domain.NewValidationError("max capacity must be at least 1")
	}
	if priceCents != nil && *priceCents < 0 {
		return nil, domain.NewValidationError("price cannot be negative")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, domain.NewValidationError("unknown timezone: " + timezone)
	}

	now := time.Now().UTC()
	return &Service{
		id:                     uuid.New(),
		name:                   name,
		durationMinutes:        durationMinutes,
		bufferBeforeMinutes:    bufferBeforeMinutes,
		bufferAfterMinutes:     bufferAfterMinutes,
		maxCapacity:            maxCapacity,
		allowQuantitySelection: allowQuantitySelection,
		priceCents:             priceCents,
		timezone:               timezone,
		active:                 true,
		version:                1,
		createdAt:              now,
		updatedAt:              now,
	}, nil
}

// Reconstruct rebuilds a Service from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name string,
	durationMinutes, bufferBeforeMinutes, bufferAfterMinutes, maxCapacity int,
	allowQuantitySelection bool,
	priceCents *int64,
	timezone string,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Service {
	return &Service{
		id:                     id,
		name:                   name,
		durationMinutes:        durationMinutes,
		bufferBeforeMinutes:    bufferBeforeMinutes,
		bufferAfterMinutes:     bufferAfterMinutes,
		maxCapacity:            maxCapacity,
		allowQuantitySelection: allowQuantitySelection,
		priceCents:             priceCents,
		timezone:               timezone,
		active:                 active,
		version:                version,
		createdAt:              createdAt,
		updatedAt:              updatedAt,
	}
}

// --- Getters ---

func (s *Service) ID() uuid.UUID                { return s.id }
func (s *Service) Name() string                 { return s.name }
func (s *Service) DurationMinutes() int         { return s.durationMinutes }
func (s *Service) BufferBeforeMinutes() int     { return s.bufferBeforeMinutes }
func (s *Service) BufferAfterMinutes() int      { return s.bufferAfterMinutes }
func (s *Service) MaxCapacity() int             { return s.maxCapacity }
func (s *Service) AllowQuantitySelection() bool { return s.allowQuantitySelection }
func (s *Service) PriceCents() *int64           { return s.priceCents }
func (s *Service) Timezone() string             { return s.timezone }
func (s *Service) Active() bool                 { return s.active }
func (s *Service) Version() int64               { return s.version }
func (s *Service) CreatedAt() time.Time         { return s.createdAt }
func (s *Service) UpdatedAt() time.Time         { return s.updatedAt }

// Duration returns the service duration as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.durationMinutes) * time.Minute
}

// Location resolves the service's timezone. Falls back to UTC for names that
// validated at creation and later disappeared from the zone database.
func (s *Service) Location() *time.Location {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EffectiveQuantity clamps the requested quantity for services that do not
// allow quantity selection.
func (s *Service) EffectiveQuantity(requested int) int {
	if !s.allowQuantitySelection {
		return 1
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// Deactivate archives the service so it is no longer offered.
func (s *Service) Deactivate() {
	s.active = false
	s.version++
	s.updatedAt = time.Now().UTC()
}
