package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// BlackoutRange excludes all availability on every date in [StartDate,
// EndDate] inclusive. A range may scope to a location or an employee; with
// neither it applies globally.
type BlackoutRange struct {
	ID         uuid.UUID
	StartDate  time.Time // UTC midnight
	EndDate    time.Time // UTC midnight, inclusive
	EmployeeID *uuid.UUID
	LocationID *uuid.UUID
	Reason     string
	Active     bool
}

// Validate enforces the blackout invariants.
func (b BlackoutRange) Validate() error {
	if b.EndDate.Before(b.StartDate) {
		return domain.NewValidationError("blackout end date cannot precede start date")
	}
	return nil
}

// Contains reports whether the range covers the date.
func (b BlackoutRange) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}

// appliesTo reports whether the range affects the resource key. Global
// ranges affect everything; scoped ranges only their employee or location.
func (b BlackoutRange) appliesTo(key domain.ResourceKey) bool {
	if b.EmployeeID == nil && b.LocationID == nil {
		return true
	}
	if b.EmployeeID != nil && key.EmployeeID != nil && *b.EmployeeID == *key.EmployeeID {
		return true
	}
	if b.LocationID != nil && key.LocationID != nil && *b.LocationID == *key.LocationID {
		return true
	}
	return false
}

// IsBlackedOut reports whether any active range blanks the date for the
// resource. Blackout is absolute: a hit removes the whole day, never a
// partial window.
func IsBlackedOut(ranges []BlackoutRange, key domain.ResourceKey, date time.Time) bool {
	for _, b := range ranges {
		if !b.Active {
			continue
		}
		if b.appliesTo(key) && b.Contains(date) {
			return true
		}
	}
	return false
}
