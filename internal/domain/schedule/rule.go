package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// RuleKind distinguishes weekly recurring rules from one-off event-date rules.
type RuleKind string

const (
	RuleKindRecurring RuleKind = "recurring"
	RuleKindEvent     RuleKind = "event"
)

// Weekday numbering follows ISO-8601: 1=Monday … 7=Sunday.
type Weekday int

// ISOWeekday converts a time.Weekday to the 1–7 numbering.
func ISOWeekday(d time.Weekday) Weekday {
	if d == time.Sunday {
		return 7
	}
	return Weekday(int(d))
}

// Window is a half-open [Start, End) interval in minutes since local midnight.
type Window struct {
	StartMinute int
	EndMinute   int
}

// Overlaps reports whether two windows cover a common instant.
func (w Window) Overlaps(other Window) bool {
	return w.StartMinute < other.EndMinute && w.EndMinute > other.StartMinute
}

// Rule is a single availability rule. Recurring rules carry a weekday set and
// apply indefinitely while active; event rules carry one concrete date.
// Either may scope to an employee, location and/or service; a nil scope field
// means the rule applies to all values of that dimension.
type Rule struct {
	ID          uuid.UUID
	Kind        RuleKind
	Weekdays    []Weekday  // recurring only
	EventDate   *time.Time // event only, date at UTC midnight
	StartMinute int
	EndMinute   int
	EmployeeID  *uuid.UUID
	LocationID  *uuid.UUID
	ServiceID   *uuid.UUID
	Active      bool
}

// Validate enforces the rule invariants.
func (r Rule) Validate() error {
	if r.StartMinute < 0 || r.EndMinute > 24*60 {
		return domain.NewValidationError("rule times must fall within one day")
	}
	if r.StartMinute >= r.EndMinute {
		return domain.NewValidationError("rule start time must precede end time")
	}
	switch r.Kind {
	case RuleKindRecurring:
		if len(r.Weekdays) == 0 {
			return domain.NewValidationError("recurring rule requires at least one weekday")
		}
		for _, d := range r.Weekdays {
			if d < 1 || d > 7 {
				return domain.NewValidationError("weekday numbers must be 1-7")
			}
		}
	case RuleKindEvent:
		if r.EventDate == nil {
			return domain.NewValidationError("event rule requires an event date")
		}
	default:
		return domain.NewValidationError("unknown rule kind")
	}
	return nil
}

// Window returns the rule's open window.
func (r Rule) Window() Window {
	return Window{StartMinute: r.StartMinute, EndMinute: r.EndMinute}
}

// appliesToWeekday reports whether a recurring rule covers the weekday.
func (r Rule) appliesToWeekday(d Weekday) bool {
	for _, wd := range r.Weekdays {
		if wd == d {
			return true
		}
	}
	return false
}

// matchesScope reports whether the rule applies to the resource key. A rule
// scoped to a specific employee only matches requests for that employee;
// an unscoped rule matches all.
func (r Rule) matchesScope(key domain.ResourceKey) bool {
	if r.ServiceID != nil && *r.ServiceID != key.ServiceID {
		return false
	}
	if r.EmployeeID != nil {
		if key.EmployeeID == nil || *r.EmployeeID != *key.EmployeeID {
			return false
		}
	}
	if r.LocationID != nil {
		if key.LocationID == nil || *r.LocationID != *key.LocationID {
			return false
		}
	}
	return true
}
