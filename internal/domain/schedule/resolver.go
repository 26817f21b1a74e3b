package schedule

import (
	"sort"
	"time"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// ResolveWindows computes the open windows for a resource on a date from the
// given rules. Active recurring rules matching the date's weekday and active
// event rules matching the date itself both contribute; where an event window
// overlaps a recurring window the event wins and the recurring window is
// dropped. An empty result means no availability that day and is not an
// error. Windows come back ordered by start minute.
func ResolveWindows(rules []Rule, key domain.ResourceKey, date time.Time) []Window {
	weekday := ISOWeekday(date.Weekday())
	day := date.Truncate(24 * time.Hour)

	var event, recurring []Window
	for _, r := range rules {
		if !r.Active || !r.matchesScope(key) {
			continue
		}
		switch r.Kind {
		case RuleKindEvent:
			if r.EventDate != nil && r.EventDate.Truncate(24*time.Hour).Equal(day) {
				event = append(event, r.Window())
			}
		case RuleKindRecurring:
			if r.appliesToWeekday(weekday) {
				recurring = append(recurring, r.Window())
			}
		}
	}

	windows := make([]Window, 0, len(event)+len(recurring))
	windows = append(windows, event...)
	for _, rw := range recurring {
		shadowed := false
		for _, ew := range event {
			if rw.Overlaps(ew) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			windows = append(windows, rw)
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].StartMinute < windows[j].StartMinute
	})
	return windows
}
