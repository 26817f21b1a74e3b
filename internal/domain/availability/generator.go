package availability

import (
	"sort"
	"time"

	"github.com/slotwise/service-scheduling/internal/domain/schedule"
)

// GenerateSlots slices the open windows for a date into candidate slots of
// the given duration at the given stride (stride <= 0 defaults to the
// duration). Window minutes are interpreted as wall-clock time in loc and the
// emitted instants are UTC. Slots that would start in the past relative to
// now are suppressed, which only bites when the target date is today. Output
// is ascending by start and stable across windows from different rules.
func GenerateSlots(windows []schedule.Window, date time.Time, loc *time.Location, duration, stride time.Duration, now time.Time) []Slot {
	if duration <= 0 {
		return nil
	}
	if stride <= 0 {
		stride = duration
	}

	y, m, d := date.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var slots []Slot
	for _, w := range windows {
		windowStart := midnight.Add(time.Duration(w.StartMinute) * time.Minute)
		windowEnd := midnight.Add(time.Duration(w.EndMinute) * time.Minute)

		for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(stride) {
			if t.Before(now) {
				continue
			}
			slots = append(slots, Slot{
				StartAt: t.UTC(),
				EndAt:   t.Add(duration).UTC(),
			})
		}
	}

	// Windows are resolver-ordered but may interleave; keep emission order
	// for equal starts.
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartAt.Before(slots[j].StartAt)
	})
	return slots
}
