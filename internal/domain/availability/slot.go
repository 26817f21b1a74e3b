package availability

import "time"

// Slot is a concrete offerable [StartAt, EndAt) interval for a resource on a
// date, with its remaining capacity at computation time.
type Slot struct {
	StartAt           time.Time `json:"start"`
	EndAt             time.Time `json:"end"`
	RemainingCapacity int       `json:"remaining_capacity"`
	MaxCapacity       int       `json:"max_capacity"`
}

// BufferedInterval returns the slot interval widened by the service buffers.
type BufferedInterval struct {
	StartAt time.Time
	EndAt   time.Time
}

// Buffered widens the slot by the given buffers.
func (s Slot) Buffered(before, after time.Duration) BufferedInterval {
	return BufferedInterval{
		StartAt: s.StartAt.Add(-before),
		EndAt:   s.EndAt.Add(after),
	}
}

// Overlaps reports whether the buffered interval covers any instant of
// [start, end).
func (b BufferedInterval) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && b.EndAt.After(start)
}
