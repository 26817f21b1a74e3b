package availability

import (
	"time"

	"github.com/slotwise/service-scheduling/internal/domain/booking"
)

// EvaluateCapacity computes the remaining capacity of a candidate slot given
// the buffered intervals of existing non-cancelled reservations for the same
// bookable unit. Both sides are buffered: the candidate by the service
// buffers here, the stored reservations by the repository query. Capacity is
// intentionally scoped to one bookable unit; two different services sharing a
// physical resource are not capacity-coupled at this layer.
func EvaluateCapacity(slot Slot, bufferBefore, bufferAfter time.Duration, booked []booking.BookedInterval, maxCapacity int) int {
	if maxCapacity < 1 {
		maxCapacity = 1
	}

	candidate := slot.Buffered(bufferBefore, bufferAfter)
	used := 0
	for _, b := range booked {
		if candidate.Overlaps(b.StartAt, b.EndAt) {
			used += b.Quantity
		}
	}

	remaining := maxCapacity - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Offerable reports whether the slot can satisfy the requested quantity.
func Offerable(remaining, requested int) bool {
	if requested < 1 {
		requested = 1
	}
	return remaining >= requested
}
