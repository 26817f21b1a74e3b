package booking

import "fmt"

// ReservationStatus represents the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// validTransitions defines the reservation state machine.
var validTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized reservation status.
func (s ReservationStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// CountsAgainstCapacity reports whether a reservation in this status consumes
// slot capacity. Cancelled reservations never do.
func (s ReservationStatus) CountsAgainstCapacity() bool {
	return s != StatusCancelled
}

// String returns the string representation of the status.
func (s ReservationStatus) String() string {
	return string(s)
}

// ParseReservationStatus converts a string to a ReservationStatus, returning an error if invalid.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}
