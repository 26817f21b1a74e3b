package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

const confirmationTokenChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Customer identifies the person the reservation is for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Reservation is the aggregate root for a booked slot. Time and resource
// fields are immutable after creation; a reschedule is modeled as cancel plus
// create. Only status transitions mutate the record.
type Reservation struct {
	id                uuid.UUID
	confirmationToken string
	resource          domain.ResourceKey
	bookingDate       time.Time // UTC midnight of the slot's calendar date
	startAt           time.Time // UTC
	endAt             time.Time // UTC
	quantity          int
	customer          Customer
	status            ReservationStatus
	notes             string
	cancelledAt       *time.Time
	cancelNote        string
	version           int64
	createdAt         time.Time
	updatedAt         time.Time
}

// generateConfirmationToken creates a token in the format "RSV-XXXXXXXX".
func generateConfirmationToken() (string, error) {
	result := make([]byte, 8)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(confirmationTokenChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation token: %w", err)
		}
		result[i] = confirmationTokenChars[n.Int64()]
	}
	return "RSV-" + string(result), nil
}

// NewReservation creates a new Reservation with status=pending.
func NewReservation(
	resource domain.ResourceKey,
	bookingDate, startAt, endAt time.Time,
	quantity int,
	customer Customer,
	notes string,
) (*Reservation, error) {
	if err := resource.Validate(); err != nil {
		return nil, err
	}
	if !startAt.Before(endAt) {
		return nil, domain.NewValidationError("reservation start must precede end")
	}
	if quantity < 1 {
		return nil, domain.NewValidationError("quantity must be at least 1")
	}
	if customer.Name == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if customer.Email == "" {
		return nil, domain.NewValidationError("customer email is required")
	}

	token, err := generateConfirmationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Reservation{
		id:                uuid.New(),
		confirmationToken: token,
		resource:          resource,
		bookingDate:       bookingDate.UTC().Truncate(24 * time.Hour),
		startAt:           startAt.UTC(),
		endAt:             endAt.UTC(),
		quantity:          quantity,
		customer:          customer,
		status:            StatusPending,
		notes:             notes,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	confirmationToken string,
	resource domain.ResourceKey,
	bookingDate, startAt, endAt time.Time,
	quantity int,
	customer Customer,
	status ReservationStatus,
	notes string,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                id,
		confirmationToken: confirmationToken,
		resource:          resource,
		bookingDate:       bookingDate,
		startAt:           startAt,
		endAt:             endAt,
		quantity:          quantity,
		customer:          customer,
		status:            status,
		notes:             notes,
		cancelledAt:       cancelledAt,
		cancelNote:        cancelNote,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

func (r *Reservation) ID() uuid.UUID                 { return r.id }
func (r *Reservation) ConfirmationToken() string     { return r.confirmationToken }
func (r *Reservation) Resource() domain.ResourceKey  { return r.resource }
func (r *Reservation) BookingDate() time.Time        { return r.bookingDate }
func (r *Reservation) StartAt() time.Time            { return r.startAt }
func (r *Reservation) EndAt() time.Time              { return r.endAt }
func (r *Reservation) Quantity() int                 { return r.quantity }
func (r *Reservation) Customer() Customer            { return r.customer }
func (r *Reservation) Status() ReservationStatus     { return r.status }
func (r *Reservation) Notes() string                 { return r.notes }
func (r *Reservation) CancelledAt() *time.Time       { return r.cancelledAt }
func (r *Reservation) CancelNote() string            { return r.cancelNote }
func (r *Reservation) Version() int64                { return r.version }
func (r *Reservation) CreatedAt() time.Time          { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time          { return r.updatedAt }

// --- Behavior ---

// Confirm transitions the reservation from pending to confirmed.
func (r *Reservation) Confirm() error {
	if !r.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(r.status), string(StatusConfirmed))
	}
	r.status = StatusConfirmed
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the reservation to cancelled with a reason.
func (r *Reservation) Cancel(reason string) error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	r.status = StatusCancelled
	r.cancelNote = reason
	r.cancelledAt = &now
	r.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
