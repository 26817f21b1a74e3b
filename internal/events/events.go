package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicCalendarEvents = "calendar.events"
)

// Event types.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	CalendarSynced   = "calendar.synced"
)

// BookingConfirmedEvent announces a durably admitted reservation. Consumed
// by the notification, calendar-sync and commerce services; delivery is
// best-effort at-least-once, so consumers must be idempotent.
type BookingConfirmedEvent struct {
	ReservationID     uuid.UUID          `json:"reservation_id"`
	ConfirmationToken string             `json:"confirmation_token"`
	Resource          domain.ResourceKey `json:"resource"`
	BookingDate       time.Time          `json:"booking_date"`
	StartAt           time.Time          `json:"start_at"`
	EndAt             time.Time          `json:"end_at"`
	Quantity          int                `json:"quantity"`
	CustomerName      string             `json:"customer_name"`
	CustomerEmail     string             `json:"customer_email"`
	OccurredAt        time.Time          `json:"occurred_at"`
}

// BookingCancelledEvent announces a cancelled reservation, same shape as the
// confirmation event plus the reason.
type BookingCancelledEvent struct {
	ReservationID     uuid.UUID          `json:"reservation_id"`
	ConfirmationToken string             `json:"confirmation_token"`
	Resource          domain.ResourceKey `json:"resource"`
	BookingDate       time.Time          `json:"booking_date"`
	StartAt           time.Time          `json:"start_at"`
	EndAt             time.Time          `json:"end_at"`
	Quantity          int                `json:"quantity"`
	CustomerEmail     string             `json:"customer_email"`
	Reason            string             `json:"reason,omitempty"`
	OccurredAt        time.Time          `json:"occurred_at"`
}

// CalendarSyncedEvent is published by the external calendar-sync service
// after it pulls events from a provider; the dates it names may have gained
// or lost busy blocks, so their cached availability is stale.
type CalendarSyncedEvent struct {
	EmployeeID uuid.UUID   `json:"employee_id"`
	Dates      []time.Time `json:"dates"`
	Provider   string      `json:"provider"`
	OccurredAt time.Time   `json:"occurred_at"`
}
