package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/catalog"
	"github.com/slotwise/service-scheduling/internal/events"
	"github.com/slotwise/service-scheduling/internal/locking"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"github.com/slotwise/service-scheduling/internal/ratelimit"
)

// EventPublisher publishes CloudEvents; satisfied by the Kafka producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to admit a booking.
type CreateBookingRequest struct {
	Resource        domain.ResourceKey
	Date            time.Time
	StartAt         time.Time
	Quantity        int
	Customer        booking.Customer
	Notes           string
	RequesterIP     string
	SoftLockToken   *uuid.UUID
	RequireApproval bool
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID                uuid.UUID          `json:"id"`
	ConfirmationToken string             `json:"confirmation_token"`
	Resource          domain.ResourceKey `json:"resource"`
	BookingDate       time.Time          `json:"booking_date"`
	StartAt           time.Time          `json:"start_at"`
	EndAt             time.Time          `json:"end_at"`
	Quantity          int                `json:"quantity"`
	Customer          booking.Customer   `json:"customer"`
	Status            string             `json:"status"`
	Notes             string             `json:"notes,omitempty"`
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty"`
	CancelNote        string             `json:"cancel_note,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// BookingService is the admission coordinator: it is the only component that
// turns a slot request into a durable reservation, and the per-slot-key
// mutual-exclusion lock it takes is the sole serialization point for
// conflicting attempts. Attempts on different slot keys run fully in
// parallel.
type BookingService struct {
	services     catalog.ServiceRepository
	reservations booking.ReservationRepository
	availability *AvailabilityService
	softLocks    *SoftLockService
	locker       locking.Locker
	limiter      *ratelimit.Limiter
	cache        *cache.AvailabilityCache
	producer     EventPublisher
	clock        clock.Clock
	logger       *zap.Logger
	lockWait     time.Duration
}

// NewBookingService creates a BookingService.
func NewBookingService(
	services catalog.ServiceRepository,
	reservations booking.ReservationRepository,
	availabilitySvc *AvailabilityService,
	softLocks *SoftLockService,
	locker locking.Locker,
	limiter *ratelimit.Limiter,
	availCache *cache.AvailabilityCache,
	producer EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
	lockWait time.Duration,
) *BookingService {
	if lockWait <= 0 {
		lockWait = 10 * time.Second
	}
	return &BookingService{
		services:     services,
		reservations: reservations,
		availability: availabilitySvc,
		softLocks:    softLocks,
		locker:       locker,
		limiter:      limiter,
		cache:        availCache,
		producer:     producer,
		clock:        clk,
		logger:       logger,
		lockWait:     lockWait,
	}
}

// CreateBooking admits a booking request against a slot. The sequence is:
// validate, rate-limit, acquire the per-slot mutex with a bounded wait, then
// inside one short transaction re-check the foreign soft lock and the
// remaining capacity and insert the reservation. The insert is additionally
// guarded by a storage uniqueness constraint; a violation there is the same
// conflict outcome as a failed pre-check, not a fault. Cache invalidation,
// soft-lock consumption and event publication happen after commit and can
// never un-admit the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*ReservationDTO, error) {
	svc, err := s.validateRequest(ctx, &req)
	if err != nil {
		return nil, err
	}
	quantity := svc.EffectiveQuantity(req.Quantity)
	endAt := req.StartAt.Add(svc.Duration())

	// Rate limits and the availability pre-check run before any lock is
	// taken; a limited or hopeless request never contends for the mutex.
	if err := s.checkRateLimits(ctx, req.Customer.Email, req.RequesterIP); err != nil {
		return nil, err
	}
	offerable, err := s.availability.IsSlotAvailable(ctx, req.Date, req.StartAt, endAt, req.Resource, quantity)
	if err != nil {
		return nil, err
	}
	if !offerable {
		return nil, domain.NewConflictError("slot is not available")
	}

	startMinute := req.StartAt.UTC().Hour()*60 + req.StartAt.UTC().Minute()
	slotKey := req.Resource.SlotKey(req.Date.UTC().Format("2006-01-02"), startMinute)

	guard, err := s.locker.Acquire(ctx, slotKey, s.lockWait)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := guard.Release(); releaseErr != nil {
			s.logger.Warn("failed to release slot lock",
				zap.String("slot", slotKey),
				zap.Error(releaseErr),
			)
		}
	}()

	var created *booking.Reservation
	err = s.reservations.InTransaction(ctx, func(txRepo booking.ReservationRepository) error {
		held, err := s.softLocks.IsLockedByOther(ctx, slotKey, req.SoftLockToken)
		if err != nil {
			return err
		}
		if held {
			return domain.NewConflictError("slot is held by another checkout")
		}

		remaining, err := s.availability.RemainingCapacityTx(ctx, txRepo, svc, req.Resource, req.Date, req.StartAt, endAt)
		if err != nil {
			return err
		}
		if remaining < quantity {
			return domain.NewConflictError("slot capacity exhausted")
		}

		res, err := booking.NewReservation(req.Resource, req.Date, req.StartAt, endAt, quantity, req.Customer, req.Notes)
		if err != nil {
			return err
		}
		if !req.RequireApproval {
			if err := res.Confirm(); err != nil {
				return err
			}
		}
		if err := txRepo.Save(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterAdmission(ctx, created, req.SoftLockToken)

	result := toReservationDTO(created)
	return &result, nil
}

// ConfirmBooking transitions a pending reservation to confirmed (admin).
func (s *BookingService) ConfirmBooking(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Confirm(); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, err
	}

	s.publishConfirmed(ctx, res)

	result := toReservationDTO(res)
	return &result, nil
}

// CancelBooking cancels a reservation by its confirmation token. The freed
// capacity becomes visible as soon as the date's cache entries are dropped.
func (s *BookingService) CancelBooking(ctx context.Context, token, reason string) (*ReservationDTO, error) {
	res, err := s.reservations.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(reason); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, err
	}

	s.invalidateCacheFor(res)
	s.publishCancelled(ctx, res, reason)

	result := toReservationDTO(res)
	return &result, nil
}

// GetBooking retrieves a reservation by its confirmation token.
func (s *BookingService) GetBooking(ctx context.Context, token string) (*ReservationDTO, error) {
	res, err := s.reservations.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds reservation statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all reservations (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	reservations, total, err := s.reservations.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate reservation statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalReservations: total, ByStatus: counts}, nil
}

// --- Helpers ---

func (s *BookingService) validateRequest(ctx context.Context, req *CreateBookingRequest) (*catalog.Service, error) {
	if err := req.Resource.Validate(); err != nil {
		return nil, err
	}
	if req.Customer.Name == "" || req.Customer.Email == "" {
		return nil, domain.NewFieldValidationError("customer identity is required", map[string]string{
			"customer.name":  "required",
			"customer.email": "required",
		})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.StartAt.IsZero() || req.Date.IsZero() {
		return nil, domain.NewValidationError("booking date and start time are required")
	}
	if req.StartAt.Before(s.clock.Now()) {
		return nil, domain.NewValidationError("booking start time is in the past")
	}

	svc, err := s.services.FindByID(ctx, req.Resource.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active() {
		return nil, domain.NewValidationError("service is no longer offered")
	}
	if req.Quantity > 1 && !svc.AllowQuantitySelection() {
		return nil, domain.NewValidationError("service does not allow quantity selection")
	}
	return svc, nil
}

func (s *BookingService) checkRateLimits(ctx context.Context, email, ip string) error {
	ok, err := s.limiter.Allow(ctx, ratelimit.ScopeEmail, email)
	if err != nil {
		return domain.NewInternalError("rate limiter unavailable", err)
	}
	if !ok {
		return domain.NewRateLimitError("this email address")
	}

	ok, err = s.limiter.Allow(ctx, ratelimit.ScopeIP, ip)
	if err != nil {
		return domain.NewInternalError("rate limiter unavailable", err)
	}
	if !ok {
		return domain.NewRateLimitError("this network address")
	}
	return nil
}

// afterAdmission runs the post-commit side effects. Failures here are logged
// and never surfaced: the booking is already durable.
func (s *BookingService) afterAdmission(ctx context.Context, res *booking.Reservation, softLockToken *uuid.UUID) {
	s.invalidateCacheFor(res)

	if softLockToken != nil {
		if _, err := s.softLocks.Release(ctx, *softLockToken); err != nil {
			s.logger.Warn("failed to consume soft lock",
				zap.String("token", softLockToken.String()),
				zap.Error(err),
			)
		}
	}

	if res.Status() == booking.StatusConfirmed {
		s.publishConfirmed(ctx, res)
	}
}

func (s *BookingService) invalidateCacheFor(res *booking.Reservation) {
	s.cache.InvalidateDate(res.BookingDate())
	s.cache.InvalidateTag(cache.EmployeeTag(res.Resource().EmployeePart()))
	s.cache.InvalidateTag(cache.ServiceTag(res.Resource().ServiceID.String()))
}

func (s *BookingService) publishConfirmed(ctx context.Context, res *booking.Reservation) {
	evt := events.BookingConfirmedEvent{
		ReservationID:     res.ID(),
		ConfirmationToken: res.ConfirmationToken(),
		Resource:          res.Resource(),
		BookingDate:       res.BookingDate(),
		StartAt:           res.StartAt(),
		EndAt:             res.EndAt(),
		Quantity:          res.Quantity(),
		CustomerName:      res.Customer().Name,
		CustomerEmail:     res.Customer().Email,
		OccurredAt:        s.clock.Now(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, res.ID().String(), evt)
}

func (s *BookingService) publishCancelled(ctx context.Context, res *booking.Reservation, reason string) {
	evt := events.BookingCancelledEvent{
		ReservationID:     res.ID(),
		ConfirmationToken: res.ConfirmationToken(),
		Resource:          res.Resource(),
		BookingDate:       res.BookingDate(),
		StartAt:           res.StartAt(),
		EndAt:             res.EndAt(),
		Quantity:          res.Quantity(),
		CustomerEmail:     res.Customer().Email,
		Reason:            reason,
		OccurredAt:        s.clock.Now(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, res.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-scheduling", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toReservationDTO(res *booking.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:                res.ID(),
		ConfirmationToken: res.ConfirmationToken(),
		Resource:          res.Resource(),
		BookingDate:       res.BookingDate(),
		StartAt:           res.StartAt(),
		EndAt:             res.EndAt(),
		Quantity:          res.Quantity(),
		Customer:          res.Customer(),
		Status:            string(res.Status()),
		Notes:             res.Notes(),
		CancelledAt:       res.CancelledAt(),
		CancelNote:        res.CancelNote(),
		CreatedAt:         res.CreatedAt(),
		UpdatedAt:         res.UpdatedAt(),
	}
}
