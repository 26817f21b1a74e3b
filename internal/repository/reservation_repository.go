package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/service-scheduling/internal/domain"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
)

// ReservationModel is the GORM model for the reservations table. The partial
// unique index over the slot identity and customer email (non-cancelled rows
// only, created in EnsureIndexes) is the storage-level second line of
// defense behind the admission lock.
type ReservationModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ConfirmationToken string     `gorm:"uniqueIndex;not null;size:20"`
	ServiceID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_reservations_slot"`
	EmployeeID        *uuid.UUID `gorm:"type:uuid;index:idx_reservations_slot"`
	LocationID        *uuid.UUID `gorm:"type:uuid"`
	BookingDate       time.Time  `gorm:"not null;index"`
	StartAt           time.Time  `gorm:"not null;index:idx_reservations_slot"`
	EndAt             time.Time  `gorm:"not null"`
	Quantity          int        `gorm:"not null;default:1"`
	CustomerName      string     `gorm:"not null;size:200"`
	CustomerEmail     string     `gorm:"not null;size:254;index"`
	CustomerPhone     string     `gorm:"size:40"`
	Status            string     `gorm:"not null;size:20;index"`
	Notes             string     `gorm:"size:1000"`
	CancelledAt       *time.Time `gorm:""`
	CancelNote        string     `gorm:"size:500"`
	Version           int64      `gorm:"not null;default:1"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// EnsureReservationIndexes creates the partial unique index that AutoMigrate
// cannot express: one live reservation per slot identity per customer.
func EnsureReservationIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_reservations_live_slot
		ON reservations (booking_date, start_at, end_at, service_id, COALESCE(employee_id, '00000000-0000-0000-0000-000000000000'), customer_email)
		WHERE status <> 'cancelled'
	`).Error
}

// GormReservationRepository is the GORM-based implementation of ReservationRepository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, domain.NewInternalError("failed to find reservation by ID", err)
	}
	return toDomainReservation(&model)
}

// FindByToken retrieves a reservation by its confirmation token.
func (r *GormReservationRepository) FindByToken(ctx context.Context, token string) (*bookingDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("confirmation_token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", token)
		}
		return nil, domain.NewInternalError("failed to find reservation by token", err)
	}
	return toDomainReservation(&model)
}

// FindOverlapping returns the buffered intervals of non-cancelled
// reservations for the same bookable unit on the date. Stored intervals are
// widened by the service buffers before the overlap test, matching the
// candidate-side widening in the capacity evaluator. Capacity is scoped to
// one unit: same service, and same employee when the key names one.
func (r *GormReservationRepository) FindOverlapping(ctx context.Context, key domain.ResourceKey, date time.Time, bufferBefore, bufferAfter int) ([]bookingDomain.BookedInterval, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	q := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("booking_date = ?", day).
		Where("service_id = ?", key.ServiceID).
		Where("status <> ?", string(bookingDomain.StatusCancelled))
	if key.EmployeeID != nil {
		q = q.Where("employee_id = ?", *key.EmployeeID)
	} else {
		q = q.Where("employee_id IS NULL")
	}

	var models []ReservationModel
	if err := q.Order("start_at ASC").Find(&models).Error; err != nil {
		return nil, domain.NewInternalError("failed to query overlapping reservations", err)
	}

	before := time.Duration(bufferBefore) * time.Minute
	after := time.Duration(bufferAfter) * time.Minute
	intervals := make([]bookingDomain.BookedInterval, len(models))
	for i, m := range models {
		intervals[i] = bookingDomain.BookedInterval{
			StartAt:  m.StartAt.Add(-before),
			EndAt:    m.EndAt.Add(after),
			Quantity: m.Quantity,
		}
	}
	return intervals, nil
}

// ListAll retrieves all reservations with pagination (admin).
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count reservations", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to list reservations", err)
	}

	reservations := make([]*bookingDomain.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, 0, err
		}
		reservations[i] = res
	}
	return reservations, total, nil
}

// CountByStatus returns reservation counts grouped by status (admin).
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, domain.NewInternalError("failed to count by status", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new reservation. A uniqueness violation on the live slot
// index surfaces as a conflict: the race was prevented, not a fault.
func (r *GormReservationRepository) Save(ctx context.Context, res *bookingDomain.Reservation) error {
	model := toReservationModel(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("slot was booked by a concurrent request")
		}
		return domain.NewInternalError("failed to save reservation", err)
	}
	return nil
}

// Update persists a status transition with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *bookingDomain.Reservation) error {
	model := toReservationModel(res)

	// IncrementVersion was called, so the stored row must still be one behind.
	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"cancelled_at": model.CancelledAt,
			"cancel_note":  model.CancelNote,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewInternalError("failed to update reservation", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// InTransaction runs fn with a repository bound to one database transaction.
func (r *GormReservationRepository) InTransaction(ctx context.Context, fn func(bookingDomain.ReservationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormReservationRepository{db: tx})
	})
}

// --- Conversion Helpers ---

func toReservationModel(res *bookingDomain.Reservation) *ReservationModel {
	key := res.Resource()
	return &ReservationModel{
		ID:                res.ID(),
		ConfirmationToken: res.ConfirmationToken(),
		ServiceID:         key.ServiceID,
		EmployeeID:        key.EmployeeID,
		LocationID:        key.LocationID,
		BookingDate:       res.BookingDate(),
		StartAt:           res.StartAt(),
		EndAt:             res.EndAt(),
		Quantity:          res.Quantity(),
		CustomerName:      res.Customer().Name,
		CustomerEmail:     res.Customer().Email,
		CustomerPhone:     res.Customer().Phone,
		Status:            string(res.Status()),
		Notes:             res.Notes(),
		CancelledAt:       res.CancelledAt(),
		CancelNote:        res.CancelNote(),
		Version:           res.Version(),
		CreatedAt:         res.CreatedAt(),
		UpdatedAt:         res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*bookingDomain.Reservation, error) {
	status, err := bookingDomain.ParseReservationStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation row %s: %w", m.ID, err)
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.ConfirmationToken,
		domain.ResourceKey{ServiceID: m.ServiceID, EmployeeID: m.EmployeeID, LocationID: m.LocationID},
		m.BookingDate,
		m.StartAt,
		m.EndAt,
		m.Quantity,
		bookingDomain.Customer{Name: m.CustomerName, Email: m.CustomerEmail, Phone: m.CustomerPhone},
		status,
		m.Notes,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
