package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
)

// BlackoutModel is the GORM model for the blackout_ranges table.
type BlackoutModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StartDate  time.Time  `gorm:"not null;index"`
	EndDate    time.Time  `gorm:"not null;index"`
	EmployeeID *uuid.UUID `gorm:"type:uuid"`
	LocationID *uuid.UUID `gorm:"type:uuid"`
	Reason     string     `gorm:"size:500"`
	Active     bool       `gorm:"not null;default:true;index"`
	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BlackoutModel) TableName() string {
	return "blackout_ranges"
}

// GormBlackoutRepository is the GORM-based implementation of BlackoutRepository.
type GormBlackoutRepository struct {
	db *gorm.DB
}

// NewGormBlackoutRepository creates a new GormBlackoutRepository.
func NewGormBlackoutRepository(db *gorm.DB) *GormBlackoutRepository {
	return &GormBlackoutRepository{db: db}
}

// FindByID retrieves a blackout range by its unique identifier.
func (r *GormBlackoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.BlackoutRange, error) {
	var model BlackoutModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("BlackoutRange", id.String())
		}
		return nil, domain.NewInternalError("failed to find blackout range by ID", err)
	}
	blackout := toDomainBlackout(&model)
	return &blackout, nil
}

// FindCovering retrieves the active ranges whose span contains the date.
func (r *GormBlackoutRepository) FindCovering(ctx context.Context, date time.Time) ([]schedule.BlackoutRange, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	var models []BlackoutModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Find(&models).Error; err != nil {
		return nil, domain.NewInternalError("failed to query blackout ranges", err)
	}

	ranges := make([]schedule.BlackoutRange, len(models))
	for i, m := range models {
		ranges[i] = toDomainBlackout(&m)
	}
	return ranges, nil
}

// ListAll retrieves all blackout ranges with pagination (admin).
func (r *GormBlackoutRepository) ListAll(ctx context.Context, page, limit int) ([]schedule.BlackoutRange, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BlackoutModel{}).Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count blackout ranges", err)
	}

	var models []BlackoutModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to list blackout ranges", err)
	}

	ranges := make([]schedule.BlackoutRange, len(models))
	for i, m := range models {
		ranges[i] = toDomainBlackout(&m)
	}
	return ranges, total, nil
}

// Save persists a new blackout range.
func (r *GormBlackoutRepository) Save(ctx context.Context, blackout *schedule.BlackoutRange) error {
	now := time.Now().UTC()
	model := &BlackoutModel{
		ID:         blackout.ID,
		StartDate:  blackout.StartDate,
		EndDate:    blackout.EndDate,
		EmployeeID: blackout.EmployeeID,
		LocationID: blackout.LocationID,
		Reason:     blackout.Reason,
		Active:     blackout.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewInternalError("failed to save blackout range", err)
	}
	return nil
}

// Deactivate soft-disables a blackout range.
func (r *GormBlackoutRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&BlackoutModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return domain.NewInternalError("failed to deactivate blackout range", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("BlackoutRange", id.String())
	}
	return nil
}

func toDomainBlackout(m *BlackoutModel) schedule.BlackoutRange {
	return schedule.BlackoutRange{
		ID:         m.ID,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		EmployeeID: m.EmployeeID,
		LocationID: m.LocationID,
		Reason:     m.Reason,
		Active:     m.Active,
	}
}
