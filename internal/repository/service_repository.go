package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/catalog"
)

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                   string    `gorm:"not null;size:200"`
	DurationMinutes        int       `gorm:"not null"`
	BufferBeforeMinutes    int       `gorm:"not null;default:0"`
	BufferAfterMinutes     int       `gorm:"not null;default:0"`
	MaxCapacity            int       `gorm:"not null;default:1"`
	AllowQuantitySelection bool      `gorm:"not null;default:false"`
	PriceCents             *int64    `gorm:""`
	Timezone               string    `gorm:"not null;size:60;default:'UTC'"`
	Active                 bool      `gorm:"not null;default:true;index"`
	Version                int64     `gorm:"not null;default:1"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ServiceModel) TableName() string {
	return "services"
}

// GormServiceRepository is the GORM-based implementation of ServiceRepository.
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository.
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID retrieves a service by its unique identifier.
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Service", id.String())
		}
		return nil, domain.NewInternalError("failed to find service by ID", err)
	}
	return toDomainService(&model), nil
}

// ListActive retrieves all bookable services.
func (r *GormServiceRepository) ListActive(ctx context.Context) ([]*catalog.Service, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewInternalError("failed to list services", err)
	}

	services := make([]*catalog.Service, len(models))
	for i, m := range models {
		services[i] = toDomainService(&m)
	}
	return services, nil
}

// Save persists a new service definition.
func (r *GormServiceRepository) Save(ctx context.Context, svc *catalog.Service) error {
	model := toServiceModel(svc)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewInternalError("failed to save service", err)
	}
	return nil
}

// Update persists changes to an existing service with optimistic locking.
func (r *GormServiceRepository) Update(ctx context.Context, svc *catalog.Service) error {
	model := toServiceModel(svc)

	expectedVersion := svc.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ServiceModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":                     model.Name,
			"duration_minutes":         model.DurationMinutes,
			"buffer_before_minutes":    model.BufferBeforeMinutes,
			"buffer_after_minutes":     model.BufferAfterMinutes,
			"max_capacity":             model.MaxCapacity,
			"allow_quantity_selection": model.AllowQuantitySelection,
			"price_cents":              model.PriceCents,
			"timezone":                 model.Timezone,
			"active":                   model.Active,
			"version":                  model.Version,
			"updated_at":               model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewInternalError("failed to update service", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("service was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toServiceModel(svc *catalog.Service) *ServiceModel {
	return &ServiceModel{
		ID:                     svc.ID(),
		Name:                   svc.Name(),
		DurationMinutes:        svc.DurationMinutes(),
		BufferBeforeMinutes:    svc.BufferBeforeMinutes(),
		BufferAfterMinutes:     svc.BufferAfterMinutes(),
		MaxCapacity:            svc.MaxCapacity(),
		AllowQuantitySelection: svc.AllowQuantitySelection(),
		PriceCents:             svc.PriceCents(),
		Timezone:               svc.Timezone(),
		Active:                 svc.Active(),
		Version:                svc.Version(),
		CreatedAt:              svc.CreatedAt(),
		UpdatedAt:              svc.UpdatedAt(),
	}
}

func toDomainService(m *ServiceModel) *catalog.Service {
	return catalog.Reconstruct(
		m.ID,
		m.Name,
		m.DurationMinutes,
		m.BufferBeforeMinutes,
		m.BufferAfterMinutes,
		m.MaxCapacity,
		m.AllowQuantitySelection,
		m.PriceCents,
		m.Timezone,
		m.Active,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
