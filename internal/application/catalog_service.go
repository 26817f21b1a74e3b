package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/domain/catalog"
)

// CreateServiceRequest holds the fields for a new bookable service.
type CreateServiceRequest struct {
	Name                   string `json:"name" binding:"required"`
	DurationMinutes        int    `json:"duration_minutes" binding:"required"`
	BufferBeforeMinutes    int    `json:"buffer_before_minutes"`
	BufferAfterMinutes     int    `json:"buffer_after_minutes"`
	MaxCapacity            int    `json:"max_capacity"`
	AllowQuantitySelection bool   `json:"allow_quantity_selection"`
	PriceCents             *int64 `json:"price_cents"`
	Timezone               string `json:"timezone"`
}

// ServiceDTO is the response representation of a service definition.
type ServiceDTO struct {
	ID                     uuid.UUID `json:"id"`
	Name                   string    `json:"name"`
	DurationMinutes        int       `json:"duration_minutes"`
	BufferBeforeMinutes    int       `json:"buffer_before_minutes"`
	BufferAfterMinutes     int       `json:"buffer_after_minutes"`
	MaxCapacity            int       `json:"max_capacity"`
	AllowQuantitySelection bool      `json:"allow_quantity_selection"`
	PriceCents             *int64    `json:"price_cents,omitempty"`
	Timezone               string    `json:"timezone"`
	Active                 bool      `json:"active"`
}

// CatalogService manages bookable service definitions.
type CatalogService struct {
	services catalog.ServiceRepository
	cache    *cache.AvailabilityCache
	logger   *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(services catalog.ServiceRepository, availCache *cache.AvailabilityCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{services: services, cache: availCache, logger: logger}
}

// CreateService creates a bookable service definition.
func (s *CatalogService) CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceDTO, error) {
	maxCapacity := req.MaxCapacity
	if maxCapacity == 0 {
		maxCapacity = 1 // legacy non-variation services are capacity 1
	}
	svc, err := catalog.NewService(
		req.Name,
		req.DurationMinutes,
		req.BufferBeforeMinutes,
		req.BufferAfterMinutes,
		maxCapacity,
		req.AllowQuantitySelection,
		req.PriceCents,
		req.Timezone,
	)
	if err != nil {
		return nil, err
	}
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}

	s.logger.Info("service created",
		zap.String("service_id", svc.ID().String()),
		zap.String("name", svc.Name()),
	)
	result := toServiceDTO(svc)
	return &result, nil
}

// GetService retrieves a service definition by ID.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*ServiceDTO, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toServiceDTO(svc)
	return &result, nil
}

// ListServices lists active service definitions.
func (s *CatalogService) ListServices(ctx context.Context) ([]ServiceDTO, error) {
	services, err := s.services.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return dtos, nil
}

// DeactivateService retires a service and drops its cached availability.
func (s *CatalogService) DeactivateService(ctx context.Context, id uuid.UUID) error {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return err
	}
	svc.Deactivate()
	if err := s.services.Update(ctx, svc); err != nil {
		return err
	}

	s.cache.InvalidateTag(cache.ServiceTag(id.String()))
	return nil
}

func toServiceDTO(svc *catalog.Service) ServiceDTO {
	return ServiceDTO{
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
	}
}
