package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository defines persistence operations for service definitions.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListActive(ctx context.Context) ([]*Service, error)
	Save(ctx context.Context, svc *Service) error
	Update(ctx context.Context, svc *Service) error
}
