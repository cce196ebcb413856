package catalogRepo

import (
	"context"

	"servicehub/models"
)

// CatalogRepository defines data access for the service catalog.
type CatalogRepository interface {
	GetAll(ctx context.Context) ([]models.Service, error)
	GetByID(ctx context.Context, id string) (*models.Service, error)
	GetByCategory(ctx context.Context, category string) ([]models.Service, error)
	Create(ctx context.Context, svc *models.Service) error
	Update(ctx context.Context, id string, upd models.ServiceUpdate) error
	Delete(ctx context.Context, id string) error
}
