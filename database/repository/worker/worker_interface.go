package workerRepo

import (
	"context"

	"servicehub/models"
)

// WorkerRepository defines data access for worker profiles.
type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkerProfile, error)
	GetAll(ctx context.Context) ([]models.WorkerProfile, error)
	// FindVerifiedByService returns verified workers offering serviceID, best rated first.
	FindVerifiedByService(ctx context.Context, serviceID string) ([]models.WorkerProfile, error)
	// Update merges the non-nil fields of upd. System managed aggregates are not reachable.
	Update(ctx context.Context, id string, upd models.WorkerUpdate) error
}
