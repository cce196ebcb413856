package userRepo

import (
	"context"

	"servicehub/models"
)

// UserRepository defines data access for identity records and their role profiles.
type UserRepository interface {
	// GetByID retrieves a user by the identity provider's uid.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Update merges the non-nil fields of upd into the user record.
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	// Register stores the user together with its role profile in one transaction.
	// Admins carry neither profile.
	Register(ctx context.Context, user *models.User, customer *models.CustomerProfile, worker *models.WorkerProfile) error
	// GetCustomer retrieves the customer profile of a user.
	GetCustomer(ctx context.Context, id string) (*models.CustomerProfile, error)
}
