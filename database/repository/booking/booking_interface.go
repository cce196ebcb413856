package bookingRepo

import (
	"context"

	"servicehub/models"
)

// BookingRepository defines data access for bookings and the documents a
// booking write touches alongside it.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	FindByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	FindByWorker(ctx context.Context, workerID string) ([]models.Booking, error)
	// CreateWithHistory inserts the booking and appends its id to the customer's
	// booking history in one transaction.
	CreateWithHistory(ctx context.Context, b *models.Booking) error
	// UpdateStatus applies upd only while the stored status still equals from.
	// A concurrent change yields errs.Conflict.
	UpdateStatus(ctx context.Context, id string, from models.BookingStatus, upd models.StatusUpdate) error
	// Complete marks the booking completed while its status still equals from.
	// When c.Review is set the review is stored and the worker's rating, review
	// count and completed jobs are advanced atomically, all in one transaction.
	Complete(ctx context.Context, id string, from models.BookingStatus, c models.Completion) error
}
