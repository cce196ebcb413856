// Package booking owns the booking lifecycle of one application session:
// creation, status changes, completion with rating, and the cached listings.
package booking

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"servicehub/database/repository"
	"servicehub/errs"
	"servicehub/models"
	"servicehub/services/identity"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Identity exposes the active principal of the session.
type Identity interface {
	User() *identity.Identity
	Role() models.Role
}

// Notifier receives an event after every successful booking write.
type Notifier interface {
	Notify(ctx context.Context, ev models.BookingEvent) error
}

// Store is the booking state of one application session.
type Store struct {
	repo     repository.BookingRepository
	identity Identity
	notifier Notifier
	clock    clock.Clock
	log      *zap.Logger

	mu       sync.RWMutex
	bookings []models.Booking
	current  *models.Booking
	lastErr  string
}

func NewStore(repo repository.BookingRepository, ident Identity, notifier Notifier, clk clock.Clock, logger *zap.Logger) *Store {
	return &Store{
		repo:     repo,
		identity: ident,
		notifier: notifier,
		clock:    clk,
		log:      logger.With(zap.String("store", "bookings")),
		bookings: []models.Booking{},
	}
}

// Create requests a booking on behalf of the signed-in customer.
func (s *Store) Create(ctx context.Context, in models.BookingInput) (*models.Booking, error) {
	user := s.identity.User()
	if user == nil {
		return nil, s.fail(errs.Unauthenticatedf("User not authenticated"))
	}
	if err := models.Validate(in); err != nil {
		return nil, s.fail(err)
	}

	now := s.clock.Now().UTC()
	b := models.Booking{
		ID:            uuid.NewString(),
		CustomerID:    user.UID,
		WorkerID:      in.WorkerID,
		ServiceID:     in.ServiceID,
		Address:       in.Address,
		Notes:         in.Notes,
		ScheduledTime: in.ScheduledTime,
		Price:         in.Price,
		Status:        models.StatusRequested,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: models.PaymentMethodCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateWithHistory(ctx, &b); err != nil {
		s.log.Error("Failed to create booking", zap.String("customerID", user.UID), zap.Error(err))
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.bookings = append(s.bookings, b)
	cp := b
	s.current = &cp
	s.mu.Unlock()

	if b.WorkerID != "" {
		s.emit(ctx, models.BookingEvent{
			Type:        models.EventBookingCreated,
			BookingID:   b.ID,
			RecipientID: b.WorkerID,
			Status:      b.Status,
			Title:       "New booking request",
			Body:        "A customer has requested your service.",
			CreatedAt:   now,
		})
	}
	return &b, nil
}

// Transition moves a booking to status. Notes are stored as worker notes or
// customer notes depending on the caller's role; empty notes leave both as is.
func (s *Store) Transition(ctx context.Context, id string, status models.BookingStatus, notes string) (*models.Booking, error) {
	user := s.identity.User()
	if user == nil {
		return nil, s.fail(errs.Unauthenticatedf("User not authenticated"))
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := CanTransition(b, status, user.UID); err != nil {
		return nil, s.fail(err)
	}

	upd := models.StatusUpdate{Status: status, UpdatedAt: s.clock.Now().UTC()}
	if notes != "" {
		switch s.identity.Role() {
		case models.RoleWorker:
			upd.WorkerNotes = &notes
		case models.RoleCustomer:
			upd.CustomerNotes = &notes
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, b.Status, upd); err != nil {
		s.log.Warn("Booking status update rejected", zap.String("bookingID", id), zap.String("status", string(status)), zap.Error(err))
		return nil, s.fail(err)
	}
	upd.Apply(b)
	s.apply(id, upd.Apply)

	recipient := b.CustomerID
	if user.UID == b.CustomerID {
		recipient = b.WorkerID
	}
	if recipient != "" {
		s.emit(ctx, models.BookingEvent{
			Type:        models.EventBookingStatus,
			BookingID:   id,
			RecipientID: recipient,
			Status:      status,
			Title:       "Booking updated",
			Body:        fmt.Sprintf("Your booking is now %s.", statusLabel(status)),
			CreatedAt:   upd.UpdatedAt,
		})
	}
	return b, nil
}

// Complete closes a booking as its customer. A positive rating on a booking
// with an assigned worker also records a review and advances the worker's
// aggregates.
func (s *Store) Complete(ctx context.Context, id string, rating int, review string) (*models.Booking, error) {
	user := s.identity.User()
	if user == nil {
		return nil, s.fail(errs.Unauthenticatedf("User not authenticated"))
	}
	if rating < 0 || rating > 5 {
		return nil, s.fail(errs.NotValidf("rating must be between 1 and 5"))
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := CanComplete(b, user.UID); err != nil {
		return nil, s.fail(err)
	}

	now := s.clock.Now().UTC()
	c := models.Completion{Comment: review, UpdatedAt: now}
	if rating > 0 {
		c.Rating = &rating
		if b.WorkerID != "" {
			c.Review = &models.Review{
				ID:         uuid.NewString(),
				BookingID:  id,
				WorkerID:   b.WorkerID,
				CustomerID: b.CustomerID,
				Rating:     rating,
				Comment:    review,
				CreatedAt:  models.NewFlexTime(now),
			}
		}
	}
	if err := s.repo.Complete(ctx, id, b.Status, c); err != nil {
		s.log.Error("Failed to complete booking", zap.String("bookingID", id), zap.Error(err))
		return nil, s.fail(err)
	}
	c.Apply(b)
	s.apply(id, c.Apply)

	if b.WorkerID != "" {
		s.emit(ctx, models.BookingEvent{
			Type:        models.EventBookingCompleted,
			BookingID:   id,
			RecipientID: b.WorkerID,
			Status:      models.StatusCompleted,
			Title:       "Booking completed",
			Body:        "The customer marked your job as completed.",
			CreatedAt:   now,
		})
	}
	return b, nil
}

// ListForCustomer loads the caller's bookings as a customer. Without an
// identity the list is empty and only the error field is set.
func (s *Store) ListForCustomer(ctx context.Context) ([]models.Booking, error) {
	return s.list(ctx, s.repo.FindByCustomer)
}

// ListForWorker loads the caller's bookings as a worker.
func (s *Store) ListForWorker(ctx context.Context) ([]models.Booking, error) {
	return s.list(ctx, s.repo.FindByWorker)
}

func (s *Store) list(ctx context.Context, find func(context.Context, string) ([]models.Booking, error)) ([]models.Booking, error) {
	user := s.identity.User()
	if user == nil {
		s.mu.Lock()
		s.lastErr = "User not authenticated"
		s.mu.Unlock()
		return []models.Booking{}, nil
	}
	bookings, err := find(ctx, user.UID)
	if err != nil {
		return nil, s.fail(err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	sortNewestFirst(bookings)

	s.mu.Lock()
	s.bookings = bookings
	s.mu.Unlock()
	return slices.Clone(bookings), nil
}

// GetByID loads one booking and makes it current.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	cp := *b
	s.current = &cp
	s.mu.Unlock()
	return b, nil
}

func sortNewestFirst(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].SortTime().After(bookings[j].SortTime())
	})
}

func statusLabel(status models.BookingStatus) string {
	if status == models.StatusInProgress {
		return "in progress"
	}
	return string(status)
}

// emit hands ev to the notifier. Failures are logged and never surface to the
// caller.
func (s *Store) emit(ctx context.Context, ev models.BookingEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("Failed to queue booking notification",
			zap.String("bookingID", ev.BookingID),
			zap.String("type", ev.Type),
			zap.Error(err))
	}
}

// apply mutates the cached copies of a booking.
func (s *Store) apply(id string, fn func(*models.Booking)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.bookings, func(b models.Booking) bool { return b.ID == id }); i >= 0 {
		fn(&s.bookings[i])
	}
	if s.current != nil && s.current.ID == id {
		fn(s.current)
	}
}

// Getters over the cache.

func (s *Store) Bookings() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.bookings)
}

// CustomerBookings filters the cache to bookings the caller placed.
func (s *Store) CustomerBookings() []models.Booking {
	user := s.identity.User()
	if user == nil {
		return []models.Booking{}
	}
	return s.filter(func(b models.Booking) bool { return b.CustomerID == user.UID })
}

// WorkerBookings filters the cache to bookings assigned to the caller.
func (s *Store) WorkerBookings() []models.Booking {
	user := s.identity.User()
	if user == nil {
		return []models.Booking{}
	}
	return s.filter(func(b models.Booking) bool { return b.WorkerID == user.UID })
}

func (s *Store) ByStatus(status models.BookingStatus) []models.Booking {
	return s.filter(func(b models.Booking) bool { return b.Status == status })
}

func (s *Store) filter(keep func(models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) Current() *models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) fail(err error) error {
	err = errs.FromBackend(err)
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	return err
}
