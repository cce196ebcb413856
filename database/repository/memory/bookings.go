package memory

import (
	"context"
	"slices"

	"servicehub/errs"
	"servicehub/models"
)

type bookingRepo struct{ s *Store }

func (r *bookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Bookings.GetByID"); err != nil {
		return nil, err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, errs.NotFoundf("Booking not found")
	}
	return &b, nil
}

func (r *bookingRepo) FindByCustomer(_ context.Context, customerID string) ([]models.Booking, error) {
	return r.filter("Bookings.FindByCustomer", func(b models.Booking) bool { return b.CustomerID == customerID })
}

func (r *bookingRepo) FindByWorker(_ context.Context, workerID string) ([]models.Booking, error) {
	return r.filter("Bookings.FindByWorker", func(b models.Booking) bool { return b.WorkerID == workerID })
}

func (r *bookingRepo) filter(op string, keep func(models.Booking) bool) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr(op); err != nil {
		return nil, err
	}
	out := []models.Booking{}
	for _, b := range sortedValues(r.s.bookings) {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookingRepo) CreateWithHistory(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Bookings.CreateWithHistory"); err != nil {
		return err
	}
	c, ok := r.s.customers[b.CustomerID]
	if !ok {
		return errs.NotFoundf("Customer profile not found")
	}
	r.s.bookings[b.ID] = *b
	if !slices.Contains(c.BookingHistory, b.ID) {
		c.BookingHistory = append(slices.Clone(c.BookingHistory), b.ID)
	}
	r.s.customers[c.ID] = c
	return nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, id string, from models.BookingStatus, upd models.StatusUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Bookings.UpdateStatus"); err != nil {
		return err
	}
	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return errs.Conflictf("booking %s is no longer %s", id, from)
	}
	upd.Apply(&b)
	r.s.bookings[id] = b
	return nil
}

func (r *bookingRepo) Complete(_ context.Context, id string, from models.BookingStatus, c models.Completion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Bookings.Complete"); err != nil {
		return err
	}
	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return errs.Conflictf("booking %s is no longer %s", id, from)
	}
	c.Apply(&b)
	r.s.bookings[id] = b

	if c.Review == nil {
		return nil
	}
	w, ok := r.s.workers[c.Review.WorkerID]
	if !ok {
		return nil
	}
	w.Rating = models.NextRating(w.Rating, w.ReviewCount, c.Review.Rating)
	w.ReviewCount++
	w.CompletedJobs++
	r.s.workers[w.ID] = w
	r.s.reviews = append(r.s.reviews, *c.Review)
	return nil
}
