package memory

import (
	"context"
	"slices"

	"servicehub/errs"
	"servicehub/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, errs.NotFoundf("User document not found")
	}
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, id string, upd models.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Users.Update"); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return errs.NotFoundf("User document not found")
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}
	if upd.LastLogin != nil {
		u.LastLogin = *upd.LastLogin
	}
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Register(_ context.Context, user *models.User, customer *models.CustomerProfile, worker *models.WorkerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Users.Register"); err != nil {
		return err
	}
	if _, exists := r.s.users[user.ID]; exists {
		return errs.Conflictf("user %s already exists", user.ID)
	}
	r.s.users[user.ID] = *user
	if customer != nil {
		c := *customer
		c.BookingHistory = slices.Clone(customer.BookingHistory)
		r.s.customers[c.ID] = c
	}
	if worker != nil {
		r.s.workers[worker.ID] = *worker
	}
	return nil
}

func (r *userRepo) GetCustomer(_ context.Context, id string) (*models.CustomerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Users.GetCustomer"); err != nil {
		return nil, err
	}
	c, ok := r.s.customers[id]
	if !ok {
		return nil, errs.NotFoundf("Customer profile not found")
	}
	c.BookingHistory = slices.Clone(c.BookingHistory)
	return &c, nil
}
