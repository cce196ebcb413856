// Package memory is an in-process implementation of every repository
// interface. It backs STORE_DRIVER=memory and the store tests.
package memory

import (
	"slices"
	"sort"
	"sync"

	"servicehub/database/repository"
	"servicehub/models"
)

// Store holds every collection in maps keyed by document id.
type Store struct {
	mu sync.Mutex

	users     map[string]models.User
	customers map[string]models.CustomerProfile
	workers   map[string]models.WorkerProfile
	services  map[string]models.Service
	bookings  map[string]models.Booking
	reviews   []models.Review

	nextErr map[string]error
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]models.User),
		customers: make(map[string]models.CustomerProfile),
		workers:   make(map[string]models.WorkerProfile),
		services:  make(map[string]models.Service),
		bookings:  make(map[string]models.Booking),
		nextErr:   make(map[string]error),
	}
}

// Repositories returns the repository bundle backed by s.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:    &userRepo{s},
		Workers:  &workerRepo{s},
		Catalog:  &catalogRepo{s},
		Bookings: &bookingRepo{s},
		Reviews:  &reviewRepo{s},
	}
}

// SetErr makes the next call of op fail with err. Op names are
// "<Repository>.<Method>", e.g. "Bookings.Complete".
func (s *Store) SetErr(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr[op] = err
}

// takeErr must be called with s.mu held.
func (s *Store) takeErr(op string) error {
	if err, ok := s.nextErr[op]; ok {
		delete(s.nextErr, op)
		return err
	}
	return nil
}

// Seeding and inspection helpers.

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutCustomer(c models.CustomerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) PutWorker(w models.WorkerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = w
}

func (s *Store) PutService(svc models.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Store) PutBooking(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

func (s *Store) PutReview(r models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, r)
}

func (s *Store) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Customer(id string) (models.CustomerProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	return c, ok
}

func (s *Store) Worker(id string) (models.WorkerProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[id]
	return w, ok
}

func (s *Store) Service(id string) (models.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	return svc, ok
}

func (s *Store) Booking(id string) (models.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Reviews() []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reviews)
}

// sortedValues returns the map values ordered by key so listings are stable.
func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
