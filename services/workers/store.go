// Package workers is the worker directory: profiles joined with their user
// records, worker-only profile mutations, and reviews.
package workers

import (
	"context"
	"slices"
	"sort"
	"sync"

	"servicehub/database/repository"
	"servicehub/errs"
	"servicehub/models"
	"servicehub/services/identity"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// joinConcurrency bounds the user lookups issued for one listing.
const joinConcurrency = 8

// Identity exposes the active principal of the session.
type Identity interface {
	User() *identity.Identity
	Role() models.Role
}

// Store is the worker directory state of one application session.
type Store struct {
	workers  repository.WorkerRepository
	users    repository.UserRepository
	reviews  repository.ReviewRepository
	identity Identity
	log      *zap.Logger

	mu            sync.RWMutex
	cache         []models.WorkerView
	current       *models.WorkerView
	workerReviews []models.Review
	lastErr       string
}

func NewStore(repos *repository.Repositories, ident Identity, logger *zap.Logger) *Store {
	return &Store{
		workers:       repos.Workers,
		users:         repos.Users,
		reviews:       repos.Reviews,
		identity:      ident,
		log:           logger.With(zap.String("store", "workers")),
		cache:         []models.WorkerView{},
		workerReviews: []models.Review{},
	}
}

// FetchAll replaces the cache with every worker joined with its user record.
func (s *Store) FetchAll(ctx context.Context) ([]models.WorkerView, error) {
	profiles, err := s.workers.GetAll(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	views, err := s.join(ctx, profiles)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.cache = views
	s.mu.Unlock()
	return slices.Clone(views), nil
}

// FetchByID loads one worker, makes it current and upserts it in the cache.
func (s *Store) FetchByID(ctx context.Context, id string) (*models.WorkerView, error) {
	profile, err := s.workers.GetByID(ctx, id)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			s.log.Warn("Worker document not found", zap.String("workerID", id))
		}
		return nil, s.fail(err)
	}
	views, err := s.join(ctx, []models.WorkerProfile{*profile})
	if err != nil {
		return nil, s.fail(err)
	}
	view := views[0]

	s.mu.Lock()
	cp := view
	s.current = &cp
	if i := s.indexOf(id); i >= 0 {
		s.cache[i] = view
	} else {
		s.cache = append(s.cache, view)
	}
	s.mu.Unlock()
	return &view, nil
}

// FetchByService returns verified workers offering serviceID, best rated
// first. The cache is not modified.
func (s *Store) FetchByService(ctx context.Context, serviceID string) ([]models.WorkerView, error) {
	profiles, err := s.workers.FindVerifiedByService(ctx, serviceID)
	if err != nil {
		return nil, s.fail(err)
	}
	views, err := s.join(ctx, profiles)
	if err != nil {
		return nil, s.fail(err)
	}
	return views, nil
}

// join attaches identity fields to each profile, preserving order. A worker
// without a user record keeps empty identity fields.
func (s *Store) join(ctx context.Context, profiles []models.WorkerProfile) ([]models.WorkerView, error) {
	views := make([]models.WorkerView, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for i := range profiles {
		views[i].WorkerProfile = profiles[i]
		g.Go(func() error {
			user, err := s.users.GetByID(gctx, profiles[i].ID)
			if errs.Is(err, errs.NotFound) {
				s.log.Warn("User document not found for worker", zap.String("workerID", profiles[i].ID))
				return nil
			}
			if err != nil {
				return err
			}
			views[i].DisplayName = user.DisplayName
			views[i].Email = user.Email
			views[i].PhoneNumber = user.PhoneNumber
			views[i].PhotoURL = user.PhotoURL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// ProfileInput is the self-service part of a worker profile. Rating, counters,
// wallet and verification are deliberately absent.
type ProfileInput struct {
	Bio          *string              `json:"bio,omitempty"`
	Experience   *string              `json:"experience,omitempty"`
	Availability *models.Availability `json:"availability,omitempty"`
	ServiceAreas *[]string            `json:"serviceAreas,omitempty"`
	DisplayName  string               `json:"displayName,omitempty"`
	PhoneNumber  string               `json:"phoneNumber,omitempty"`
}

// ProfileChange echoes what UpdateProfile applied.
type ProfileChange struct {
	ID string `json:"id"`
	ProfileInput
}

// UpdateProfile applies the caller's own profile changes. Display name and
// phone number go to the user record when non-empty.
func (s *Store) UpdateProfile(ctx context.Context, in ProfileInput) (*ProfileChange, error) {
	workerID, err := s.requireWorker()
	if err != nil {
		return nil, err
	}

	upd := models.WorkerUpdate{
		Bio:          in.Bio,
		Experience:   in.Experience,
		Availability: in.Availability,
		ServiceAreas: in.ServiceAreas,
	}
	if !upd.Empty() {
		if err := s.workers.Update(ctx, workerID, upd); err != nil {
			return nil, s.fail(err)
		}
	}

	var userUpd models.UserUpdate
	if in.DisplayName != "" {
		userUpd.DisplayName = &in.DisplayName
	}
	if in.PhoneNumber != "" {
		userUpd.PhoneNumber = &in.PhoneNumber
	}
	if userUpd.DisplayName != nil || userUpd.PhoneNumber != nil {
		if err := s.users.Update(ctx, workerID, userUpd); err != nil {
			return nil, s.fail(err)
		}
	}

	s.apply(workerID, func(v *models.WorkerView) {
		if in.Bio != nil {
			v.Bio = *in.Bio
		}
		if in.Experience != nil {
			v.Experience = *in.Experience
		}
		if in.Availability != nil {
			v.Availability = *in.Availability
		}
		if in.ServiceAreas != nil {
			v.ServiceAreas = slices.Clone(*in.ServiceAreas)
		}
		if in.DisplayName != "" {
			v.DisplayName = in.DisplayName
		}
		if in.PhoneNumber != "" {
			v.PhoneNumber = in.PhoneNumber
		}
	})
	return &ProfileChange{ID: workerID, ProfileInput: in}, nil
}

// UpdateServices replaces the list of services the caller offers.
func (s *Store) UpdateServices(ctx context.Context, services []string) ([]string, error) {
	workerID, err := s.requireWorker()
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []string{}
	}
	if err := s.workers.Update(ctx, workerID, models.WorkerUpdate{Services: &services}); err != nil {
		return nil, s.fail(err)
	}
	s.apply(workerID, func(v *models.WorkerView) { v.Services = slices.Clone(services) })
	return services, nil
}

// UpdateAvailability replaces the caller's whole availability.
func (s *Store) UpdateAvailability(ctx context.Context, availability models.Availability) (*models.Availability, error) {
	workerID, err := s.requireWorker()
	if err != nil {
		return nil, err
	}
	if err := s.workers.Update(ctx, workerID, models.WorkerUpdate{Availability: &availability}); err != nil {
		return nil, s.fail(err)
	}
	s.apply(workerID, func(v *models.WorkerView) { v.Availability = availability })
	return &availability, nil
}

// UpdateCurrentStatus changes only the live status inside the stored
// availability.
func (s *Store) UpdateCurrentStatus(ctx context.Context, status string) (*models.Availability, error) {
	workerID, err := s.requireWorker()
	if err != nil {
		return nil, err
	}
	profile, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			err = errs.NotFoundf("Worker profile not found")
		}
		return nil, s.fail(err)
	}

	availability := profile.Availability
	availability.CurrentStatus = status
	if err := s.workers.Update(ctx, workerID, models.WorkerUpdate{Availability: &availability}); err != nil {
		return nil, s.fail(err)
	}
	s.apply(workerID, func(v *models.WorkerView) { v.Availability = availability })
	return &availability, nil
}

// Wallet returns the caller's wallet.
func (s *Store) Wallet(ctx context.Context) (*models.Wallet, error) {
	workerID, err := s.requireWorker()
	if err != nil {
		return nil, err
	}
	profile, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &profile.Wallet, nil
}

// FetchReviews lists a worker's reviews newest first. A failed query yields an
// empty list; the error message is still recorded.
func (s *Store) FetchReviews(ctx context.Context, workerID string) []models.Review {
	reviews, err := s.reviews.FindByWorker(ctx, workerID)
	if err != nil {
		s.log.Error("Error fetching worker reviews", zap.String("workerID", workerID), zap.Error(err))
		s.mu.Lock()
		s.lastErr = errs.FromBackend(err).Error()
		s.workerReviews = []models.Review{}
		s.mu.Unlock()
		return []models.Review{}
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].SortTime().After(reviews[j].SortTime())
	})
	s.mu.Lock()
	s.workerReviews = reviews
	s.mu.Unlock()
	return slices.Clone(reviews)
}

func (s *Store) requireWorker() (string, error) {
	user := s.identity.User()
	if user == nil || s.identity.Role() != models.RoleWorker {
		return "", s.fail(errs.Unauthorizedf("Unauthorized"))
	}
	return user.UID, nil
}

// apply mutates the cached copies of a worker.
func (s *Store) apply(workerID string, fn func(*models.WorkerView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == workerID {
		fn(s.current)
	}
	if i := s.indexOf(workerID); i >= 0 {
		fn(&s.cache[i])
	}
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.cache, func(v models.WorkerView) bool { return v.ID == id })
}

// Getters over the cache.

func (s *Store) ByID(id string) (models.WorkerView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.cache[i], true
	}
	return models.WorkerView{}, false
}

func (s *Store) Verified() []models.WorkerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WorkerView{}
	for _, v := range s.cache {
		if v.IsVerified {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) ByService(serviceID string) []models.WorkerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WorkerView{}
	for _, v := range s.cache {
		if slices.Contains(v.Services, serviceID) {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Workers() []models.WorkerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cache)
}

func (s *Store) Current() *models.WorkerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Store) Reviews() []models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.workerReviews)
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
