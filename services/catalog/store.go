// Package catalog caches the service catalog and the category list derived
// from it.
package catalog

import (
	"context"
	"slices"
	"sync"

	"servicehub/database/repository"
	"servicehub/errs"
	"servicehub/models"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Store is the catalog state of one application session.
type Store struct {
	repo  repository.CatalogRepository
	clock clock.Clock
	log   *zap.Logger

	mu         sync.RWMutex
	services   []models.Service
	categories []string
	current    *models.Service
	lastErr    string
}

func NewStore(repo repository.CatalogRepository, clk clock.Clock, logger *zap.Logger) *Store {
	return &Store{
		repo:       repo,
		clock:      clk,
		log:        logger.With(zap.String("store", "catalog")),
		services:   []models.Service{},
		categories: []string{},
	}
}

// FetchAll replaces the cache with every stored service.
func (s *Store) FetchAll(ctx context.Context) ([]models.Service, error) {
	services, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.services = services
	s.recompute()
	s.mu.Unlock()
	return slices.Clone(services), nil
}

// FetchByID reads one service. The cached list is left as is.
func (s *Store) FetchByID(ctx context.Context, id string) (*models.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	cp := *svc
	s.current = &cp
	s.mu.Unlock()
	return svc, nil
}

// FetchByCategory queries one category without touching the cache.
func (s *Store) FetchByCategory(ctx context.Context, category string) ([]models.Service, error) {
	services, err := s.repo.GetByCategory(ctx, category)
	if err != nil {
		return nil, s.fail(err)
	}
	return services, nil
}

// FetchByCategories replaces the cache with the union of the given categories,
// queried one after another and deduplicated by id.
func (s *Store) FetchByCategories(ctx context.Context, categories []string) ([]models.Service, error) {
	if len(categories) == 0 {
		return []models.Service{}, nil
	}

	merged := []models.Service{}
	seen := make(map[string]struct{})
	for _, category := range categories {
		services, err := s.FetchByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, svc := range services {
			if _, dup := seen[svc.ID]; dup {
				continue
			}
			seen[svc.ID] = struct{}{}
			merged = append(merged, svc)
		}
	}

	s.mu.Lock()
	s.services = merged
	s.recompute()
	s.mu.Unlock()
	return slices.Clone(merged), nil
}

// Categories returns the derived category list, loading the catalog first when
// nothing is cached.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if len(s.categories) == 0 && len(s.services) > 0 {
		s.recompute()
	}
	if len(s.categories) > 0 {
		out := slices.Clone(s.categories)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	if _, err := s.FetchAll(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories), nil
}

// Add stores a new catalog entry.
func (s *Store) Add(ctx context.Context, svc models.Service) (*models.Service, error) {
	if err := models.Validate(svc); err != nil {
		return nil, s.fail(err)
	}
	svc.ID = uuid.NewString()
	svc.CreatedAt = s.clock.Now()
	if err := s.repo.Create(ctx, &svc); err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.services = append(s.services, svc)
	s.recompute()
	s.mu.Unlock()
	s.log.Info("Service added", zap.String("serviceID", svc.ID), zap.String("category", svc.Category))
	return &svc, nil
}

// Update merges upd into the stored service and the cached copy.
func (s *Store) Update(ctx context.Context, id string, upd models.ServiceUpdate) (*models.Service, error) {
	if err := models.Validate(upd); err != nil {
		return nil, s.fail(err)
	}
	if err := s.repo.Update(ctx, id, upd); err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// An entry that is not cached is returned as the merged fields only.
	out := models.Service{ID: id}
	if i := slices.IndexFunc(s.services, func(svc models.Service) bool { return svc.ID == id }); i >= 0 {
		upd.Apply(&s.services[i])
		out = s.services[i]
	} else {
		upd.Apply(&out)
	}
	s.recompute()
	return &out, nil
}

// Delete removes a service after checking it exists.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return s.fail(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.services = slices.DeleteFunc(s.services, func(svc models.Service) bool { return svc.ID == id })
	s.recompute()
	s.mu.Unlock()
	s.log.Info("Service deleted", zap.String("serviceID", id))
	return nil
}

// recompute derives the category list in first-seen order. Callers hold s.mu.
func (s *Store) recompute() {
	categories := []string{}
	seen := make(map[string]struct{})
	for _, svc := range s.services {
		if _, ok := seen[svc.Category]; ok {
			continue
		}
		seen[svc.Category] = struct{}{}
		categories = append(categories, svc.Category)
	}
	s.categories = categories
}

// Getters over the cache.

func (s *Store) ByID(id string) (models.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return models.Service{}, false
}

func (s *Store) ByCategory(category string) []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Service{}
	for _, svc := range s.services {
		if svc.Category == category {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Store) Services() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.services)
}

// Current is the service last read by FetchByID.
func (s *Store) Current() *models.Service {
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
	s.log.Debug("Catalog operation failed", zap.Error(err))
	return err
}
