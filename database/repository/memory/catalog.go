package memory

import (
	"context"

	"servicehub/errs"
	"servicehub/models"
)

type catalogRepo struct{ s *Store }

func (r *catalogRepo) GetAll(_ context.Context) ([]models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.GetAll"); err != nil {
		return nil, err
	}
	return sortedValues(r.s.services), nil
}

func (r *catalogRepo) GetByID(_ context.Context, id string) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.GetByID"); err != nil {
		return nil, err
	}
	svc, ok := r.s.services[id]
	if !ok {
		return nil, errs.NotFoundf("Service not found")
	}
	return &svc, nil
}

func (r *catalogRepo) GetByCategory(_ context.Context, category string) ([]models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.GetByCategory"); err != nil {
		return nil, err
	}
	out := []models.Service{}
	for _, svc := range sortedValues(r.s.services) {
		if svc.Category == category {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (r *catalogRepo) Create(_ context.Context, svc *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.Create"); err != nil {
		return err
	}
	r.s.services[svc.ID] = *svc
	return nil
}

func (r *catalogRepo) Update(_ context.Context, id string, upd models.ServiceUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.Update"); err != nil {
		return err
	}
	svc, ok := r.s.services[id]
	if !ok {
		return errs.NotFoundf("Service not found")
	}
	upd.Apply(&svc)
	r.s.services[id] = svc
	return nil
}

func (r *catalogRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Catalog.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.services[id]; !ok {
		return errs.NotFoundf("Service not found")
	}
	delete(r.s.services, id)
	return nil
}
