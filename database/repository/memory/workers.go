package memory

import (
	"context"
	"slices"
	"sort"

	"servicehub/errs"
	"servicehub/models"
)

type workerRepo struct{ s *Store }

func (r *workerRepo) GetByID(_ context.Context, id string) (*models.WorkerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Workers.GetByID"); err != nil {
		return nil, err
	}
	w, ok := r.s.workers[id]
	if !ok {
		return nil, errs.NotFoundf("Worker not found")
	}
	return &w, nil
}

func (r *workerRepo) GetAll(_ context.Context) ([]models.WorkerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Workers.GetAll"); err != nil {
		return nil, err
	}
	return sortedValues(r.s.workers), nil
}

func (r *workerRepo) FindVerifiedByService(_ context.Context, serviceID string) ([]models.WorkerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Workers.FindVerifiedByService"); err != nil {
		return nil, err
	}
	out := []models.WorkerProfile{}
	for _, w := range sortedValues(r.s.workers) {
		if w.IsVerified && slices.Contains(w.Services, serviceID) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (r *workerRepo) Update(_ context.Context, id string, upd models.WorkerUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Workers.Update"); err != nil {
		return err
	}
	w, ok := r.s.workers[id]
	if !ok {
		return errs.NotFoundf("Worker not found")
	}
	if upd.Bio != nil {
		w.Bio = *upd.Bio
	}
	if upd.Experience != nil {
		w.Experience = *upd.Experience
	}
	if upd.Availability != nil {
		w.Availability = *upd.Availability
	}
	if upd.ServiceAreas != nil {
		w.ServiceAreas = slices.Clone(*upd.ServiceAreas)
	}
	if upd.Services != nil {
		w.Services = slices.Clone(*upd.Services)
	}
	r.s.workers[id] = w
	return nil
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) FindByWorker(_ context.Context, workerID string) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeErr("Reviews.FindByWorker"); err != nil {
		return nil, err
	}
	out := []models.Review{}
	for _, rv := range r.s.reviews {
		if rv.WorkerID == workerID {
			out = append(out, rv)
		}
	}
	return out, nil
}
