package memory

import (
	"context"
	"sort"
	"sync"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
)

type MemoryApplicationRepository struct {
	applications map[domain.ApplicationID]*domain.Application
	mu           sync.RWMutex
}

func NewMemoryApplicationRepository() ports.ApplicationRepository {
	return &MemoryApplicationRepository{
		applications: make(map[domain.ApplicationID]*domain.Application),
	}
}

func (r *MemoryApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *app
	r.applications[app.ID] = &copied
	return nil
}

func (r *MemoryApplicationRepository) GetByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, exists := r.applications[id]
	if !exists {
		return nil, domain.ErrApplicationNotFound
	}

	copied := *app
	return &copied, nil
}

func (r *MemoryApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.applications[app.ID]; !exists {
		return domain.ErrApplicationNotFound
	}

	copied := *app
	r.applications[app.ID] = &copied
	return nil
}

func (r *MemoryApplicationRepository) ListByApplicant(ctx context.Context, userID domain.UserID) ([]*domain.Application, error) {
	return r.filter(func(app *domain.Application) bool {
		return app.ApplicantID == userID
	}), nil
}

func (r *MemoryApplicationRepository) ListByProgram(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error) {
	return r.filter(func(app *domain.Application) bool {
		return app.ProgramID == programID
	}), nil
}

func (r *MemoryApplicationRepository) filter(keep func(*domain.Application) bool) []*domain.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var apps []*domain.Application
	for _, app := range r.applications {
		if keep(app) {
			copied := *app
			apps = append(apps, &copied)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.Before(apps[j].SubmittedAt)
	})
	return apps
}
