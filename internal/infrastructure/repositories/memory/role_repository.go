package memory

import (
	"context"
	"sync"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
)

type MemoryRoleRepository struct {
	records map[domain.UserID]*domain.RoleRecord
	mu      sync.RWMutex
}

func NewMemoryRoleRepository() ports.RoleRepository {
	return &MemoryRoleRepository{
		records: make(map[domain.UserID]*domain.RoleRecord),
	}
}

func (r *MemoryRoleRepository) Get(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[userID]
	if !exists {
		return nil, domain.ErrRoleNotFound
	}

	copied := *record
	return &copied, nil
}

func (r *MemoryRoleRepository) Set(ctx context.Context, record *domain.RoleRecord, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	toWrite := *record
	if existing, ok := r.records[record.UserID]; ok && merge {
		if toWrite.Email == "" {
			toWrite.Email = existing.Email
		}
		if toWrite.Role == "" {
			toWrite.Role = existing.Role
		}
	}

	r.records[record.UserID] = &toWrite
	return nil
}
