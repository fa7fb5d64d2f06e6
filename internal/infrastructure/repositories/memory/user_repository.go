package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
)

type MemoryUserRepository struct {
	users   map[domain.UserID]*domain.User
	byEmail map[string]domain.UserID
	mu      sync.RWMutex
}

func NewMemoryUserRepository() ports.UserRepository {
	return &MemoryUserRepository{
		users:   make(map[domain.UserID]*domain.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return domain.ErrEmailTaken
	}

	copied := *user
	r.users[user.ID] = &copied
	r.byEmail[email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	copied := *r.users[id]
	return &copied, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return domain.ErrUserNotFound
	}

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *MemoryUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	users := make([]*domain.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		copied := *r.users[domain.UserID(id)]
		users = append(users, &copied)
	}
	return users, nil
}
