package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		prefix: "mswd:user:",
	}
}

func (r *RedisUserRepository) userKey(id domain.UserID) string {
	return r.prefix + string(id)
}

func (r *RedisUserRepository) emailKey(email string) string {
	return r.prefix + "email:" + strings.ToLower(email)
}

const usersIndexKey = "mswd:users"

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	// Claim the email index first so concurrent sign-ups cannot share one.
	ok, err := r.client.SetNX(ctx, r.emailKey(user.Email), string(user.ID), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim email index: %w", err)
	}
	if !ok {
		return domain.ErrEmailTaken
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, usersIndexKey, string(user.ID)).Err(); err != nil {
		return fmt.Errorf("failed to add user to index: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email index from Redis: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}

func (r *RedisUserRepository) Update(ctx context.Context, user *domain.User) error {
	exists, err := r.client.Exists(ctx, r.userKey(user.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrUserNotFound
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	ids, err := r.client.SMembers(ctx, usersIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get users index from Redis: %w", err)
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
		user, err := r.GetByID(ctx, domain.UserID(id))
		if err != nil {
			// Skip entries removed between SMEMBERS and GET.
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
