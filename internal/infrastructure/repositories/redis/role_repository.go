package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisRoleRepository stores one RoleRecord per user id.
type RedisRoleRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRoleRepository(client *redis.Client) ports.RoleRepository {
	return &RedisRoleRepository{
		client: client,
		prefix: "mswd:role:",
	}
}

func (r *RedisRoleRepository) roleKey(userID domain.UserID) string {
	return r.prefix + string(userID)
}

func (r *RedisRoleRepository) Get(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
	data, err := r.client.Get(ctx, r.roleKey(userID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role record from Redis: %w", err)
	}

	var record domain.RoleRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role record: %w", err)
	}
	return &record, nil
}

func (r *RedisRoleRepository) Set(ctx context.Context, record *domain.RoleRecord, merge bool) error {
	toWrite := *record

	if merge {
		existing, err := r.Get(ctx, record.UserID)
		if err != nil && !errors.Is(err, domain.ErrRoleNotFound) {
			return err
		}
		if existing != nil {
			if toWrite.Email == "" {
				toWrite.Email = existing.Email
			}
			if toWrite.Role == "" {
				toWrite.Role = existing.Role
			}
		}
	}

	data, err := json.Marshal(&toWrite)
	if err != nil {
		return fmt.Errorf("failed to marshal role record: %w", err)
	}
	if err := r.client.Set(ctx, r.roleKey(record.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set role record in Redis: %w", err)
	}
	return nil
}
