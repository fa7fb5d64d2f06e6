package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisApplicationRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisApplicationRepository(client *redis.Client) ports.ApplicationRepository {
	return &RedisApplicationRepository{
		client: client,
		prefix: "mswd:application:",
	}
}

func (r *RedisApplicationRepository) applicationKey(id domain.ApplicationID) string {
	return r.prefix + string(id)
}

func (r *RedisApplicationRepository) applicantIndexKey(userID domain.UserID) string {
	return fmt.Sprintf("mswd:user:%s:applications", userID)
}

func (r *RedisApplicationRepository) programIndexKey(programID domain.ProgramID) string {
	return fmt.Sprintf("mswd:program:%s:applications", programID)
}

func (r *RedisApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}

	if err := r.client.Set(ctx, r.applicationKey(app.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set application in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, r.applicantIndexKey(app.ApplicantID), string(app.ID)).Err(); err != nil {
		return fmt.Errorf("failed to add application to applicant index: %w", err)
	}
	if err := r.client.SAdd(ctx, r.programIndexKey(app.ProgramID), string(app.ID)).Err(); err != nil {
		return fmt.Errorf("failed to add application to program index: %w", err)
	}
	return nil
}

func (r *RedisApplicationRepository) GetByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	data, err := r.client.Get(ctx, r.applicationKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application from Redis: %w", err)
	}

	var app domain.Application
	if err := json.Unmarshal([]byte(data), &app); err != nil {
		return nil, fmt.Errorf("failed to unmarshal application: %w", err)
	}
	return &app, nil
}

func (r *RedisApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	exists, err := r.client.Exists(ctx, r.applicationKey(app.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check application existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrApplicationNotFound
	}

	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}
	if err := r.client.Set(ctx, r.applicationKey(app.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update application in Redis: %w", err)
	}
	return nil
}

func (r *RedisApplicationRepository) ListByApplicant(ctx context.Context, userID domain.UserID) ([]*domain.Application, error) {
	return r.listByIndex(ctx, r.applicantIndexKey(userID))
}

func (r *RedisApplicationRepository) ListByProgram(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error) {
	return r.listByIndex(ctx, r.programIndexKey(programID))
}

func (r *RedisApplicationRepository) listByIndex(ctx context.Context, indexKey string) ([]*domain.Application, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get application index from Redis: %w", err)
	}

	var apps []*domain.Application
	for _, id := range ids {
		app, err := r.GetByID(ctx, domain.ApplicationID(id))
		if err != nil {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}
