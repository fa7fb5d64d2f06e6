package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisAuditRepository stores the audit trail as Redis lists, newest first.
// Entries are written to a per-actor list and a per-resource list so both
// trails read in O(limit).
type RedisAuditRepository struct {
	client *redis.Client
}

func NewRedisAuditRepository(client *redis.Client) ports.AuditRepository {
	return &RedisAuditRepository{client: client}
}

func (r *RedisAuditRepository) actorKey(actorID domain.UserID) string {
	return fmt.Sprintf("mswd:audit:actor:%s", actorID)
}

func (r *RedisAuditRepository) resourceKey(resourceType, resourceID string) string {
	return fmt.Sprintf("mswd:audit:resource:%s:%s", resourceType, resourceID)
}

func (r *RedisAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, r.actorKey(entry.ActorID), data)
	if entry.ResourceType != "" && entry.ResourceID != "" {
		pipe.LPush(ctx, r.resourceKey(entry.ResourceType, entry.ResourceID), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *RedisAuditRepository) ListByActor(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error) {
	return r.listRange(ctx, r.actorKey(actorID), limit)
}

func (r *RedisAuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	return r.listRange(ctx, r.resourceKey(resourceType, resourceID), limit)
}

func (r *RedisAuditRepository) listRange(ctx context.Context, key string, limit int) ([]*domain.AuditEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	items, err := r.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail from Redis: %w", err)
	}

	entries := make([]*domain.AuditEntry, 0, len(items))
	for _, item := range items {
		var entry domain.AuditEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
