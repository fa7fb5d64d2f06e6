package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/batch"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// auditPush is one deferred LPUSH.
type auditPush struct {
	client *redis.Client
	key    string
	data   []byte
}

func (op *auditPush) Execute(ctx context.Context) error {
	return op.client.LPush(ctx, op.key, op.data).Err()
}

// auditBatchProcessor pipelines a batch of pushes in one round trip.
type auditBatchProcessor struct {
	client *redis.Client
}

func (p *auditBatchProcessor) ProcessBatch(ctx context.Context, operations []batch.Operation) error {
	if len(operations) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, op := range operations {
		if push, ok := op.(*auditPush); ok {
			pipe.LPush(ctx, push.key, push.data)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// BatchedRedisAuditRepository defers audit appends through a batcher so a
// burst of admin activity costs one pipeline instead of a write per entry.
// Reads see entries only after the batch flushes, which the audit trail
// tolerates.
type BatchedRedisAuditRepository struct {
	base    *RedisAuditRepository
	batcher *batch.Batcher
}

func NewBatchedRedisAuditRepository(
	client *redis.Client,
	batchSize int,
	batchInterval time.Duration,
	logger *zap.SugaredLogger,
) *BatchedRedisAuditRepository {
	base := &RedisAuditRepository{client: client}
	processor := &auditBatchProcessor{client: client}

	return &BatchedRedisAuditRepository{
		base:    base,
		batcher: batch.NewBatcher(batchSize, batchInterval, processor, logger),
	}
}

func (r *BatchedRedisAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	r.batcher.Add(&auditPush{client: r.base.client, key: r.base.actorKey(entry.ActorID), data: data})
	if entry.ResourceType != "" && entry.ResourceID != "" {
		r.batcher.Add(&auditPush{client: r.base.client, key: r.base.resourceKey(entry.ResourceType, entry.ResourceID), data: data})
	}
	return nil
}

func (r *BatchedRedisAuditRepository) ListByActor(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error) {
	return r.base.ListByActor(ctx, actorID, limit)
}

func (r *BatchedRedisAuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	return r.base.ListByResource(ctx, resourceType, resourceID, limit)
}

// Flush forces pending appends out, used during shutdown.
func (r *BatchedRedisAuditRepository) Flush(ctx context.Context) error {
	return r.batcher.Flush(ctx)
}

func (r *BatchedRedisAuditRepository) Stop() {
	r.batcher.Stop()
}

var _ ports.AuditRepository = (*BatchedRedisAuditRepository)(nil)
