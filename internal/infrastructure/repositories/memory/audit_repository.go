package memory

import (
	"context"
	"sync"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
)

// MemoryAuditRepository keeps trails newest first, mirroring the Redis
// list layout.
type MemoryAuditRepository struct {
	byActor    map[domain.UserID][]*domain.AuditEntry
	byResource map[string][]*domain.AuditEntry
	mu         sync.RWMutex
}

func NewMemoryAuditRepository() ports.AuditRepository {
	return &MemoryAuditRepository{
		byActor:    make(map[domain.UserID][]*domain.AuditEntry),
		byResource: make(map[string][]*domain.AuditEntry),
	}
}

func resourceTrailKey(resourceType, resourceID string) string {
	return resourceType + ":" + resourceID
}

func (r *MemoryAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entry
	r.byActor[entry.ActorID] = append([]*domain.AuditEntry{&copied}, r.byActor[entry.ActorID]...)
	if entry.ResourceType != "" && entry.ResourceID != "" {
		key := resourceTrailKey(entry.ResourceType, entry.ResourceID)
		r.byResource[key] = append([]*domain.AuditEntry{&copied}, r.byResource[key]...)
	}
	return nil
}

func (r *MemoryAuditRepository) ListByActor(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clipTrail(r.byActor[actorID], limit), nil
}

func (r *MemoryAuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clipTrail(r.byResource[resourceTrailKey(resourceType, resourceID)], limit), nil
}

func clipTrail(trail []*domain.AuditEntry, limit int) []*domain.AuditEntry {
	if limit > 0 && limit < len(trail) {
		trail = trail[:limit]
	}
	out := make([]*domain.AuditEntry, len(trail))
	for i, entry := range trail {
		copied := *entry
		out[i] = &copied
	}
	return out
}
