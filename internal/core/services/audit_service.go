package services

import (
	"context"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type auditService struct {
	auditRepo ports.AuditRepository
	logger    *zap.SugaredLogger
}

func NewAuditService(auditRepo ports.AuditRepository, logger *zap.SugaredLogger) ports.AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends an audit entry. The trail is best-effort: a failed append
// is logged and never propagated, so auditing can't break the operation it
// describes.
func (s *auditService) Record(ctx context.Context, entry *domain.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	entry.Details = utils.TruncateString(utils.SanitizeString(entry.Details), 2000)

	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warnw("failed to append audit entry",
			"action", entry.Action,
			"actor_id", entry.ActorID,
			"error", err,
		)
	}
}

func (s *auditService) ActorTrail(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error) {
	return s.auditRepo.ListByActor(ctx, actorID, limit)
}

func (s *auditService) ResourceTrail(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	return s.auditRepo.ListByResource(ctx, resourceType, resourceID, limit)
}
