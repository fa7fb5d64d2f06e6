package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/google/uuid"
)

type programService struct {
	programRepo ports.ProgramRepository
	appRepo     ports.ApplicationRepository
	audit       ports.AuditService
}

func NewProgramService(
	programRepo ports.ProgramRepository,
	appRepo ports.ApplicationRepository,
	audit ports.AuditService,
) ports.ProgramService {
	return &programService{
		programRepo: programRepo,
		appRepo:     appRepo,
		audit:       audit,
	}
}

func (s *programService) CreateProgram(ctx context.Context, p *domain.Program, createdBy domain.UserID) (*domain.Program, error) {
	existing, err := s.programRepo.GetByCode(ctx, p.Code)
	if err != nil && !errors.Is(err, domain.ErrProgramNotFound) {
		return nil, fmt.Errorf("failed to check program code: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrProgramCodeTaken
	}

	now := time.Now()
	p.ID = domain.ProgramID(uuid.New().String())
	p.CreatedBy = createdBy
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.ProgramDraft
	}

	if err := s.programRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      createdBy,
		Action:       domain.AuditProgramChange,
		ResourceType: "program",
		ResourceID:   string(p.ID),
		Details:      "created",
	})
	return p, nil
}

func (s *programService) GetProgram(ctx context.Context, id domain.ProgramID) (*domain.Program, error) {
	return s.programRepo.GetByID(ctx, id)
}

func (s *programService) UpdateProgram(ctx context.Context, p *domain.Program, updatedBy domain.UserID) (*domain.Program, error) {
	current, err := s.programRepo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	// Code, creator and timestamps are not client-writable.
	p.Code = current.Code
	p.CreatedBy = current.CreatedBy
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()

	if err := s.programRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      updatedBy,
		Action:       domain.AuditProgramChange,
		ResourceType: "program",
		ResourceID:   string(p.ID),
		Details:      "updated",
	})
	return p, nil
}

func (s *programService) DeleteProgram(ctx context.Context, id domain.ProgramID, deletedBy domain.UserID) error {
	if _, err := s.programRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.programRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      deletedBy,
		Action:       domain.AuditProgramChange,
		ResourceType: "program",
		ResourceID:   string(id),
		Details:      "deleted",
	})
	return nil
}

func (s *programService) SetProgramStatus(ctx context.Context, id domain.ProgramID, status domain.ProgramStatus, actor domain.UserID) error {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if program.Status == status {
		return nil
	}

	program.Status = status
	program.UpdatedAt = time.Now()
	if err := s.programRepo.Update(ctx, program); err != nil {
		return fmt.Errorf("failed to set program status: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      actor,
		Action:       domain.AuditProgramChange,
		ResourceType: "program",
		ResourceID:   string(id),
		Details:      fmt.Sprintf("status=%s", status),
	})
	return nil
}

func (s *programService) SetFeatured(ctx context.Context, id domain.ProgramID, featured bool, actor domain.UserID) error {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if program.Featured == featured {
		return nil
	}

	program.Featured = featured
	program.UpdatedAt = time.Now()
	if err := s.programRepo.Update(ctx, program); err != nil {
		return fmt.Errorf("failed to set program featured flag: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      actor,
		Action:       domain.AuditProgramChange,
		ResourceType: "program",
		ResourceID:   string(id),
		Details:      fmt.Sprintf("featured=%t", featured),
	})
	return nil
}

func (s *programService) ListPrograms(ctx context.Context) ([]*domain.Program, error) {
	return s.programRepo.List(ctx)
}

func (s *programService) ListActivePrograms(ctx context.Context) ([]*domain.Program, error) {
	return s.programRepo.ListByStatus(ctx, domain.ProgramActive)
}

func (s *programService) ProgramStatistics(ctx context.Context, id domain.ProgramID) (*domain.ProgramStats, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.ListByProgram(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list program applications: %w", err)
	}

	stats := &domain.ProgramStats{ProgramID: id}
	for _, app := range apps {
		stats.TotalApplied++
		switch app.Status {
		case domain.ApplicationApproved:
			stats.TotalApproved++
		case domain.ApplicationRejected:
			stats.TotalRejected++
		case domain.ApplicationPending:
			stats.TotalPending++
		case domain.ApplicationWithdrawn:
			stats.TotalWithdrawn++
		}
	}
	stats.SlotsRemaining = program.MaxSlots - stats.TotalApproved
	if stats.SlotsRemaining < 0 {
		stats.SlotsRemaining = 0
	}
	return stats, nil
}
