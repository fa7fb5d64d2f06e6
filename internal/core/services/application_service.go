package services

import (
	"context"
	"fmt"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/google/uuid"
)

// ApplicationMetrics counts application outcomes. Nil disables collection.
type ApplicationMetrics interface {
	RecordApplication(status domain.ApplicationStatus)
}

type applicationService struct {
	appRepo     ports.ApplicationRepository
	programRepo ports.ProgramRepository
	audit       ports.AuditService
	metrics     ApplicationMetrics
}

func NewApplicationService(
	appRepo ports.ApplicationRepository,
	programRepo ports.ProgramRepository,
	audit ports.AuditService,
	metrics ApplicationMetrics,
) ports.ApplicationService {
	return &applicationService{
		appRepo:     appRepo,
		programRepo: programRepo,
		audit:       audit,
		metrics:     metrics,
	}
}

func (s *applicationService) Apply(ctx context.Context, programID domain.ProgramID, applicant domain.UserID, remarks string) (*domain.Application, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.Status != domain.ProgramActive {
		return nil, domain.ErrProgramNotActive
	}

	mine, err := s.appRepo.ListByApplicant(ctx, applicant)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing applications: %w", err)
	}
	for _, app := range mine {
		if app.ProgramID == programID &&
			(app.Status == domain.ApplicationPending || app.Status == domain.ApplicationApproved) {
			return nil, domain.ErrAlreadyApplied
		}
	}

	app := &domain.Application{
		ID:          domain.ApplicationID(uuid.New().String()),
		ProgramID:   programID,
		ApplicantID: applicant,
		Remarks:     remarks,
		Status:      domain.ApplicationPending,
		SubmittedAt: time.Now(),
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordApplication(app.Status)
	}
	return app, nil
}

func (s *applicationService) GetApplication(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	return s.appRepo.GetByID(ctx, id)
}

func (s *applicationService) MyApplications(ctx context.Context, userID domain.UserID) ([]*domain.Application, error) {
	return s.appRepo.ListByApplicant(ctx, userID)
}

func (s *applicationService) ProgramApplications(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error) {
	return s.appRepo.ListByProgram(ctx, programID)
}

func (s *applicationService) Review(ctx context.Context, id domain.ApplicationID, approve bool, reviewer domain.UserID, notes string) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.Reviewable() {
		return nil, domain.ErrNotReviewable
	}

	if approve {
		app.Status = domain.ApplicationApproved
	} else {
		app.Status = domain.ApplicationRejected
	}
	app.ReviewedBy = reviewer
	app.ReviewNotes = notes
	app.DecidedAt = time.Now()

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      reviewer,
		Action:       domain.AuditAppDecided,
		ResourceType: "application",
		ResourceID:   string(id),
		Details:      string(app.Status),
	})
	if s.metrics != nil {
		s.metrics.RecordApplication(app.Status)
	}
	return app, nil
}

func (s *applicationService) Withdraw(ctx context.Context, id domain.ApplicationID, userID domain.UserID) error {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if app.ApplicantID != userID {
		return domain.ErrNotApplicant
	}
	if app.Status != domain.ApplicationPending {
		return domain.ErrNotReviewable
	}

	app.Status = domain.ApplicationWithdrawn
	app.DecidedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return fmt.Errorf("failed to withdraw application: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		ActorID:      userID,
		Action:       domain.AuditAppWithdrawn,
		ResourceType: "application",
		ResourceID:   string(id),
	})
	if s.metrics != nil {
		s.metrics.RecordApplication(app.Status)
	}
	return nil
}
