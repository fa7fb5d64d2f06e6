package services

import (
	"context"
	"testing"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApplicationFixture(t *testing.T) (*MockApplicationRepository, *MockProgramRepository, ports.ApplicationService) {
	t.Helper()
	appRepo := new(MockApplicationRepository)
	programRepo := new(MockProgramRepository)
	auditRepo := new(MockAuditRepository)
	svc := NewApplicationService(appRepo, programRepo, newTestAudit(t, auditRepo), nil)
	return appRepo, programRepo, svc
}

func TestApply(t *testing.T) {
	appRepo, programRepo, svc := newApplicationFixture(t)

	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).
		Return(&domain.Program{ID: "p1", Status: domain.ProgramActive}, nil)
	appRepo.On("ListByApplicant", mock.Anything, domain.UserID("u1")).
		Return([]*domain.Application{}, nil)
	appRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Application")).Return(nil)

	app, err := svc.Apply(context.Background(), "p1", "u1", "sari-sari store capital")

	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, domain.ApplicationPending, app.Status)
	assert.Equal(t, domain.UserID("u1"), app.ApplicantID)
	appRepo.AssertExpectations(t)
}

func TestApply_InactiveProgram(t *testing.T) {
	_, programRepo, svc := newApplicationFixture(t)

	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).
		Return(&domain.Program{ID: "p1", Status: domain.ProgramDraft}, nil)

	_, err := svc.Apply(context.Background(), "p1", "u1", "")
	assert.ErrorIs(t, err, domain.ErrProgramNotActive)
}

func TestApply_AlreadyApplied(t *testing.T) {
	appRepo, programRepo, svc := newApplicationFixture(t)

	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).
		Return(&domain.Program{ID: "p1", Status: domain.ProgramActive}, nil)
	appRepo.On("ListByApplicant", mock.Anything, domain.UserID("u1")).
		Return([]*domain.Application{
			{ProgramID: "p1", Status: domain.ApplicationPending},
		}, nil)

	_, err := svc.Apply(context.Background(), "p1", "u1", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyApplied)
}

func TestApply_AllowedAfterWithdrawal(t *testing.T) {
	appRepo, programRepo, svc := newApplicationFixture(t)

	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).
		Return(&domain.Program{ID: "p1", Status: domain.ProgramActive}, nil)
	appRepo.On("ListByApplicant", mock.Anything, domain.UserID("u1")).
		Return([]*domain.Application{
			{ProgramID: "p1", Status: domain.ApplicationWithdrawn},
		}, nil)
	appRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Application")).Return(nil)

	_, err := svc.Apply(context.Background(), "p1", "u1", "second try")
	assert.NoError(t, err)
}

func TestReview(t *testing.T) {
	appRepo, _, svc := newApplicationFixture(t)

	appRepo.On("GetByID", mock.Anything, domain.ApplicationID("a1")).
		Return(&domain.Application{ID: "a1", ProgramID: "p1", ApplicantID: "u1", Status: domain.ApplicationPending}, nil)
	appRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Application) bool {
		return a.Status == domain.ApplicationApproved && a.ReviewedBy == "adm" && !a.DecidedAt.IsZero()
	})).Return(nil)

	app, err := svc.Review(context.Background(), "a1", true, "adm", "complete requirements")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, app.Status)
	assert.Equal(t, "complete requirements", app.ReviewNotes)
}

func TestReview_NotReviewable(t *testing.T) {
	appRepo, _, svc := newApplicationFixture(t)

	appRepo.On("GetByID", mock.Anything, domain.ApplicationID("a1")).
		Return(&domain.Application{ID: "a1", Status: domain.ApplicationApproved}, nil)

	_, err := svc.Review(context.Background(), "a1", false, "adm", "")
	assert.ErrorIs(t, err, domain.ErrNotReviewable)
}

func TestWithdraw(t *testing.T) {
	appRepo, _, svc := newApplicationFixture(t)

	appRepo.On("GetByID", mock.Anything, domain.ApplicationID("a1")).
		Return(&domain.Application{ID: "a1", ApplicantID: "u1", Status: domain.ApplicationPending}, nil)
	appRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Application) bool {
		return a.Status == domain.ApplicationWithdrawn
	})).Return(nil)

	err := svc.Withdraw(context.Background(), "a1", "u1")
	assert.NoError(t, err)
}

func TestWithdraw_WrongUser(t *testing.T) {
	appRepo, _, svc := newApplicationFixture(t)

	appRepo.On("GetByID", mock.Anything, domain.ApplicationID("a1")).
		Return(&domain.Application{ID: "a1", ApplicantID: "u1", Status: domain.ApplicationPending}, nil)

	err := svc.Withdraw(context.Background(), "a1", "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotApplicant)
}
