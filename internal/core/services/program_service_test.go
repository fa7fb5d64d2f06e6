package services

import (
	"context"
	"testing"

	"mswdportal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) Create(ctx context.Context, program *domain.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockProgramRepository) GetByID(ctx context.Context, id domain.ProgramID) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockProgramRepository) GetByCode(ctx context.Context, code string) (*domain.Program, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockProgramRepository) Delete(ctx context.Context, id domain.ProgramID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProgramRepository) List(ctx context.Context) ([]*domain.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Program), args.Error(1)
}

func (m *MockProgramRepository) ListByStatus(ctx context.Context, status domain.ProgramStatus) ([]*domain.Program, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Program), args.Error(1)
}

type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) ListByApplicant(ctx context.Context, userID domain.UserID) ([]*domain.Application, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) ListByProgram(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByActor(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error) {
	args := m.Called(ctx, actorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Error(1)
}

func (m *MockAuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Error(1)
}

func newTestAudit(t *testing.T, repo *MockAuditRepository) *auditService {
	t.Helper()
	repo.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewAuditService(repo, zaptest.NewLogger(t).Sugar()).(*auditService)
}

func TestCreateProgram(t *testing.T) {
	programRepo := new(MockProgramRepository)
	appRepo := new(MockApplicationRepository)
	auditRepo := new(MockAuditRepository)
	svc := NewProgramService(programRepo, appRepo, newTestAudit(t, auditRepo))

	programRepo.On("GetByCode", mock.Anything, "LIVELIHOOD-01").Return(nil, domain.ErrProgramNotFound)
	programRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Program")).Return(nil)

	program, err := svc.CreateProgram(context.Background(), &domain.Program{
		Code:     "LIVELIHOOD-01",
		Name:     "Sari-sari Store Starter Kit",
		Budget:   500_000_00,
		MaxSlots: 50,
	}, "admin-1")

	require.NoError(t, err)
	assert.NotEmpty(t, program.ID)
	assert.Equal(t, domain.ProgramDraft, program.Status)
	assert.Equal(t, domain.UserID("admin-1"), program.CreatedBy)
	assert.False(t, program.CreatedAt.IsZero())
	programRepo.AssertExpectations(t)
}

func TestCreateProgram_DuplicateCode(t *testing.T) {
	programRepo := new(MockProgramRepository)
	appRepo := new(MockApplicationRepository)
	auditRepo := new(MockAuditRepository)
	svc := NewProgramService(programRepo, appRepo, newTestAudit(t, auditRepo))

	programRepo.On("GetByCode", mock.Anything, "LIVELIHOOD-01").
		Return(&domain.Program{ID: "existing", Code: "LIVELIHOOD-01"}, nil)

	_, err := svc.CreateProgram(context.Background(), &domain.Program{Code: "LIVELIHOOD-01"}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrProgramCodeTaken)
}

func TestSetProgramStatus(t *testing.T) {
	programRepo := new(MockProgramRepository)
	appRepo := new(MockApplicationRepository)
	auditRepo := new(MockAuditRepository)
	svc := NewProgramService(programRepo, appRepo, newTestAudit(t, auditRepo))

	program := &domain.Program{ID: "p1", Status: domain.ProgramDraft}
	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).Return(program, nil)
	programRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Program) bool {
		return p.Status == domain.ProgramActive
	})).Return(nil)

	err := svc.SetProgramStatus(context.Background(), "p1", domain.ProgramActive, "admin-1")
	require.NoError(t, err)
	programRepo.AssertExpectations(t)
}

func TestProgramStatistics(t *testing.T) {
	programRepo := new(MockProgramRepository)
	appRepo := new(MockApplicationRepository)
	auditRepo := new(MockAuditRepository)
	svc := NewProgramService(programRepo, appRepo, newTestAudit(t, auditRepo))

	programRepo.On("GetByID", mock.Anything, domain.ProgramID("p1")).
		Return(&domain.Program{ID: "p1", MaxSlots: 10}, nil)
	appRepo.On("ListByProgram", mock.Anything, domain.ProgramID("p1")).Return([]*domain.Application{
		{Status: domain.ApplicationApproved},
		{Status: domain.ApplicationApproved},
		{Status: domain.ApplicationPending},
		{Status: domain.ApplicationRejected},
		{Status: domain.ApplicationWithdrawn},
	}, nil)

	stats, err := svc.ProgramStatistics(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalApplied)
	assert.Equal(t, 2, stats.TotalApproved)
	assert.Equal(t, 1, stats.TotalPending)
	assert.Equal(t, 1, stats.TotalRejected)
	assert.Equal(t, 1, stats.TotalWithdrawn)
	assert.Equal(t, 8, stats.SlotsRemaining)
}
