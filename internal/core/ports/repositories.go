package ports

import (
	"context"

	"mswdportal/internal/core/domain"
)

// RoleRepository is the Role Store: one RoleRecord per user id. Get must
// honor ctx cancellation/deadline so callers can impose their own timeout;
// Set with merge preserves fields the caller did not supply.
type RoleRepository interface {
	Get(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error)
	Set(ctx context.Context, record *domain.RoleRecord, merge bool) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
}

type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) error
	GetByID(ctx context.Context, id domain.ProgramID) (*domain.Program, error)
	GetByCode(ctx context.Context, code string) (*domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id domain.ProgramID) error
	List(ctx context.Context) ([]*domain.Program, error)
	ListByStatus(ctx context.Context, status domain.ProgramStatus) ([]*domain.Program, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error)
	Update(ctx context.Context, app *domain.Application) error
	ListByApplicant(ctx context.Context, userID domain.UserID) ([]*domain.Application, error)
	ListByProgram(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error)
}

// AuditRepository is append-only; entries are never mutated or removed.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByActor(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error)
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error)
}
