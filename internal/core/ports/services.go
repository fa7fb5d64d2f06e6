package ports

import (
	"context"

	"mswdportal/internal/core/domain"
)

// AuthStateEvent is the identity provider's session lifecycle signal. The
// session manager subscribes to these instead of being called directly, so
// the provider implementation stays swappable.
type AuthStateEvent struct {
	Authenticated bool
	SessionID     domain.SessionID
	UserID        domain.UserID
	EmailHint     string
}

// AuthSession is what a successful sign-in/sign-up hands back to the client.
type AuthSession struct {
	SessionID    domain.SessionID
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// TokenClaims is the validated content of an access token.
type TokenClaims struct {
	UserID    domain.UserID
	SessionID domain.SessionID
	Email     string
}

// IdentityProvider owns accounts and credentials. It emits AuthStateEvents
// on sign-in and sign-out; it knows nothing about roles.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, fullName, barangay string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context, sessionID domain.SessionID) error
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
	ValidateToken(token string) (*TokenClaims, error)
	OnAuthStateChanged(fn func(AuthStateEvent))
}

// SessionService exposes live session state to the HTTP layer.
type SessionService interface {
	Session(sessionID domain.SessionID) (*domain.Session, error)
	// SwitchRole overwrites the live session's role for testing/demo use and
	// persists the override in the background.
	SwitchRole(ctx context.Context, sessionID domain.SessionID, role domain.Role) (*domain.Session, error)
	// Subscribe registers a listener for session events (resolution,
	// role changes, sign-out).
	Subscribe(fn func(domain.SessionEvent))
}

type ProgramService interface {
	CreateProgram(ctx context.Context, p *domain.Program, createdBy domain.UserID) (*domain.Program, error)
	GetProgram(ctx context.Context, id domain.ProgramID) (*domain.Program, error)
	UpdateProgram(ctx context.Context, p *domain.Program, updatedBy domain.UserID) (*domain.Program, error)
	DeleteProgram(ctx context.Context, id domain.ProgramID, deletedBy domain.UserID) error
	SetProgramStatus(ctx context.Context, id domain.ProgramID, status domain.ProgramStatus, actor domain.UserID) error
	SetFeatured(ctx context.Context, id domain.ProgramID, featured bool, actor domain.UserID) error
	ListPrograms(ctx context.Context) ([]*domain.Program, error)
	ListActivePrograms(ctx context.Context) ([]*domain.Program, error)
	ProgramStatistics(ctx context.Context, id domain.ProgramID) (*domain.ProgramStats, error)
}

type ApplicationService interface {
	Apply(ctx context.Context, programID domain.ProgramID, applicant domain.UserID, remarks string) (*domain.Application, error)
	GetApplication(ctx context.Context, id domain.ApplicationID) (*domain.Application, error)
	MyApplications(ctx context.Context, userID domain.UserID) ([]*domain.Application, error)
	ProgramApplications(ctx context.Context, programID domain.ProgramID) ([]*domain.Application, error)
	Review(ctx context.Context, id domain.ApplicationID, approve bool, reviewer domain.UserID, notes string) (*domain.Application, error)
	Withdraw(ctx context.Context, id domain.ApplicationID, userID domain.UserID) error
}

type AuditService interface {
	Record(ctx context.Context, entry *domain.AuditEntry)
	ActorTrail(ctx context.Context, actorID domain.UserID, limit int) ([]*domain.AuditEntry, error)
	ResourceTrail(ctx context.Context, resourceType, resourceID string, limit int) ([]*domain.AuditEntry, error)
}
