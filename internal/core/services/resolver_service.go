package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/tracing"

	"go.uber.org/zap"
)

// Resolution is the outcome of one role resolution attempt.
type Resolution struct {
	Role  domain.Role
	State domain.ResolutionState
}

// ResolutionMetrics receives role-resolution observability signals. A nil
// implementation is tolerated everywhere.
type ResolutionMetrics interface {
	ObserveResolution(state domain.ResolutionState, d time.Duration)
	SessionStarted()
	SessionEnded()
	RoleSwitched(role domain.Role)
	PersistFailed()
}

// RoleResolver produces an authoritative role for a user id with bounded
// latency, and persists inferred or overridden roles in the background.
type RoleResolver interface {
	Resolve(ctx context.Context, userID domain.UserID, emailHint string) Resolution
	// PersistRole writes a role record without blocking the caller. Failures
	// are logged, never surfaced, and never revert an in-memory role.
	PersistRole(userID domain.UserID, email string, role domain.Role)
}

type roleResolver struct {
	roleRepo        ports.RoleRepository
	timeout         time.Duration
	privilegedEmail string
	metrics         ResolutionMetrics
	logger          *zap.SugaredLogger
}

// NewRoleResolver builds the resolver. timeout bounds the store race; it is
// the single deadline after which the default rule applies.
func NewRoleResolver(
	roleRepo ports.RoleRepository,
	timeout time.Duration,
	privilegedEmail string,
	metrics ResolutionMetrics,
	logger *zap.SugaredLogger,
) RoleResolver {
	return &roleResolver{
		roleRepo:        roleRepo,
		timeout:         timeout,
		privilegedEmail: strings.ToLower(strings.TrimSpace(privilegedEmail)),
		metrics:         metrics,
		logger:          logger,
	}
}

type lookupResult struct {
	record *domain.RoleRecord
	err    error
}

// Resolve races a role-store lookup against the configured timeout. The
// first settled outcome is final for this attempt; a late store reply is
// drained and discarded so it can never clobber a role set by fallback.
func (s *roleResolver) Resolve(ctx context.Context, userID domain.UserID, emailHint string) Resolution {
	ctx, span := tracing.TraceResolution(ctx, string(userID))
	defer span.End()

	start := time.Now()

	// The lookup goroutine is not deadline-bound. The race is
	// first-transition-wins; a late store answer is observed and
	// discarded rather than hard-cancelled mid-call.
	resCh := make(chan lookupResult, 1)
	go func() {
		record, err := s.roleRepo.Get(context.WithoutCancel(ctx), userID)
		resCh <- lookupResult{record: record, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var out Resolution
	select {
	case res := <-resCh:
		out = s.fromLookup(userID, emailHint, res)
	case <-timer.C:
		s.logger.Warnw("role lookup timed out, applying default rule",
			"user_id", userID,
			"timeout", s.timeout,
		)
		out = Resolution{Role: s.defaultRole(emailHint), State: domain.ResolutionFallback}
		go s.drainLateResult(userID, resCh)
	case <-ctx.Done():
		// Caller abandoned the attempt (session superseded). The result is
		// going to be generation-checked away regardless; fall back so the
		// contract of "never unresolved past the timeout" still holds.
		out = Resolution{Role: s.defaultRole(emailHint), State: domain.ResolutionFallback}
		go s.drainLateResult(userID, resCh)
	}

	span.SetAttributes(
		tracing.RoleKey.String(string(out.Role)),
		tracing.ResolutionStateKey.String(string(out.State)),
	)
	if s.metrics != nil {
		s.metrics.ObserveResolution(out.State, time.Since(start))
	}
	return out
}

func (s *roleResolver) fromLookup(userID domain.UserID, emailHint string, res lookupResult) Resolution {
	switch {
	case res.err == nil:
		if !res.record.Role.Valid() {
			// A corrupted record behaves like a store error.
			s.logger.Warnw("role record holds unknown role, applying default rule",
				"user_id", userID,
				"role", res.record.Role,
			)
			return Resolution{Role: s.defaultRole(emailHint), State: domain.ResolutionFallback}
		}
		return Resolution{Role: res.record.Role, State: domain.ResolutionResolved}

	case errors.Is(res.err, domain.ErrRoleNotFound):
		// First resolution for this user: infer a role and persist it
		// without blocking.
		role := s.defaultRole(emailHint)
		s.PersistRole(userID, emailHint, role)
		return Resolution{Role: role, State: domain.ResolutionResolved}

	default:
		s.logger.Warnw("role lookup failed, applying default rule",
			"user_id", userID,
			"error", res.err,
		)
		return Resolution{Role: s.defaultRole(emailHint), State: domain.ResolutionFallback}
	}
}

// defaultRole is the bootstrap heuristic for users without a stored role.
// It is not an authorization mechanism; admin routes enforce roles
// server-side regardless of what it returns.
func (s *roleResolver) defaultRole(emailHint string) domain.Role {
	if s.privilegedEmail != "" && strings.EqualFold(strings.TrimSpace(emailHint), s.privilegedEmail) {
		return domain.RoleSuperadmin
	}
	return domain.RoleBeneficiary
}

func (s *roleResolver) PersistRole(userID domain.UserID, email string, role domain.Role) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		record := &domain.RoleRecord{
			UserID:    userID,
			Email:     email,
			Role:      role,
			UpdatedAt: time.Now(),
		}
		if err := s.roleRepo.Set(ctx, record, true); err != nil {
			// Log-only: the in-memory role stays authoritative and the next
			// login or switch is the recovery path.
			s.logger.Warnw("failed to persist role record",
				"user_id", userID,
				"role", role,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.PersistFailed()
			}
		}
	}()
}

func (s *roleResolver) drainLateResult(userID domain.UserID, resCh <-chan lookupResult) {
	res := <-resCh
	s.logger.Debugw("discarding late role lookup result",
		"user_id", userID,
		"had_record", res.err == nil,
	)
}
