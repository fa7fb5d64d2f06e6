package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"mswdportal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubResolver lets tests decide when a resolution attempt completes.
type stubResolver struct {
	mu        sync.Mutex
	results   map[domain.UserID]Resolution
	block     chan struct{} // if non-nil, Resolve waits on it
	persisted []domain.RoleRecord
}

func (r *stubResolver) Resolve(ctx context.Context, userID domain.UserID, emailHint string) Resolution {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[userID]; ok {
		return res
	}
	return Resolution{Role: domain.RoleBeneficiary, State: domain.ResolutionResolved}
}

func (r *stubResolver) PersistRole(userID domain.UserID, email string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persisted = append(r.persisted, domain.RoleRecord{UserID: userID, Email: email, Role: role})
}

func (r *stubResolver) persistedRoles() []domain.RoleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RoleRecord, len(r.persisted))
	copy(out, r.persisted)
	return out
}

func newTestManager(t *testing.T, resolver RoleResolver) *SessionManager {
	t.Helper()
	return NewSessionManager(resolver, nil, zaptest.NewLogger(t).Sugar())
}

func TestSessionManager_ResolutionApplies(t *testing.T) {
	resolver := &stubResolver{
		results: map[domain.UserID]Resolution{
			"u1": {Role: domain.RoleAdmin, State: domain.ResolutionResolved},
		},
	}
	m := newTestManager(t, resolver)

	m.OnAuthenticated("sess-1", "u1", "admin@example.org")

	assert.Eventually(t, func() bool {
		s, err := m.Session("sess-1")
		return err == nil && s.Role == domain.RoleAdmin && s.State == domain.ResolutionResolved
	}, time.Second, 5*time.Millisecond)
}

func TestSessionManager_SignOutDiscardsInFlightResolution(t *testing.T) {
	resolver := &stubResolver{
		results: map[domain.UserID]Resolution{
			"u1": {Role: domain.RoleSuperadmin, State: domain.ResolutionResolved},
		},
		block: make(chan struct{}),
	}
	m := newTestManager(t, resolver)

	m.OnAuthenticated("sess-1", "u1", "boss@example.org")
	m.OnUnauthenticated("sess-1")

	// Let the stale resolution finish; it must land nowhere.
	close(resolver.block)
	time.Sleep(50 * time.Millisecond)

	_, err := m.Session("sess-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestSessionManager_SupersededSessionKeepsNewUsersRole(t *testing.T) {
	// u1's resolution is slow; the same browser context re-authenticates as
	// u2 before it lands. The stale u1 outcome must not leak into u2's
	// session.
	gate := make(chan struct{})
	resolver := &stubResolver{
		results: map[domain.UserID]Resolution{
			"u1": {Role: domain.RoleSuperadmin, State: domain.ResolutionResolved},
			"u2": {Role: domain.RoleBeneficiary, State: domain.ResolutionResolved},
		},
		block: gate,
	}
	m := newTestManager(t, resolver)

	m.OnAuthenticated("sess-1", "u1", "first@example.org")
	m.OnAuthenticated("sess-1", "u2", "second@example.org")

	close(gate)

	assert.Eventually(t, func() bool {
		s, err := m.Session("sess-1")
		return err == nil && s.UserID == "u2" && s.Role == domain.RoleBeneficiary
	}, time.Second, 5*time.Millisecond)

	// Give the stale u1 outcome time to arrive and be discarded.
	time.Sleep(50 * time.Millisecond)
	s, err := m.Session("sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBeneficiary, s.Role)
	assert.Equal(t, domain.UserID("u2"), s.UserID)
}

func TestSessionManager_FirstTransitionWins(t *testing.T) {
	resolver := &stubResolver{}
	m := newTestManager(t, resolver)
	m.OnAuthenticated("sess-1", "u1", "x@example.org")

	require.Eventually(t, func() bool {
		s, err := m.Session("sess-1")
		return err == nil && s.State == domain.ResolutionResolved
	}, time.Second, 5*time.Millisecond)

	s, _ := m.Session("sess-1")
	gen := s.Generation

	// A second outcome for the same attempt must be ignored.
	m.applyResolution("sess-1", gen, Resolution{Role: domain.RoleSuperadmin, State: domain.ResolutionResolved})

	s, err := m.Session("sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBeneficiary, s.Role)
}

func TestSessionManager_SwitchRole(t *testing.T) {
	resolver := &stubResolver{}
	m := newTestManager(t, resolver)
	m.OnAuthenticated("sess-1", "u1", "ben@example.org")

	require.Eventually(t, func() bool {
		s, err := m.Session("sess-1")
		return err == nil && s.State == domain.ResolutionResolved
	}, time.Second, 5*time.Millisecond)

	s, err := m.SwitchRole(context.Background(), "sess-1", domain.RoleSuperadmin)
	require.NoError(t, err)

	// Synchronous and immediately visible.
	assert.Equal(t, domain.RoleSuperadmin, s.Role)
	assert.Equal(t, domain.ResolutionResolved, s.State)

	// Persisted through the same background path as resolver inference.
	assert.Eventually(t, func() bool {
		roles := resolver.persistedRoles()
		return len(roles) == 1 && roles[0].Role == domain.RoleSuperadmin && roles[0].UserID == "u1"
	}, time.Second, 5*time.Millisecond)
}

func TestSessionManager_SwitchRoleValidation(t *testing.T) {
	resolver := &stubResolver{}
	m := newTestManager(t, resolver)

	_, err := m.SwitchRole(context.Background(), "missing", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	m.OnAuthenticated("sess-1", "u1", "x@example.org")
	_, err = m.SwitchRole(context.Background(), "sess-1", domain.Role("emperor"))
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestSessionManager_EventsEmitted(t *testing.T) {
	resolver := &stubResolver{}
	m := newTestManager(t, resolver)

	var mu sync.Mutex
	var events []domain.SessionEventType
	m.Subscribe(func(ev domain.SessionEvent) {
		mu.Lock()
		events = append(events, ev.Type)
		mu.Unlock()
	})

	m.OnAuthenticated("sess-1", "u1", "x@example.org")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 1
	}, time.Second, 5*time.Millisecond)

	_, err := m.SwitchRole(context.Background(), "sess-1", domain.RoleAdmin)
	require.NoError(t, err)
	m.OnUnauthenticated("sess-1")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.SessionEventType{
		domain.EventSessionResolved,
		domain.EventRoleChanged,
		domain.EventSessionEnded,
	}, events)
}
