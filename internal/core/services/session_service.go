package services

import (
	"context"
	"sync"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"go.uber.org/zap"
)

// SessionManager bridges identity-provider state changes into session
// lifecycle. Each authenticated browser context owns exactly one live
// Session; all role mutations funnel through generation-checked transitions,
// so a resolution outcome belonging to a superseded session is discarded
// instead of applied.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
	gen      uint64

	resolver RoleResolver
	metrics  ResolutionMetrics
	logger   *zap.SugaredLogger

	lmu       sync.RWMutex
	listeners []func(domain.SessionEvent)
}

func NewSessionManager(resolver RoleResolver, metrics ResolutionMetrics, logger *zap.SugaredLogger) *SessionManager {
	return &SessionManager{
		sessions: make(map[domain.SessionID]*domain.Session),
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Watch subscribes the manager to the identity provider's auth state
// changes. Call once during wiring.
func (m *SessionManager) Watch(provider ports.IdentityProvider) {
	provider.OnAuthStateChanged(func(ev ports.AuthStateEvent) {
		if ev.Authenticated {
			m.OnAuthenticated(ev.SessionID, ev.UserID, ev.EmailHint)
		} else {
			m.OnUnauthenticated(ev.SessionID)
		}
	})
}

// OnAuthenticated installs a fresh session and launches role resolution
// tagged with the session's generation. A sign-in under an existing session
// id supersedes the previous session; its in-flight resolution, if any, will
// fail the generation check and be dropped.
func (m *SessionManager) OnAuthenticated(sessionID domain.SessionID, userID domain.UserID, emailHint string) {
	m.mu.Lock()
	m.gen++
	session := &domain.Session{
		ID:         sessionID,
		Generation: m.gen,
		UserID:     userID,
		EmailHint:  emailHint,
		Role:       domain.RoleUnresolved,
		State:      domain.ResolutionResolving,
		StartedAt:  time.Now(),
	}
	m.sessions[sessionID] = session
	gen := session.Generation
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionStarted()
	}

	go func() {
		res := m.resolver.Resolve(context.Background(), userID, emailHint)
		m.applyResolution(sessionID, gen, res)
	}()
}

// OnUnauthenticated destroys the session. Any resolution still in flight for
// it becomes inapplicable from this point on.
func (m *SessionManager) OnUnauthenticated(sessionID domain.SessionID) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		m.gen++
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if m.metrics != nil {
		m.metrics.SessionEnded()
	}
	m.emit(domain.SessionEvent{
		Type:   domain.EventSessionEnded,
		UserID: session.UserID,
		At:     time.Now(),
	})
}

// applyResolution writes a resolver outcome into the session iff the session
// still exists, carries the same generation, and has not already settled.
// The first transition to resolved/fallback is final for that attempt.
func (m *SessionManager) applyResolution(sessionID domain.SessionID, gen uint64, res Resolution) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok || session.Generation != gen || session.State == domain.ResolutionResolved || session.State == domain.ResolutionFallback {
		m.mu.Unlock()
		m.logger.Debugw("discarding stale resolution outcome",
			"session_id", sessionID,
			"generation", gen,
		)
		return
	}
	session.Role = res.Role
	session.State = res.State
	snapshot := *session
	m.mu.Unlock()

	m.emit(domain.SessionEvent{
		Type:   domain.EventSessionResolved,
		UserID: snapshot.UserID,
		Role:   snapshot.Role,
		State:  snapshot.State,
		At:     time.Now(),
	})
}

// Session returns a copy of the live session.
func (m *SessionManager) Session(sessionID domain.SessionID) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	snapshot := *session
	return &snapshot, nil
}

// SwitchRole overwrites the live session's role immediately (testing/demo
// aid). The override is synchronous and authoritative for the remainder of
// the session; persistence happens in the background through the same path
// the resolver uses, and a write failure never rolls the override back.
func (m *SessionManager) SwitchRole(ctx context.Context, sessionID domain.SessionID, role domain.Role) (*domain.Session, error) {
	if !role.Valid() {
		return nil, domain.ErrUnknownRole
	}

	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	session.Role = role
	session.State = domain.ResolutionResolved
	snapshot := *session
	m.mu.Unlock()

	m.resolver.PersistRole(snapshot.UserID, snapshot.EmailHint, role)

	if m.metrics != nil {
		m.metrics.RoleSwitched(role)
	}
	m.emit(domain.SessionEvent{
		Type:   domain.EventRoleChanged,
		UserID: snapshot.UserID,
		Role:   role,
		State:  snapshot.State,
		At:     time.Now(),
	})
	return &snapshot, nil
}

// Subscribe registers a session-event listener. Listeners must not block.
func (m *SessionManager) Subscribe(fn func(domain.SessionEvent)) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *SessionManager) emit(ev domain.SessionEvent) {
	m.lmu.RLock()
	defer m.lmu.RUnlock()
	for _, fn := range m.listeners {
		fn(ev)
	}
}
