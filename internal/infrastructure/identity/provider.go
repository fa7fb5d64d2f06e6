// Package identity implements the portal's identity provider: local
// accounts with bcrypt credentials and JWT session tokens. It emits auth
// state events that the session manager observes; it never touches roles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	UserID    domain.UserID    `json:"user_id"`
	SessionID domain.SessionID `json:"session_id"`
	Email     string           `json:"email"`
	jwt.RegisteredClaims
}

// sessionEntry is the registry record for a live session. A session lives at
// most refreshTTL from sign-in; the sweeper removes it after that even when
// the user never signs out.
type sessionEntry struct {
	userID    domain.UserID
	expiresAt time.Time
}

type Provider struct {
	users      ports.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[domain.SessionID]sessionEntry

	lmu       sync.RWMutex
	listeners []func(ports.AuthStateEvent)

	sweepStop chan struct{}
	closeOnce sync.Once
}

func NewProvider(
	users ports.UserRepository,
	jwtSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	logger *zap.SugaredLogger,
) *Provider {
	p := &Provider{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		sessions:   make(map[domain.SessionID]sessionEntry),
		sweepStop:  make(chan struct{}),
	}
	go p.sweep(sweepInterval(refreshTTL))
	return p
}

func sweepInterval(refreshTTL time.Duration) time.Duration {
	interval := refreshTTL / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Close stops the session expiry sweeper.
func (p *Provider) Close() {
	p.closeOnce.Do(func() { close(p.sweepStop) })
}

func (p *Provider) SignUp(ctx context.Context, email, password, fullName, barangay string) (*ports.AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := p.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.UserID(uuid.New().String()),
		Email:        email,
		FullName:     fullName,
		Barangay:     barangay,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return p.openSession(user)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*ports.AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return p.openSession(user)
}

func (p *Provider) SignOut(ctx context.Context, sessionID domain.SessionID) error {
	p.mu.Lock()
	_, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	if !ok {
		return domain.ErrNoActiveSession
	}

	p.logger.Infow("session signed out", "session_id", sessionID)
	p.emit(ports.AuthStateEvent{
		Authenticated: false,
		SessionID:     sessionID,
	})
	return nil
}

// Refresh exchanges a valid refresh token for a fresh access token on the
// same session. It does not emit an auth state change: the session identity
// is unchanged.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*ports.AuthSession, error) {
	claims, err := p.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	entry, live := p.sessions[claims.SessionID]
	p.mu.RUnlock()
	if !live || entry.userID != claims.UserID || time.Now().After(entry.expiresAt) {
		return nil, domain.ErrNoActiveSession
	}

	user, err := p.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	access, err := p.signToken(user, claims.SessionID, p.accessTTL)
	if err != nil {
		return nil, err
	}
	return &ports.AuthSession{
		SessionID:   claims.SessionID,
		User:        user,
		AccessToken: access,
		ExpiresIn:   int(p.accessTTL / time.Second),
	}, nil
}

func (p *Provider) ValidateToken(token string) (*ports.TokenClaims, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	entry, live := p.sessions[claims.SessionID]
	p.mu.RUnlock()
	if !live || time.Now().After(entry.expiresAt) {
		return nil, domain.ErrNoActiveSession
	}

	return &ports.TokenClaims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Email:     claims.Email,
	}, nil
}

func (p *Provider) OnAuthStateChanged(fn func(ports.AuthStateEvent)) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Provider) openSession(user *domain.User) (*ports.AuthSession, error) {
	sessionID := domain.SessionID(uuid.New().String())

	access, err := p.signToken(user, sessionID, p.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := p.signToken(user, sessionID, p.refreshTTL)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sessions[sessionID] = sessionEntry{
		userID:    user.ID,
		expiresAt: time.Now().Add(p.refreshTTL),
	}
	p.mu.Unlock()

	p.logger.Infow("session opened",
		"session_id", sessionID,
		"user_id", user.ID,
		"email", utils.MaskSensitive(user.Email, 3),
	)
	p.emit(ports.AuthStateEvent{
		Authenticated: true,
		SessionID:     sessionID,
		UserID:        user.ID,
		EmailHint:     user.Email,
	})

	return &ports.AuthSession{
		SessionID:    sessionID,
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(p.accessTTL / time.Second),
	}, nil
}

func (p *Provider) signToken(user *domain.User, sessionID domain.SessionID, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		SessionID: sessionID,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *Provider) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.sweepStop:
			return
		case <-ticker.C:
			p.expireSessions(time.Now())
		}
	}
}

// expireSessions drops sessions whose refresh window has passed and announces
// each as an auth state change, so the session manager releases its side too.
func (p *Provider) expireSessions(now time.Time) {
	p.mu.Lock()
	var expired []domain.SessionID
	for id, entry := range p.sessions {
		if now.After(entry.expiresAt) {
			delete(p.sessions, id)
			expired = append(expired, id)
		}
	}
	p.mu.Unlock()

	for _, id := range expired {
		p.logger.Infow("session expired", "session_id", id)
		p.emit(ports.AuthStateEvent{
			Authenticated: false,
			SessionID:     id,
		})
	}
}

func (p *Provider) emit(ev ports.AuthStateEvent) {
	p.lmu.RLock()
	defer p.lmu.RUnlock()
	for _, fn := range p.listeners {
		fn(ev)
	}
}
