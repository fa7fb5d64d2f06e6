package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mswdportal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubRoleRepo lets tests control latency and outcomes of the role store.
type stubRoleRepo struct {
	mu      sync.Mutex
	getFn   func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error)
	setErr  error
	setCh   chan *domain.RoleRecord
	setCall int
}

func (r *stubRoleRepo) Get(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
	return r.getFn(ctx, userID)
}

func (r *stubRoleRepo) Set(ctx context.Context, record *domain.RoleRecord, merge bool) error {
	r.mu.Lock()
	r.setCall++
	err := r.setErr
	r.mu.Unlock()
	if r.setCh != nil {
		r.setCh <- record
	}
	return err
}

func (r *stubRoleRepo) setCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setCall
}

const privileged = "root@example.org"

func newTestResolver(t *testing.T, repo *stubRoleRepo, timeout time.Duration) RoleResolver {
	t.Helper()
	return NewRoleResolver(repo, timeout, privileged, nil, zaptest.NewLogger(t).Sugar())
}

func TestResolve_ExistingRecordWins(t *testing.T) {
	repo := &stubRoleRepo{
		getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
			return &domain.RoleRecord{UserID: userID, Role: domain.RoleAdmin}, nil
		},
	}
	resolver := newTestResolver(t, repo, 3*time.Second)

	res := resolver.Resolve(context.Background(), "u1", "someone@example.org")

	assert.Equal(t, domain.RoleAdmin, res.Role)
	assert.Equal(t, domain.ResolutionResolved, res.State)
}

func TestResolve_NoRecordDefaultRule(t *testing.T) {
	tests := []struct {
		name      string
		emailHint string
		want      domain.Role
	}{
		{"privileged email yields superadmin", privileged, domain.RoleSuperadmin},
		{"privileged email is case insensitive", "Root@Example.ORG", domain.RoleSuperadmin},
		{"non-privileged email yields beneficiary", "admin@example.org", domain.RoleBeneficiary},
		{"empty hint yields beneficiary", "", domain.RoleBeneficiary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRoleRepo{
				getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
					return nil, domain.ErrRoleNotFound
				},
				setCh: make(chan *domain.RoleRecord, 1),
			}
			resolver := newTestResolver(t, repo, 3*time.Second)

			res := resolver.Resolve(context.Background(), "u1", tt.emailHint)

			assert.Equal(t, tt.want, res.Role)
			assert.Equal(t, domain.ResolutionResolved, res.State)

			// The inferred role is written in the background.
			select {
			case record := <-repo.setCh:
				assert.Equal(t, domain.UserID("u1"), record.UserID)
				assert.Equal(t, tt.want, record.Role)
			case <-time.After(time.Second):
				t.Fatal("expected a background role record write")
			}
		})
	}
}

func TestResolve_StoreRespondsNotFoundQuickly(t *testing.T) {
	// Scenario: store answers NotFound at 500ms with a 3s budget; resolution
	// must complete resolved, not fallback.
	repo := &stubRoleRepo{
		getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
			time.Sleep(50 * time.Millisecond)
			return nil, domain.ErrRoleNotFound
		},
		setCh: make(chan *domain.RoleRecord, 1),
	}
	resolver := newTestResolver(t, repo, 300*time.Millisecond)

	res := resolver.Resolve(context.Background(), "u1", "admin@example.org")

	assert.Equal(t, domain.RoleBeneficiary, res.Role)
	assert.Equal(t, domain.ResolutionResolved, res.State)
	select {
	case record := <-repo.setCh:
		assert.Equal(t, domain.RoleBeneficiary, record.Role)
	case <-time.After(time.Second):
		t.Fatal("expected a background role record write")
	}
}

func TestResolve_TimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	repo := &stubRoleRepo{
		getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
			<-release
			return &domain.RoleRecord{UserID: userID, Role: domain.RoleAdmin}, nil
		},
	}
	resolver := newTestResolver(t, repo, 50*time.Millisecond)

	start := time.Now()
	res := resolver.Resolve(context.Background(), "u2", privileged)
	elapsed := time.Since(start)

	// Default rule applied at the deadline, not before and not much after.
	assert.Equal(t, domain.RoleSuperadmin, res.Role)
	assert.Equal(t, domain.ResolutionFallback, res.State)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	// The late store reply is drained and discarded; nothing blocks and no
	// write of the stale record happens.
	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, repo.setCalls())
}

func TestResolve_StoreErrorFallsBack(t *testing.T) {
	repo := &stubRoleRepo{
		getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
			return nil, errors.New("connection refused")
		},
	}
	resolver := newTestResolver(t, repo, time.Second)

	res := resolver.Resolve(context.Background(), "u1", "someone@example.org")

	assert.Equal(t, domain.RoleBeneficiary, res.Role)
	assert.Equal(t, domain.ResolutionFallback, res.State)
	assert.Equal(t, 0, repo.setCalls())
}

func TestResolve_CorruptedRecordFallsBack(t *testing.T) {
	repo := &stubRoleRepo{
		getFn: func(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
			return &domain.RoleRecord{UserID: userID, Role: domain.Role("emperor")}, nil
		},
	}
	resolver := newTestResolver(t, repo, time.Second)

	res := resolver.Resolve(context.Background(), "u1", "someone@example.org")

	assert.Equal(t, domain.RoleBeneficiary, res.Role)
	assert.Equal(t, domain.ResolutionFallback, res.State)
}

func TestPersistRole_FailureIsSwallowed(t *testing.T) {
	repo := &stubRoleRepo{
		setErr: errors.New("write refused"),
		setCh:  make(chan *domain.RoleRecord, 1),
	}
	resolver := newTestResolver(t, repo, time.Second)

	resolver.PersistRole("u1", "someone@example.org", domain.RoleAdmin)

	select {
	case record := <-repo.setCh:
		require.Equal(t, domain.RoleAdmin, record.Role)
	case <-time.After(time.Second):
		t.Fatal("expected the background write to be attempted")
	}
	// No panic, no retry: one attempt only.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, repo.setCalls())
}
