package memory

import (
	"context"
	"testing"
	"time"

	"mswdportal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepository_GetMissing(t *testing.T) {
	repo := NewMemoryRoleRepository()

	_, err := repo.Get(context.Background(), "u-1")
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestRoleRepository_SetThenGet(t *testing.T) {
	repo := NewMemoryRoleRepository()
	ctx := context.Background()

	record := &domain.RoleRecord{
		UserID:    "u-1",
		Email:     "ana@example.com",
		Role:      domain.RoleAdmin,
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Set(ctx, record, false))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestRoleRepository_MergePreservesUnsetFields(t *testing.T) {
	repo := NewMemoryRoleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, &domain.RoleRecord{
		UserID: "u-1",
		Email:  "ana@example.com",
		Role:   domain.RoleBeneficiary,
	}, false))

	// Role-only update with merge keeps the stored email.
	require.NoError(t, repo.Set(ctx, &domain.RoleRecord{
		UserID: "u-1",
		Role:   domain.RoleAdmin,
	}, true))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestRoleRepository_OverwriteWithoutMerge(t *testing.T) {
	repo := NewMemoryRoleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, &domain.RoleRecord{
		UserID: "u-1",
		Email:  "ana@example.com",
		Role:   domain.RoleBeneficiary,
	}, false))

	require.NoError(t, repo.Set(ctx, &domain.RoleRecord{
		UserID: "u-1",
		Role:   domain.RoleAdmin,
	}, false))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Empty(t, got.Email)
}

func TestRoleRepository_GetHonorsContext(t *testing.T) {
	repo := NewMemoryRoleRepository()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, "u-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoleRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryRoleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, &domain.RoleRecord{
		UserID: "u-1",
		Role:   domain.RoleAdmin,
	}, false))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	got.Role = domain.RoleSuperadmin

	again, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, again.Role)
}
