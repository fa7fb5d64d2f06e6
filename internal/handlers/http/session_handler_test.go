package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/services"
	"mswdportal/internal/infrastructure/identity"
	"mswdportal/internal/infrastructure/middleware"
	"mswdportal/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sessionTestEnv struct {
	router   *gin.Engine
	provider *identity.Provider
	manager  *services.SessionManager
}

func newSessionTestEnv(t *testing.T) *sessionTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t).Sugar()

	provider := identity.NewProvider(memory.NewMemoryUserRepository(), "test-secret", time.Minute, time.Hour, logger)
	t.Cleanup(provider.Close)
	resolver := services.NewRoleResolver(memory.NewMemoryRoleRepository(), 500*time.Millisecond, "boss@example.com", nil, logger)
	manager := services.NewSessionManager(resolver, nil, logger)
	manager.Watch(provider)

	audit := services.NewAuditService(memory.NewMemoryAuditRepository(), logger)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	protected := router.Group("/api/v1", middleware.AuthMiddleware(provider))
	NewSessionHandler(manager, audit).SetupRoutes(protected)

	return &sessionTestEnv{router: router, provider: provider, manager: manager}
}

func (env *sessionTestEnv) signIn(t *testing.T, email string) (token string, sessionID domain.SessionID) {
	t.Helper()
	session, err := env.provider.SignUp(context.Background(), email, "s3cretpass", "", "")
	require.NoError(t, err)

	// Wait until resolution settles so tests see a stable role.
	require.Eventually(t, func() bool {
		s, err := env.manager.Session(session.SessionID)
		return err == nil && s.State != domain.ResolutionResolving
	}, 2*time.Second, 10*time.Millisecond)

	return session.AccessToken, session.SessionID
}

func (env *sessionTestEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestGetSession(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "ana@example.com")

	w := env.do(http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.RoleBeneficiary), resp["role"])
	assert.Equal(t, string(domain.ResolutionResolved), resp["state"])
}

func TestGetSession_PrivilegedEmail(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "boss@example.com")

	w := env.do(http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.RoleSuperadmin), resp["role"])
}

func TestGetSession_Unauthenticated(t *testing.T) {
	env := newSessionTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwitchRole(t *testing.T) {
	env := newSessionTestEnv(t)
	token, sessionID := env.signIn(t, "ana@example.com")

	w := env.do(http.MethodPost, "/api/v1/session/role", token, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	// The switch is visible immediately.
	session, err := env.manager.Session(sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.Role)
}

func TestSwitchRole_UnknownRole(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "ana@example.com")

	w := env.do(http.MethodPost, "/api/v1/session/role", token, gin.H{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDashboard_DefaultPage(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "ana@example.com")

	w := env.do(http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		View domain.DashboardView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.RoleBeneficiary, resp.View.Role)
	assert.Equal(t, domain.PageDashboard, resp.View.Page)
	assert.Contains(t, resp.View.Panels, domain.PanelApplyPrograms)
}

func TestGetDashboard_UnpermittedPageReroutes(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "ana@example.com")

	// A beneficiary asking for the user-management page lands on their own
	// dashboard instead.
	w := env.do(http.MethodGet, "/api/v1/dashboard?page=users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		View domain.DashboardView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.PageDashboard, resp.View.Page)
	assert.NotContains(t, resp.View.Panels, domain.PanelUserManagement)
}

func TestDashboard_ReflectsRoleSwitch(t *testing.T) {
	env := newSessionTestEnv(t)
	token, _ := env.signIn(t, "ana@example.com")

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/session/role", token, gin.H{"role": "superadmin"}).Code)

	w := env.do(http.MethodGet, "/api/v1/dashboard?page=users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		View domain.DashboardView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.PageUsers, resp.View.Page)
	assert.Contains(t, resp.View.Panels, domain.PanelUserManagement)
}
