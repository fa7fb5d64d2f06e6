package http

import (
	"errors"
	"net/http"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/internal/core/routing"
	"mswdportal/internal/infrastructure/middleware"
	apperrors "mswdportal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the live session, the role switcher, and the
// dashboard view projection.
type SessionHandler struct {
	sessions ports.SessionService
	audit    ports.AuditService
}

func NewSessionHandler(sessions ports.SessionService, audit ports.AuditService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		audit:    audit,
	}
}

func (h *SessionHandler) SetupRoutes(group *gin.RouterGroup) {
	group.GET("/session", h.GetSession)
	group.POST("/session/role", h.SwitchRole)
	group.GET("/dashboard", h.GetDashboard)
}

type SwitchRoleRequest struct {
	Role string `json:"role" binding:"required,max=32"`
}

func sessionView(session *domain.Session) gin.H {
	return gin.H{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"role":       session.Role,
		"state":      session.State,
		"started_at": session.StartedAt,
	}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	session, err := h.sessions.Session(sessionID)
	if err != nil {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	c.JSON(http.StatusOK, sessionView(session))
}

// SwitchRole overrides the live session's role. The change is immediate;
// persistence happens in the background and never blocks the response.
func (h *SessionHandler) SwitchRole(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	var req SwitchRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		c.Error(apperrors.NewInvalidInputError("unknown role"))
		return
	}

	session, err := h.sessions.SwitchRole(c.Request.Context(), sessionID, role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveSession):
			c.Error(apperrors.NewUnauthorizedError("no active session"))
		case errors.Is(err, domain.ErrUnknownRole):
			c.Error(apperrors.NewInvalidInputError("unknown role"))
		default:
			c.Error(apperrors.NewInternalError("failed to switch role"))
		}
		return
	}

	h.audit.Record(c.Request.Context(), &domain.AuditEntry{
		ActorID:   session.UserID,
		Action:    domain.AuditRoleSwitched,
		Details:   string(role),
		IPAddress: c.ClientIP(),
	})

	c.JSON(http.StatusOK, sessionView(session))
}

// GetDashboard computes the view for the session's current role and the
// requested page. Unpermitted pages reroute to the role's default dashboard
// rather than erroring.
func (h *SessionHandler) GetDashboard(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	session, err := h.sessions.Session(sessionID)
	if err != nil {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	page := domain.Page(c.Query("page"))
	if page == "" {
		page = routing.DefaultPage(session.Role)
	}
	view := routing.ComputeView(session.Role, page)

	c.JSON(http.StatusOK, gin.H{
		"state": session.State,
		"view":  view,
	})
}
