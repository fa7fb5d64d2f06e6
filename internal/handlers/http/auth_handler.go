package http

import (
	"errors"
	"net/http"
	"strings"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	apperrors "mswdportal/pkg/errors"
	"mswdportal/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	provider ports.IdentityProvider
	audit    ports.AuditService
}

func NewAuthHandler(provider ports.IdentityProvider, audit ports.AuditService) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		audit:    audit,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.RefreshToken)
	}
}

// SetupProtectedRoutes registers routes that require a valid token.
func (h *AuthHandler) SetupProtectedRoutes(group *gin.RouterGroup) {
	group.POST("/auth/logout", h.Logout)
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
	FullName string `json:"full_name" binding:"max=120"`
	Barangay string `json:"barangay" binding:"max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

func sessionResponse(session *ports.AuthSession) gin.H {
	return gin.H{
		"session_id":    session.SessionID,
		"user_id":       session.User.ID,
		"email":         session.User.Email,
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if req.FullName != "" {
		if err := validation.ValidateFullName(req.FullName); err != nil {
			c.Error(apperrors.NewInvalidInputError(err.Error()))
			return
		}
	}

	session, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName, req.Barangay)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			c.Error(apperrors.NewConflictError("email already registered"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to register"))
		return
	}

	h.audit.Record(c.Request.Context(), &domain.AuditEntry{
		ActorID:   session.User.ID,
		Action:    domain.AuditLogin,
		Details:   "registered",
		IPAddress: c.ClientIP(),
	})

	c.JSON(http.StatusCreated, sessionResponse(session))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	session, err := h.provider.SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			// Deliberately indistinguishable from an unknown email.
			c.Error(apperrors.NewAuthError("invalid email or password"))
		case errors.Is(err, domain.ErrUserInactive):
			c.Error(apperrors.NewForbiddenError("account is deactivated"))
		default:
			c.Error(apperrors.NewInternalError("failed to sign in"))
		}
		return
	}

	h.audit.Record(c.Request.Context(), &domain.AuditEntry{
		ActorID:   session.User.ID,
		Action:    domain.AuditLogin,
		IPAddress: c.ClientIP(),
	})

	c.JSON(http.StatusOK, sessionResponse(session))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionIDVal, _ := c.Get("session_id")
	sessionID, ok := sessionIDVal.(domain.SessionID)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("no active session"))
		return
	}

	if err := h.provider.SignOut(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			c.Error(apperrors.NewUnauthorizedError("no active session"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to sign out"))
		return
	}

	if userIDVal, exists := c.Get("user_id"); exists {
		if userID, ok := userIDVal.(domain.UserID); ok {
			h.audit.Record(c.Request.Context(), &domain.AuditEntry{
				ActorID:   userID,
				Action:    domain.AuditLogout,
				IPAddress: c.ClientIP(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	session, err := h.provider.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.Error(apperrors.NewAuthError("invalid refresh token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   session.SessionID,
		"access_token": session.AccessToken,
		"expires_in":   session.ExpiresIn,
	})
}
