package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/internal/infrastructure/middleware"
	apperrors "mswdportal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// UserHandler is the superadmin account console: listing accounts,
// activating and deactivating them, and assigning stored roles.
type UserHandler struct {
	users ports.UserRepository
	roles ports.RoleRepository
	audit ports.AuditService
}

func NewUserHandler(users ports.UserRepository, roles ports.RoleRepository, audit ports.AuditService) *UserHandler {
	return &UserHandler{
		users: users,
		roles: roles,
		audit: audit,
	}
}

func (h *UserHandler) SetupRoutes(group *gin.RouterGroup) {
	group.GET("/users", h.List)
	group.GET("/users/:id", h.Get)
	group.PUT("/users/:id/active", h.SetActive)
	group.PUT("/users/:id/role", h.SetRole)
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,max=32"`
}

func userView(user *domain.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"barangay":   user.Barangay,
		"active":     user.Active,
		"created_at": user.CreatedAt,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list users"))
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, userView(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "offset": offset, "limit": limit})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError("user"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to get user"))
		return
	}

	view := userView(user)
	if record, err := h.roles.Get(c.Request.Context(), user.ID); err == nil {
		view["role"] = record.Role
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError("user"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to get user"))
		return
	}

	user.Active = *req.Active
	if err := h.users.Update(c.Request.Context(), user); err != nil {
		c.Error(apperrors.NewInternalError("failed to update user"))
		return
	}

	if actorID, ok := middleware.UserID(c); ok {
		details := "deactivated"
		if user.Active {
			details = "activated"
		}
		h.audit.Record(c.Request.Context(), &domain.AuditEntry{
			ActorID:      actorID,
			Action:       domain.AuditStatusChanged,
			ResourceType: "user",
			ResourceID:   string(user.ID),
			Details:      details,
			IPAddress:    c.ClientIP(),
		})
	}

	c.JSON(http.StatusOK, userView(user))
}

// SetRole writes the stored role record. A live session of the target user
// keeps its current role until its next login or manual switch.
func (h *UserHandler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		c.Error(apperrors.NewInvalidInputError("unknown role"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError("user"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to get user"))
		return
	}

	record := &domain.RoleRecord{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      role,
		UpdatedAt: time.Now(),
	}
	if err := h.roles.Set(c.Request.Context(), record, true); err != nil {
		c.Error(apperrors.NewInternalError("failed to update role"))
		return
	}

	if actorID, ok := middleware.UserID(c); ok {
		h.audit.Record(c.Request.Context(), &domain.AuditEntry{
			ActorID:      actorID,
			Action:       domain.AuditRoleUpdated,
			ResourceType: "user",
			ResourceID:   string(user.ID),
			Details:      string(role),
			IPAddress:    c.ClientIP(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "role": role})
}
