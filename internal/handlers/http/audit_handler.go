package http

import (
	"net/http"
	"strconv"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	apperrors "mswdportal/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	audit ports.AuditService
}

func NewAuditHandler(audit ports.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) SetupRoutes(group *gin.RouterGroup) {
	group.GET("/audit/actors/:id", h.ActorTrail)
	group.GET("/audit/resources/:type/:id", h.ResourceTrail)
}

func trailLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return limit
}

func (h *AuditHandler) ActorTrail(c *gin.Context) {
	entries, err := h.audit.ActorTrail(c.Request.Context(), domain.UserID(c.Param("id")), trailLimit(c))
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to read audit trail"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *AuditHandler) ResourceTrail(c *gin.Context) {
	entries, err := h.audit.ResourceTrail(c.Request.Context(), c.Param("type"), c.Param("id"), trailLimit(c))
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to read audit trail"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
