package http

import (
	"errors"
	"net/http"
	"strings"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/internal/infrastructure/middleware"
	apperrors "mswdportal/pkg/errors"
	"mswdportal/pkg/validation"

	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	programs ports.ProgramService
}

func NewProgramHandler(programs ports.ProgramService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// SetupPublicRoutes registers browse endpoints available to any
// authenticated user.
func (h *ProgramHandler) SetupPublicRoutes(group *gin.RouterGroup) {
	group.GET("/programs", h.ListActive)
	group.GET("/programs/:id", h.Get)
}

// SetupAdminRoutes registers management endpoints; the caller wraps the
// group in a role check.
func (h *ProgramHandler) SetupAdminRoutes(group *gin.RouterGroup) {
	group.GET("/programs", h.ListAll)
	group.POST("/programs", h.Create)
	group.PUT("/programs/:id", h.Update)
	group.DELETE("/programs/:id", h.Delete)
	group.PUT("/programs/:id/status", h.SetStatus)
	group.PUT("/programs/:id/featured", h.SetFeatured)
	group.GET("/programs/:id/stats", h.Stats)
}

type ProgramRequest struct {
	Code        string `json:"code" binding:"required,max=16"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Budget      int64  `json:"budget" binding:"min=0"`
	MaxSlots    int    `json:"max_slots" binding:"min=0"`
	Featured    bool   `json:"featured"`
}

type ProgramStatusRequest struct {
	Status string `json:"status" binding:"required,max=16"`
}

type ProgramFeaturedRequest struct {
	Featured *bool `json:"featured" binding:"required"`
}

func (h *ProgramHandler) ListActive(c *gin.Context) {
	programs, err := h.programs.ListActivePrograms(c.Request.Context())
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list programs"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}

func (h *ProgramHandler) ListAll(c *gin.Context) {
	programs, err := h.programs.ListPrograms(c.Request.Context())
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list programs"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}

func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.GetProgram(c.Request.Context(), domain.ProgramID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to get program"))
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *ProgramHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ProgramRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validation.ValidateProgramCode(req.Code); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateProgramName(req.Name); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	program := &domain.Program{
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Budget:      req.Budget,
		MaxSlots:    req.MaxSlots,
		Featured:    req.Featured,
	}

	created, err := h.programs.CreateProgram(c.Request.Context(), program, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProgramCodeTaken) {
			c.Error(apperrors.NewConflictError("program code already in use"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to create program"))
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ProgramHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ProgramRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateProgramName(req.Name); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	program := &domain.Program{
		ID:          domain.ProgramID(c.Param("id")),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Budget:      req.Budget,
		MaxSlots:    req.MaxSlots,
		Featured:    req.Featured,
	}

	updated, err := h.programs.UpdateProgram(c.Request.Context(), program, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to update program"))
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *ProgramHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	err := h.programs.DeleteProgram(c.Request.Context(), domain.ProgramID(c.Param("id")), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to delete program"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ProgramHandler) SetStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ProgramStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	status := domain.ProgramStatus(req.Status)
	switch status {
	case domain.ProgramDraft, domain.ProgramActive, domain.ProgramInactive:
	default:
		c.Error(apperrors.NewInvalidInputError("unknown program status"))
		return
	}

	err := h.programs.SetProgramStatus(c.Request.Context(), domain.ProgramID(c.Param("id")), status, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to update program status"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

func (h *ProgramHandler) SetFeatured(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ProgramFeaturedRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	err := h.programs.SetFeatured(c.Request.Context(), domain.ProgramID(c.Param("id")), *req.Featured, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to update program"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"featured": *req.Featured})
}

func (h *ProgramHandler) Stats(c *gin.Context) {
	stats, err := h.programs.ProgramStatistics(c.Request.Context(), domain.ProgramID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrProgramNotFound) {
			c.Error(apperrors.NewNotFoundError("program"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to compute program statistics"))
		return
	}
	c.JSON(http.StatusOK, stats)
}
