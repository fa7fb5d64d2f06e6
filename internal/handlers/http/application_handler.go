package http

import (
	"errors"
	"net/http"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/internal/infrastructure/middleware"
	apperrors "mswdportal/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applications ports.ApplicationService
}

func NewApplicationHandler(applications ports.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// SetupBeneficiaryRoutes registers the applicant-side endpoints.
func (h *ApplicationHandler) SetupBeneficiaryRoutes(group *gin.RouterGroup) {
	group.POST("/applications", h.Apply)
	group.GET("/applications", h.MyApplications)
	group.POST("/applications/:id/withdraw", h.Withdraw)
}

// SetupReviewRoutes registers the staff-side endpoints; the caller wraps
// the group in a role check.
func (h *ApplicationHandler) SetupReviewRoutes(group *gin.RouterGroup) {
	group.GET("/programs/:id/applications", h.ProgramApplications)
	group.GET("/applications/:id", h.Get)
	group.POST("/applications/:id/review", h.Review)
}

type ApplyRequest struct {
	ProgramID string `json:"program_id" binding:"required,max=64"`
	Remarks   string `json:"remarks" binding:"max=2000"`
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes" binding:"max=2000"`
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ApplyRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	app, err := h.applications.Apply(c.Request.Context(), domain.ProgramID(req.ProgramID), userID, req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProgramNotFound):
			c.Error(apperrors.NewNotFoundError("program"))
		case errors.Is(err, domain.ErrProgramNotActive):
			c.Error(apperrors.NewInvalidInputError("program is not accepting applications"))
		case errors.Is(err, domain.ErrAlreadyApplied):
			c.Error(apperrors.NewConflictError("an application for this program is already open"))
		default:
			c.Error(apperrors.NewInternalError("failed to submit application"))
		}
		return
	}

	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) MyApplications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	apps, err := h.applications.MyApplications(c.Request.Context(), userID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list applications"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.applications.GetApplication(c.Request.Context(), domain.ApplicationID(c.Param("id")))
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			c.Error(apperrors.NewNotFoundError("application"))
			return
		}
		c.Error(apperrors.NewInternalError("failed to get application"))
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) ProgramApplications(c *gin.Context) {
	apps, err := h.applications.ProgramApplications(c.Request.Context(), domain.ProgramID(c.Param("id")))
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list applications"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *ApplicationHandler) Review(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req ReviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	app, err := h.applications.Review(c.Request.Context(), domain.ApplicationID(c.Param("id")), req.Approve, userID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrApplicationNotFound):
			c.Error(apperrors.NewNotFoundError("application"))
		case errors.Is(err, domain.ErrNotReviewable):
			c.Error(apperrors.NewConflictError("application has already been decided"))
		default:
			c.Error(apperrors.NewInternalError("failed to review application"))
		}
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	err := h.applications.Withdraw(c.Request.Context(), domain.ApplicationID(c.Param("id")), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrApplicationNotFound):
			c.Error(apperrors.NewNotFoundError("application"))
		case errors.Is(err, domain.ErrNotApplicant):
			c.Error(apperrors.NewForbiddenError("only the applicant can withdraw"))
		case errors.Is(err, domain.ErrNotReviewable):
			c.Error(apperrors.NewConflictError("application has already been decided"))
		default:
			c.Error(apperrors.NewInternalError("failed to withdraw application"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "withdrawn"})
}
