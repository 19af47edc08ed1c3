package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/session"
	"github.com/agrimech/portal/pkg/response"
)

// AttendedRequest is the body for PUT /api/admin/registrations/:id/attended.
type AttendedRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

// Handler serves webinar registration endpoints for users and admins.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /api/webinars/:slug/register.
func (h *Handler) Register(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), c.Param("slug"), user.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, reg)
}

// Cancel handles DELETE /api/webinars/:slug/register.
func (h *Handler) Cancel(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), c.Param("slug"), user.ID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "registration cancelled")
}

// Status handles GET /api/webinars/:slug/registration.
func (h *Handler) Status(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	st, err := h.svc.Status(c.Request.Context(), c.Param("slug"), user.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, st)
}

// Mine handles GET /api/user/webinars.
func (h *Handler) Mine(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	list, err := h.svc.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListForWebinar handles GET /api/admin/webinars/:id/registrations.
func (h *Handler) ListForWebinar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("webinar"))
		return
	}
	list, err := h.svc.ListForWebinar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// SetAttended handles PUT /api/admin/registrations/:id/attended.
func (h *Handler) SetAttended(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("registration"))
		return
	}
	var req AttendedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("attended is required"))
		return
	}
	reg, err := h.svc.SetAttended(c.Request.Context(), id, *req.Attended)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, reg)
}
