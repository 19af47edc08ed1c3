package events

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// Handler serves public and admin event endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/events?upcoming=&type=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 20, 100)
	list, total, err := h.svc.ListPublic(c.Request.Context(), c.Query("upcoming") == "true", c.Query("type"), limit, offset)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/events/:slug.
func (h *Handler) Get(c *gin.Context) {
	e, err := h.svc.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// AdminList handles GET /api/admin/events.
func (h *Handler) AdminList(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 50, 200)
	list, total, err := h.svc.AdminList(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: limit, Offset: offset})
}

// AdminGet handles GET /api/admin/events/:id.
func (h *Handler) AdminGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Create handles POST /api/admin/events.
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, h.logger, apperr.Validation("invalid request body"))
		return
	}
	e, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, e)
}

// Update handles PUT /api/admin/events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, h.logger, apperr.Validation("invalid request body"))
		return
	}
	e, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /api/admin/events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "event deleted")
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("event"))
		return uuid.Nil, false
	}
	return id, true
}
