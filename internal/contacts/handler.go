package contacts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// StatusRequest is the body for PUT /api/admin/contacts/:id.
type StatusRequest struct {
	Status models.ContactStatus `json:"status" binding:"required"`
}

// Handler serves the contact form and its admin inbox.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a contacts handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Submit handles POST /api/contact.
func (h *Handler) Submit(c *gin.Context) {
	var req Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("invalid request body"))
		return
	}
	f, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Body{Success: true, Data: gin.H{"id": f.ID}, Message: "thank you, we will be in touch"})
}

// List handles GET /api/admin/contacts?status=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 50, 200)
	list, total, err := h.svc.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/admin/contacts/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, f)
}

// Update handles PUT /api/admin/contacts/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("status is required"))
		return
	}
	f, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, f)
}

// Delete handles DELETE /api/admin/contacts/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "contact deleted")
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("contact"))
		return uuid.Nil, false
	}
	return id, true
}
