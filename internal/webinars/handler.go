package webinars

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/internal/session"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// Handler serves the public webinar catalogue.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates the public webinar handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func filterFromQuery(c *gin.Context) models.WebinarFilter {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), DefaultPageSize, MaxPageSize)
	return models.WebinarFilter{
		Status:   models.WebinarStatus(c.Query("status")),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}
}

// List handles GET /api/webinars?status=&category=&search=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	f := filterFromQuery(c)
	list, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /api/webinars/:slug.
func (h *Handler) Get(c *gin.Context) {
	var viewer *uuid.UUID
	if u, ok := session.CurrentUser(c); ok {
		viewer = &u.ID
	}
	d, err := h.svc.Detail(c.Request.Context(), c.Param("slug"), viewer)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, d)
}

// DownloadResource handles GET /api/webinars/:slug/resources/:id/download.
func (h *Handler) DownloadResource(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("resource"))
		return
	}
	_, authenticated := session.CurrentUser(c)
	url, err := h.svc.DownloadResource(c.Request.Context(), c.Param("slug"), id, authenticated)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

// ViewRecording handles GET /api/webinars/:slug/recordings/:id.
func (h *Handler) ViewRecording(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("recording"))
		return
	}
	_, authenticated := session.CurrentUser(c)
	url, err := h.svc.ViewRecording(c.Request.Context(), c.Param("slug"), id, authenticated)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}
