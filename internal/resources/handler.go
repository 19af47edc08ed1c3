package resources

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/session"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// Handler serves the public library and its admin endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a resource library handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/resources?category=&search=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 20, 100)
	list, total, err := h.svc.ListPublic(c.Request.Context(), c.Query("category"), c.Query("search"), limit, offset)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: limit, Offset: offset})
}

// Categories handles GET /api/resources/categories.
func (h *Handler) Categories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/resources/:slug.
func (h *Handler) Get(c *gin.Context) {
	item, err := h.svc.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Download handles GET /api/resources/:slug/download and returns {"url": ...}.
func (h *Handler) Download(c *gin.Context) {
	_, authenticated := session.CurrentUser(c)
	url, err := h.svc.Download(c.Request.Context(), c.Param("slug"), authenticated)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

// AdminList handles GET /api/admin/resources.
func (h *Handler) AdminList(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 50, 200)
	list, total, err := h.svc.AdminList(c.Request.Context(), c.Query("category"), c.Query("search"), limit, offset)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: limit, Offset: offset})
}

// AdminGet handles GET /api/admin/resources/:id.
func (h *Handler) AdminGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Create handles POST /api/admin/resources.
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, h.logger, apperr.Validation("invalid request body"))
		return
	}
	item, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, item)
}

// Upload handles POST /api/admin/resources/upload (multipart: file, title, description,
// category, requiresAuth).
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, h.logger, apperr.Validation("missing file (form field: file)"))
		return
	}
	rc, err := file.Open()
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	defer rc.Close()

	requiresAuth, _ := strconv.ParseBool(c.PostForm("requiresAuth"))
	item, err := h.svc.UploadFile(c.Request.Context(), Upload{
		Filename:     file.Filename,
		Size:         file.Size,
		Body:         rc,
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Category:     c.PostForm("category"),
		RequiresAuth: requiresAuth,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, item)
}

// Update handles PUT /api/admin/resources/:id.
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
	item, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Delete handles DELETE /api/admin/resources/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "resource deleted")
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("resource"))
		return uuid.Nil, false
	}
	return id, true
}
