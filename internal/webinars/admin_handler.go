package webinars

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// WebinarRequest is the body for POST and PUT /api/admin/webinars. currentAttendees is not
// accepted; the counter only moves through registrations.
type WebinarRequest struct {
	Slug                 *string               `json:"slug"`
	Title                *string               `json:"title"`
	Description          *string               `json:"description"`
	Category             *string               `json:"category"`
	SpeakerName          *string               `json:"speakerName"`
	SpeakerTitle         *string               `json:"speakerTitle"`
	SpeakerBio           *string               `json:"speakerBio"`
	SpeakerImageURL      *string               `json:"speakerImageUrl"`
	ScheduledDate        *string               `json:"scheduledDate"`
	DurationMinutes      *int                  `json:"duration"`
	Status               *models.WebinarStatus `json:"status"`
	RegistrationRequired *bool                 `json:"registrationRequired"`
	MaxAttendees         *int                  `json:"maxAttendees"`
	UnlimitedAttendees   bool                  `json:"unlimitedAttendees"`
	IsPublic             *bool                 `json:"isPublic"`
	MeetingURL           *string               `json:"meetingUrl"`
	ThumbnailURL         *string               `json:"thumbnailUrl"`
	Tags                 []string              `json:"tags"`
}

func (r WebinarRequest) input() Input {
	return Input{
		Slug:                 r.Slug,
		Title:                r.Title,
		Description:          r.Description,
		Category:             r.Category,
		SpeakerName:          r.SpeakerName,
		SpeakerTitle:         r.SpeakerTitle,
		SpeakerBio:           r.SpeakerBio,
		SpeakerImageURL:      r.SpeakerImageURL,
		ScheduledDate:        r.ScheduledDate,
		DurationMinutes:      r.DurationMinutes,
		Status:               r.Status,
		RegistrationRequired: r.RegistrationRequired,
		MaxAttendees:         r.MaxAttendees,
		UnlimitedAttendees:   r.UnlimitedAttendees,
		IsPublic:             r.IsPublic,
		MeetingURL:           r.MeetingURL,
		ThumbnailURL:         r.ThumbnailURL,
		Tags:                 r.Tags,
	}
}

// ResourceRequest is the body for POST /api/admin/webinars/:id/resources and PUT /api/admin/webinar-resources/:id.
type ResourceRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	FileURL      *string `json:"fileUrl"`
	FileType     *string `json:"fileType"`
	FileSize     int64   `json:"fileSize"`
	RequiresAuth *bool   `json:"requiresAuth"`
}

// RecordingRequest is the body for POST /api/admin/webinars/:id/recordings and PUT /api/admin/webinar-recordings/:id.
type RecordingRequest struct {
	Title           *string `json:"title"`
	VideoURL        *string `json:"videoUrl"`
	DurationMinutes *int    `json:"duration"`
	RequiresAuth    *bool   `json:"requiresAuth"`
}

// AdminHandler serves webinar management for admins.
type AdminHandler struct {
	svc    *Service
	logger *zap.Logger
}

// NewAdminHandler creates the admin webinar handler.
func NewAdminHandler(svc *Service, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{svc: svc, logger: logger}
}

// List handles GET /api/admin/webinars.
func (h *AdminHandler) List(c *gin.Context) {
	f := filterFromQuery(c)
	list, total, err := h.svc.AdminList(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: list, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /api/admin/webinars/:id.
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	w, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, w)
}

// Create handles POST /api/admin/webinars.
func (h *AdminHandler) Create(c *gin.Context) {
	var req WebinarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	w, err := h.svc.Create(c.Request.Context(), req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, w)
}

// Update handles PUT /api/admin/webinars/:id.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	var req WebinarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	w, err := h.svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, w)
}

// Delete handles DELETE /api/admin/webinars/:id.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "webinar deleted")
}

// ListResources handles GET /api/admin/webinars/:id/resources.
func (h *AdminHandler) ListResources(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	list, err := h.svc.ListResources(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CreateResource handles POST /api/admin/webinars/:id/resources.
func (h *AdminHandler) CreateResource(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	res := models.WebinarResource{FileSize: req.FileSize}
	if req.Title != nil {
		res.Title = *req.Title
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.FileURL != nil {
		res.FileURL = *req.FileURL
	}
	if req.FileType != nil {
		res.FileType = *req.FileType
	}
	if req.RequiresAuth != nil {
		res.RequiresAuth = *req.RequiresAuth
	}
	created, err := h.svc.AddResource(c.Request.Context(), id, res)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, created)
}

// UploadResource handles POST /api/admin/webinars/:id/resources/upload (multipart form: file,
// title, description, requiresAuth).
func (h *AdminHandler) UploadResource(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, h.logger, apperr.Validation("missing file (form field: file)"))
		return
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Error(c, h.logger, err)
		return
	}
	defer rc.Close()

	requiresAuth, _ := strconv.ParseBool(c.PostForm("requiresAuth"))
	res, err := h.svc.UploadResource(c.Request.Context(), id, Upload{
		Filename:     file.Filename,
		Size:         file.Size,
		Body:         rc,
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		RequiresAuth: requiresAuth,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, res)
}

// UpdateResource handles PUT /api/admin/webinar-resources/:id.
func (h *AdminHandler) UpdateResource(c *gin.Context) {
	id, ok := h.parseID(c, "resource")
	if !ok {
		return
	}
	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	res, err := h.svc.UpdateResource(c.Request.Context(), id, ResourceUpdate{
		Title:        req.Title,
		Description:  req.Description,
		FileURL:      req.FileURL,
		FileType:     req.FileType,
		RequiresAuth: req.RequiresAuth,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, res)
}

// DeleteResource handles DELETE /api/admin/webinar-resources/:id.
func (h *AdminHandler) DeleteResource(c *gin.Context) {
	id, ok := h.parseID(c, "resource")
	if !ok {
		return
	}
	if err := h.svc.DeleteResource(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "resource deleted")
}

// ListRecordings handles GET /api/admin/webinars/:id/recordings.
func (h *AdminHandler) ListRecordings(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	list, err := h.svc.ListRecordings(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CreateRecording handles POST /api/admin/webinars/:id/recordings.
func (h *AdminHandler) CreateRecording(c *gin.Context) {
	id, ok := h.parseID(c, "webinar")
	if !ok {
		return
	}
	var req RecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	rec := models.WebinarRecording{RequiresAuth: true}
	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.VideoURL != nil {
		rec.VideoURL = *req.VideoURL
	}
	if req.DurationMinutes != nil {
		rec.DurationMinutes = *req.DurationMinutes
	}
	if req.RequiresAuth != nil {
		rec.RequiresAuth = *req.RequiresAuth
	}
	created, err := h.svc.AddRecording(c.Request.Context(), id, rec)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, created)
}

// UpdateRecording handles PUT /api/admin/webinar-recordings/:id.
func (h *AdminHandler) UpdateRecording(c *gin.Context) {
	id, ok := h.parseID(c, "recording")
	if !ok {
		return
	}
	var req RecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	rec, err := h.svc.UpdateRecording(c.Request.Context(), id, RecordingUpdate{
		Title:           req.Title,
		VideoURL:        req.VideoURL,
		DurationMinutes: req.DurationMinutes,
		RequiresAuth:    req.RequiresAuth,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, rec)
}

// DeleteRecording handles DELETE /api/admin/webinar-recordings/:id.
func (h *AdminHandler) DeleteRecording(c *gin.Context) {
	id, ok := h.parseID(c, "recording")
	if !ok {
		return
	}
	if err := h.svc.DeleteRecording(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "recording deleted")
}

func (h *AdminHandler) parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound(entity))
		return uuid.Nil, false
	}
	return id, true
}
