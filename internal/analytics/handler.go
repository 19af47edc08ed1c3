package analytics

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// RecentWindow is how far back the "recent" dashboard figures look.
const RecentWindow = 30 * 24 * time.Hour

// Dashboard is the JSON shape of GET /api/admin/stats.
type Dashboard struct {
	Users struct {
		Total    int `json:"total"`
		Verified int `json:"verified"`
		Recent   int `json:"recent"`
	} `json:"users"`
	Webinars         int                          `json:"webinars"`
	WebinarsByStatus map[models.WebinarStatus]int `json:"webinarsByStatus"`
	Registrations    struct {
		Total    int `json:"total"`
		Attended int `json:"attended"`
		Recent   int `json:"recent"`
	} `json:"registrations"`
	NewContacts    int `json:"newContacts"`
	UpcomingEvents int `json:"upcomingEvents"`
	Library        struct {
		Items     int `json:"items"`
		Downloads int `json:"downloads"`
	} `json:"library"`
	FailedEmails int `json:"failedEmails"`
	LiveViewers  int `json:"liveViewers"`
}

// WebinarSummary is the JSON shape of GET /api/admin/webinars/:id/stats.
type WebinarSummary struct {
	WebinarID          uuid.UUID `json:"webinarId"`
	Title              string    `json:"title"`
	CurrentAttendees   int       `json:"currentAttendees"`
	MaxAttendees       *int      `json:"maxAttendees"`
	TotalRegistrations int       `json:"totalRegistrations"`
	TotalAttended      int       `json:"totalAttended"`
	TotalNoShow        int       `json:"totalNoShow"`
	AttendanceRate     *float64  `json:"attendanceRate,omitempty"`
	ResourceDownloads  int       `json:"resourceDownloads"`
	RecordingViews     int       `json:"recordingViews"`
	LiveViewers        int       `json:"liveViewers"`
}

// Source loads the aggregates.
type Source interface {
	Dashboard(ctx context.Context, since time.Time) (*Dashboard, error)
	Webinar(ctx context.Context, id uuid.UUID) (*WebinarSummary, error)
}

// ViewerCounter reports connected live-feed viewers. Optional.
type ViewerCounter interface {
	ViewerCount(webinarID uuid.UUID) int
	TotalViewers() int
}

// Handler serves the admin dashboard figures.
type Handler struct {
	source  Source
	viewers ViewerCounter
	now     func() time.Time
	logger  *zap.Logger
}

// NewHandler creates an analytics handler. viewers may be nil.
func NewHandler(source Source, viewers ViewerCounter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, viewers: viewers, now: time.Now, logger: logger}
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	d, err := h.source.Dashboard(c.Request.Context(), h.now().Add(-RecentWindow))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if h.viewers != nil {
		d.LiveViewers = h.viewers.TotalViewers()
	}
	response.OK(c, d)
}

// WebinarStats handles GET /api/admin/webinars/:id/stats.
func (h *Handler) WebinarStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("webinar"))
		return
	}
	s, err := h.source.Webinar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	s.TotalNoShow = s.TotalRegistrations - s.TotalAttended
	if s.TotalNoShow < 0 {
		s.TotalNoShow = 0
	}
	if s.TotalRegistrations > 0 {
		rate := float64(s.TotalAttended) / float64(s.TotalRegistrations)
		s.AttendanceRate = &rate
	}
	if h.viewers != nil {
		s.LiveViewers = h.viewers.ViewerCount(id)
	}
	response.OK(c, s)
}
