package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// Lister reads email logs.
type Lister interface {
	List(ctx context.Context, f Filter) ([]models.EmailLog, int, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/admin/email-logs?status=&type=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", models.EmailLogStatusPending, models.EmailLogStatusSent, models.EmailLogStatusFailed:
	default:
		response.Error(c, h.logger, apperr.Validation("invalid status"))
		return
	}
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 50, 200)
	logs, total, err := h.repo.List(c.Request.Context(), Filter{
		Status:    status,
		EmailType: c.Query("type"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: logs, Total: total, Limit: limit, Offset: offset})
}
