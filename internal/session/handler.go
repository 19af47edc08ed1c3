package session

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// Authenticator verifies site-user credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
}

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler serves login, logout and the current-user endpoint for cookie sessions.
type Handler struct {
	auth       Authenticator
	store      *Store
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewHandler creates a session handler. secure marks the cookie Secure (production).
func NewHandler(auth Authenticator, store *Store, cookieName string, secure bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{auth: auth, store: store, cookieName: cookieName, secure: secure, logger: logger}
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email and password are required"))
		return
	}
	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	sid, err := h.store.Create(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.setCookie(c, sid, int(h.store.TTL().Seconds()))
	response.OK(c, user.ToPublic())
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(c *gin.Context) {
	if sid, err := c.Cookie(h.cookieName); err == nil {
		if err := h.store.Destroy(c.Request.Context(), sid); err != nil {
			h.logger.Warn("session destroy failed", zap.Error(err))
		}
	}
	h.setCookie(c, "", -1)
	response.Message(c, "logged out")
}

// Me handles GET /api/user.
func (h *Handler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	response.OK(c, user.ToPublic())
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.secure, true)
}
