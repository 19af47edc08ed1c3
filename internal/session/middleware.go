package session

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// ContextUser is the gin context key holding the *models.User of the session.
const ContextUser = "session_user"

// UserLoader resolves a session's user id to an active user.
type UserLoader interface {
	ActiveUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Load attaches the session user to the context when the cookie names a live session for an
// active account. Requests without one continue anonymously.
func Load(store *Store, users UserLoader, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		sid, err := c.Cookie(cookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}
		userID, err := store.Lookup(c.Request.Context(), sid)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				logger.Warn("session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}
		user, err := users.ActiveUser(c.Request.Context(), userID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				logger.Warn("session user load failed", zap.Error(err))
			}
			c.Next()
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// Require aborts with 401 unless Load attached a user.
func Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			response.Error(c, nil, apperr.ErrAuthRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
