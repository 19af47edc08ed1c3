package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// ContextAdmin is the gin context key holding the authenticated *models.AdminUser.
const ContextAdmin = "admin_user"

// AdminAuthenticator resolves a bearer token to an active admin.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.AdminUser, error)
}

// AdminGuard requires "Authorization: Bearer <jwt>" and checks it against the admin store on
// every request.
func AdminGuard(auth AdminAuthenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := auth.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			response.Error(c, logger, err)
			c.Abort()
			return
		}
		c.Set(ContextAdmin, admin)
		c.Next()
	}
}

// RequireAdminRole allows only admins whose role is in roles. Must run after AdminGuard.
func RequireAdminRole(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		admin, ok := CurrentAdmin(c)
		if !ok {
			response.Error(c, nil, apperr.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[admin.Role]; !ok {
			response.Error(c, nil, apperr.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentAdmin returns the admin attached by AdminGuard.
func CurrentAdmin(c *gin.Context) (*models.AdminUser, bool) {
	v, ok := c.Get(ContextAdmin)
	if !ok {
		return nil, false
	}
	a, ok := v.(*models.AdminUser)
	return a, ok && a != nil
}

// BearerToken extracts the token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
