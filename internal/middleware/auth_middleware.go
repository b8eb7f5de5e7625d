// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"panel-service/internal/pkg/jwt"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxIdentityID     = "identity_id"
	ctxJTI            = "jti"
	ctxRoles          = "roles"
	ctxPermissions    = "permissions"
	ctxTokenExpiresAt = "token_expires_at"
)

// TokenValidator verifies an access token and its backing session
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		c.Set(ctxIdentityID, claims.UserID)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxRoles, claims.Roles)
		c.Set(ctxPermissions, claims.Permissions)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExpiresAt, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequirePermission lets the request through when the caller holds any of the
// given permissions. MUST be used after Auth(). The response never names the
// missing permission.
func (m *AuthMiddleware) RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := GetPermissions(c)
		if !slices.ContainsFunc(permissions, func(p string) bool { return slices.Contains(granted, p) }) {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// WithPermission returns middlewares for permission-based routes (Auth + RequirePermission)
func (m *AuthMiddleware) WithPermission(permissions ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequirePermission(permissions...),
	}
}

// extractToken reads a Bearer token, falling back to ?token= for websocket upgrades
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return c.Query("token")
}
