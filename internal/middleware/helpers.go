// internal/middleware/helpers.go
package middleware

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// GetIdentityID returns the authenticated user's id
func GetIdentityID(c *gin.Context) (int64, bool) {
	identityID, exists := c.Get(ctxIdentityID)
	if !exists {
		return 0, false
	}

	id, ok := identityID.(int64)
	return id, ok
}

func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get(ctxJTI)
	if !exists {
		return "", false
	}

	jtiStr, ok := jti.(string)
	return jtiStr, ok
}

// GetTokenExpiry returns the access token's expiry, zero when unknown
func GetTokenExpiry(c *gin.Context) time.Time {
	v, exists := c.Get(ctxTokenExpiresAt)
	if !exists {
		return time.Time{}
	}
	t, _ := v.(time.Time)
	return t
}

// GetPermissions gets user permissions from context
func GetPermissions(c *gin.Context) []string {
	permissions, exists := c.Get(ctxPermissions)
	if !exists {
		return []string{}
	}

	permissionsList, ok := permissions.([]string)
	if !ok {
		return []string{}
	}

	return permissionsList
}

func HasPermission(c *gin.Context, permission string) bool {
	return slices.Contains(GetPermissions(c), permission)
}
