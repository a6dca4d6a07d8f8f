// Package middleware (authz.go) implements permission-based authorization
// middleware.
//
// Permissions are checked at request time rather than being embedded in the
// JWT. This is a deliberate design choice: when an ngo_admin edits a member's
// permission list, the change takes effect on the member's next request
// without needing to invalidate or reissue their token. Embedding permissions
// in the JWT would require token rotation on every permission change, which is
// operationally expensive and error-prone.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// RequirePermission checks that the caller's membership grants an action on a
// resource. Must run after RequireOrganization.
func RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Organization context not found",
			})
			return
		}

		permsVal, exists := c.Get("permissions")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		perms, ok := permsVal.([]models.Permission)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid permissions format",
			})
			return
		}

		if !auth.HasPermission(role, perms, resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required permission",
				"details": "Required permission: " + resource + ":" + action,
			})
			return
		}

		c.Next()
	}
}

// RequireNGOAdmin restricts a route to the organization's ngo_admin role.
// Must run after RequireOrganization.
func RequireNGOAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleNGOAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Organization administrator access required",
			})
			return
		}
		c.Next()
	}
}
