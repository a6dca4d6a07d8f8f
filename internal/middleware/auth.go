// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Organization → Permission → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB
// work. Auth populates the user identity; the organization middleware resolves
// the caller's tenant; permission checks read from that context. Audit logging
// runs last so only authorized mutations are recorded as successful actions.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// AuthMiddleware validates the bearer JWT and loads the caller's user record
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("is_platform_admin", user.IsPlatformAdmin)

		c.Next()
	}
}

// RequireOrganization resolves the caller's effective organization: the first
// active membership by creation time. Requests without an active membership
// are rejected, as are requests whose organization is not APPROVED. Tenant
// handlers downstream read organization_id, role, and permissions from the
// context.
func RequireOrganization(orgRepo *repositories.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		membership, err := orgRepo.GetFirstActiveMembership(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve organization",
			})
			return
		}
		if membership == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No active organization membership",
			})
			return
		}

		if membership.OrganizationStatus != models.OrgStatusApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Organization is not approved",
			})
			return
		}

		c.Set("membership", membership)
		c.Set("organization_id", membership.OrganizationID)
		c.Set("role", membership.Role)
		c.Set("permissions", membership.Permissions)

		c.Next()
	}
}

// RequirePlatformAdmin restricts a route to platform administrators
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_platform_admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Platform administrator access required",
			})
			return
		}
		c.Next()
	}
}
