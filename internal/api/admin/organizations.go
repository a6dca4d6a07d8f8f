// Package admin implements the platform-admin API surface: organization
// approval, the plan catalog, subscription request review, user listings, and
// audit log queries. Every route in this package sits behind the
// RequirePlatformAdmin middleware.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// OrganizationHandlers handles platform-level organization management
type OrganizationHandlers struct {
	orgRepo   *repositories.OrganizationRepository
	auditRepo *repositories.AuditRepository
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance
func NewOrganizationHandlers(db *sql.DB) *OrganizationHandlers {
	return &OrganizationHandlers{
		orgRepo:   repositories.NewOrganizationRepository(db),
		auditRepo: repositories.NewAuditRepository(db),
	}
}

// parsePagination reads page/per_page query params with the usual clamps
func parsePagination(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage, (page - 1) * perPage
}

// recordAdminAction writes a best-effort audit entry for a platform-admin
// decision. Failures are logged and counted, never surfaced to the caller.
func recordAdminAction(c *gin.Context, auditRepo *repositories.AuditRepository, action, resourceType, resourceID string, metadata map[string]interface{}) {
	userID := c.GetString("user_id")
	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	entry := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		Metadata:     metadata,
		IPAddress:    &ip,
		UserAgent:    &ua,
	}
	if err := auditRepo.CreateAuditLog(c.Request.Context(), entry); err != nil {
		slog.Error("failed to write audit entry", "error", err, "action", action)
		telemetry.AuditWriteFailuresTotal.WithLabelValues("db").Inc()
	}
}

// @Summary      List organizations
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Filter by status (PENDING/APPROVED/REJECTED/SUSPENDED)"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "organizations, pagination"
// @Router       /api/v1/admin/organizations [get]
// ListOrganizationsHandler lists organizations with optional status filter
// GET /api/v1/admin/organizations?status=PENDING&page=1&per_page=20
func (h *OrganizationHandlers) ListOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		page, perPage, offset := parsePagination(c)

		orgs, err := h.orgRepo.List(c.Request.Context(), status, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list organizations"})
			return
		}

		total, err := h.orgRepo.Count(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count organizations"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organizations": orgs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get organization
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization, members"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/admin/organizations/{id} [get]
// GetOrganizationHandler retrieves an organization with its members
// GET /api/v1/admin/organizations/:id
func (h *OrganizationHandlers) GetOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")

		org, err := h.orgRepo.GetByID(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve organization"})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}

		members, err := h.orgRepo.ListMembers(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organization": org,
			"members":      members,
		})
	}
}

// statusTransition applies a platform-admin status decision to a PENDING or
// APPROVED organization.
func (h *OrganizationHandlers) statusTransition(c *gin.Context, target string, allowedFrom ...string) {
	orgID := c.Param("id")

	org, err := h.orgRepo.GetByID(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve organization"})
		return
	}
	if org == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	allowed := false
	for _, from := range allowedFrom {
		if org.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Organization is not in a reviewable state",
			"status": org.Status,
		})
		return
	}

	if err := h.orgRepo.UpdateStatus(c.Request.Context(), orgID, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update organization status"})
		return
	}

	recordAdminAction(c, h.auditRepo, "organization.status_change", "organization", orgID,
		map[string]interface{}{"from": org.Status, "to": target})

	org.Status = target
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

// @Summary      Approve organization
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Failure      409  {object}  map[string]interface{}  "Organization not pending"
// @Router       /api/v1/admin/organizations/{id}/approve [post]
// ApproveOrganizationHandler approves a PENDING organization
// POST /api/v1/admin/organizations/:id/approve
func (h *OrganizationHandlers) ApproveOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.statusTransition(c, models.OrgStatusApproved, models.OrgStatusPending, models.OrgStatusSuspended)
	}
}

// @Summary      Reject organization
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      409  {object}  map[string]interface{}  "Organization not pending"
// @Router       /api/v1/admin/organizations/{id}/reject [post]
// RejectOrganizationHandler rejects a PENDING organization
// POST /api/v1/admin/organizations/:id/reject
func (h *OrganizationHandlers) RejectOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.statusTransition(c, models.OrgStatusRejected, models.OrgStatusPending)
	}
}

// @Summary      Suspend organization
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      409  {object}  map[string]interface{}  "Organization not approved"
// @Router       /api/v1/admin/organizations/{id}/suspend [post]
// SuspendOrganizationHandler suspends an APPROVED organization
// POST /api/v1/admin/organizations/:id/suspend
func (h *OrganizationHandlers) SuspendOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.statusTransition(c, models.OrgStatusSuspended, models.OrgStatusApproved)
	}
}

// @Summary      Delete organization
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/admin/organizations/{id} [delete]
// DeleteOrganizationHandler deletes an organization and all its data
// DELETE /api/v1/admin/organizations/:id
func (h *OrganizationHandlers) DeleteOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")

		org, err := h.orgRepo.GetByID(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve organization"})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}

		// Schema-level cascades remove all tenant data with the org row
		if err := h.orgRepo.Delete(c.Request.Context(), orgID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete organization"})
			return
		}

		recordAdminAction(c, h.auditRepo, "organization.delete", "organization", orgID,
			map[string]interface{}{"name": org.Name})

		c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
	}
}
