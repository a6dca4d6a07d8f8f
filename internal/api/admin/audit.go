// audit.go implements audit log queries for platform admins.
package admin

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// AuditHandlers handles audit log queries
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates a new AuditHandlers instance
func NewAuditHandlers(db *sql.DB) *AuditHandlers {
	return &AuditHandlers{
		auditRepo: repositories.NewAuditRepository(db),
	}
}

func optionalQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

func optionalDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		// Dates accepted in YYYY-MM-DD as well
		t, err = time.Parse("2006-01-02", v)
		if err != nil {
			return nil, false
		}
	}
	return &t, true
}

// @Summary      List audit logs
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        user_id          query  string  false  "Filter by user"
// @Param        organization_id  query  string  false  "Filter by organization"
// @Param        action           query  string  false  "Filter by action"
// @Param        resource_type    query  string  false  "Filter by resource type"
// @Param        start_date       query  string  false  "Entries at or after this time (RFC3339 or YYYY-MM-DD)"
// @Param        end_date         query  string  false  "Entries at or before this time (RFC3339 or YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}  "audit_logs, pagination"
// @Router       /api/v1/admin/audit-logs [get]
// ListAuditLogsHandler lists audit log entries with optional filters
// GET /api/v1/admin/audit-logs
func (h *AuditHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, perPage, offset := parsePagination(c)

		startDate, ok := optionalDateQuery(c, "start_date")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
			return
		}
		endDate, ok := optionalDateQuery(c, "end_date")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
			return
		}

		filters := repositories.AuditFilters{
			UserID:         optionalQuery(c, "user_id"),
			OrganizationID: optionalQuery(c, "organization_id"),
			Action:         optionalQuery(c, "action"),
			ResourceType:   optionalQuery(c, "resource_type"),
			StartDate:      startDate,
			EndDate:        endDate,
		}

		logs, total, err := h.auditRepo.ListAuditLogs(c.Request.Context(), filters, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit logs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"audit_logs": logs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get audit log entry
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "audit_log"
// @Failure      404  {object}  map[string]interface{}  "Audit log not found"
// @Router       /api/v1/admin/audit-logs/{id} [get]
// GetAuditLogHandler retrieves a single audit log entry
// GET /api/v1/admin/audit-logs/:id
func (h *AuditHandlers) GetAuditLogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := h.auditRepo.GetAuditLog(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit log"})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Audit log not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"audit_log": entry})
	}
}
