// Package dashboard implements the organization dashboard summary: one
// aggregated snapshot of projects, programs, activities, pending reports, and
// geographic reach, computed in a single round trip.
package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// DashboardHandlers serves the dashboard aggregation endpoints
type DashboardHandlers struct {
	sqlxDB *sqlx.DB
}

// NewDashboardHandlers creates a new DashboardHandlers instance
func NewDashboardHandlers(sqlxDB *sqlx.DB) *DashboardHandlers {
	return &DashboardHandlers{sqlxDB: sqlxDB}
}

// ProjectCounts breaks the organization's projects down by status
type ProjectCounts struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
}

// DashboardSummary is the organization-wide snapshot
type DashboardSummary struct {
	Projects         ProjectCounts `json:"projects"`
	Programs         int64         `json:"programs"`
	Activities       int64         `json:"activities"`
	PendingReports   int64         `json:"pending_reports"`
	DistrictsCovered int64         `json:"districts_covered"`
}

// @Summary      Dashboard summary
// @Tags         Dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  DashboardSummary
// @Router       /api/v1/dashboard/summary [get]
// GetSummaryHandler computes the organization snapshot in one query
// GET /api/v1/dashboard/summary
func (h *DashboardHandlers) GetSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var summary DashboardSummary

		query := `
			SELECT
				(SELECT COUNT(*) FROM projects WHERE organization_id = $1) AS total_projects,
				(SELECT COUNT(*) FROM projects WHERE organization_id = $1 AND status = 'DRAFT') AS draft_projects,
				(SELECT COUNT(*) FROM projects WHERE organization_id = $1 AND status = 'ACTIVE') AS active_projects,
				(SELECT COUNT(*) FROM projects WHERE organization_id = $1 AND status = 'COMPLETED') AS completed_projects,
				(SELECT COUNT(*) FROM programs WHERE organization_id = $1) AS programs,
				(SELECT COUNT(*) FROM activities WHERE organization_id = $1) AS activities,
				(SELECT COUNT(*) FROM reports WHERE organization_id = $1 AND status = 'PENDING') AS pending_reports,
				(SELECT COUNT(*) FROM districts WHERE organization_id = $1) AS districts_covered
		`

		err := h.sqlxDB.QueryRowContext(c.Request.Context(), query, orgID).Scan(
			&summary.Projects.Total,
			&summary.Projects.Draft,
			&summary.Projects.Active,
			&summary.Projects.Completed,
			&summary.Programs,
			&summary.Activities,
			&summary.PendingReports,
			&summary.DistrictsCovered,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard summary"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
