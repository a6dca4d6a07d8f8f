// progress.go implements the training-progress aggregation for a program:
// units reported by approved reports against the planned target units of the
// program's training activities.
package programs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProgramProgress is the response for the progress endpoint
type ProgramProgress struct {
	ProgramID          string  `json:"program_id"`
	TrainingActivities int64   `json:"training_activities"`
	TargetUnits        float64 `json:"target_units"`
	ReportedUnits      float64 `json:"reported_units"`
	// Percent is reported/target, 0 when no targets are set
	Percent float64 `json:"percent"`
}

// @Summary      Get program progress
// @Description  Aggregates approved training report units against the target units of the program's training activities.
// @Tags         Programs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  ProgramProgress
// @Failure      404  {object}  map[string]interface{}  "Program not found"
// @Router       /api/v1/programs/{id}/progress [get]
// GetProgressHandler returns training progress using a single database round-trip.
// GET /api/v1/programs/:id/progress
func (h *ProgramHandlers) GetProgressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orgID := c.GetString("organization_id")
		programID := c.Param("id")

		program, err := h.programRepo.GetByID(ctx, orgID, programID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
			return
		}
		if program == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
			return
		}

		// Training activities of the program's projects on one side, their
		// approved report units on the other — single round-trip.
		query := `
			SELECT
				(SELECT COUNT(*)
				   FROM activities a
				   JOIN project_programs pp ON pp.project_id = a.project_id
				  WHERE pp.program_id = $1 AND a.organization_id = $2
				    AND a.type = 'Training') AS training_activities,
				(SELECT COALESCE(SUM(a.target_unit), 0)
				   FROM activities a
				   JOIN project_programs pp ON pp.project_id = a.project_id
				  WHERE pp.program_id = $1 AND a.organization_id = $2
				    AND a.type = 'Training') AS target_units,
				(SELECT COALESCE(SUM(r.unit_reported), 0)
				   FROM reports r
				   JOIN activities a ON a.id = r.activity_id
				   JOIN project_programs pp ON pp.project_id = a.project_id
				  WHERE pp.program_id = $1 AND a.organization_id = $2
				    AND a.type = 'Training' AND r.status = 'APPROVED') AS reported_units
		`

		progress := ProgramProgress{ProgramID: programID}
		err = h.sqlxDB.QueryRowContext(ctx, query, programID, orgID).Scan(
			&progress.TrainingActivities,
			&progress.TargetUnits,
			&progress.ReportedUnits,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load program progress"})
			return
		}

		if progress.TargetUnits > 0 {
			progress.Percent = progress.ReportedUnits / progress.TargetUnits * 100
		}

		c.JSON(http.StatusOK, progress)
	}
}
