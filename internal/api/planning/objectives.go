// Package planning implements the results-framework API: objectives and
// their indicators, the intervention catalog, and activities. All records are
// organization-scoped.
package planning

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// PlanningHandlers handles objectives, indicators, interventions, and
// activities
type PlanningHandlers struct {
	objectiveRepo *repositories.ObjectiveRepository
	activityRepo  *repositories.ActivityRepository
	projectRepo   *repositories.ProjectRepository
	programRepo   *repositories.ProgramRepository
}

// NewPlanningHandlers creates a new PlanningHandlers instance
func NewPlanningHandlers(db *sql.DB) *PlanningHandlers {
	return &PlanningHandlers{
		objectiveRepo: repositories.NewObjectiveRepository(db),
		activityRepo:  repositories.NewActivityRepository(db),
		projectRepo:   repositories.NewProjectRepository(db),
		programRepo:   repositories.NewProgramRepository(db),
	}
}

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

// ObjectiveRequest is the create/update payload for an objective
type ObjectiveRequest struct {
	ProjectID   *string `json:"project_id"`
	ProgramID   *string `json:"program_id"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// @Summary      List objectives
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Param        project_id  query  string  false  "Filter by project"
// @Param        program_id  query  string  false  "Filter by program"
// @Success      200  {object}  map[string]interface{}  "objectives"
// @Router       /api/v1/objectives [get]
// ListObjectivesHandler lists the organization's objectives
// GET /api/v1/objectives?project_id=...&program_id=...
func (h *PlanningHandlers) ListObjectivesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		objectives, err := h.objectiveRepo.List(c.Request.Context(), orgID,
			c.Query("project_id"), c.Query("program_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list objectives"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"objectives": objectives})
	}
}

// @Summary      Create objective
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "objective"
// @Failure      400  {object}  map[string]interface{}  "Both parents given"
// @Router       /api/v1/objectives [post]
// CreateObjectiveHandler creates an objective. It attaches to a project, a
// program, or (with neither) the organization itself; never both.
// POST /api/v1/objectives
func (h *PlanningHandlers) CreateObjectiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ObjectiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.ProjectID != nil && req.ProgramID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An objective belongs to a project or a program, not both"})
			return
		}

		if req.ProjectID != nil {
			project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, *req.ProjectID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
				return
			}
			if project == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
		}
		if req.ProgramID != nil {
			program, err := h.programRepo.GetByID(c.Request.Context(), orgID, *req.ProgramID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
				return
			}
			if program == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
				return
			}
		}

		objective := &models.Objective{
			OrganizationID: orgID,
			ProjectID:      req.ProjectID,
			ProgramID:      req.ProgramID,
			Title:          req.Title,
			Description:    req.Description,
		}
		if err := h.objectiveRepo.Create(c.Request.Context(), objective); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create objective"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"objective": objective})
	}
}

// @Summary      Get objective
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "objective"
// @Failure      404  {object}  map[string]interface{}  "Objective not found"
// @Router       /api/v1/objectives/{id} [get]
// GetObjectiveHandler retrieves an objective
// GET /api/v1/objectives/:id
func (h *PlanningHandlers) GetObjectiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		objective, err := h.objectiveRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve objective"})
			return
		}
		if objective == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Objective not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"objective": objective})
	}
}

// @Summary      Update objective
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "objective"
// @Failure      404  {object}  map[string]interface{}  "Objective not found"
// @Router       /api/v1/objectives/{id} [put]
// UpdateObjectiveHandler updates an objective's title and description. The
// parent link is fixed at creation.
// PUT /api/v1/objectives/:id
func (h *PlanningHandlers) UpdateObjectiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ObjectiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		objective, err := h.objectiveRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve objective"})
			return
		}
		if objective == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Objective not found"})
			return
		}

		objective.Title = req.Title
		objective.Description = req.Description

		if err := h.objectiveRepo.Update(c.Request.Context(), objective); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update objective"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"objective": objective})
	}
}

// @Summary      Delete objective
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/objectives/{id} [delete]
// DeleteObjectiveHandler deletes an objective and its indicators
// DELETE /api/v1/objectives/:id
func (h *PlanningHandlers) DeleteObjectiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.objectiveRepo.Delete(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete objective"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Objective deleted"})
	}
}
