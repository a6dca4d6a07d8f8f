// Package projects implements the project API: CRUD, the plan-gated status
// transition, and the program/donor link endpoints. Activating a project is
// the one operation a subscription plan can refuse.
package projects

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/services"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// ProjectHandlers handles project API endpoints
type ProjectHandlers struct {
	projectRepo *repositories.ProjectRepository
	programRepo *repositories.ProgramRepository
	donorRepo   *repositories.DonorRepository
	auditRepo   *repositories.AuditRepository
	subSvc      *services.SubscriptionService
}

// NewProjectHandlers creates a new ProjectHandlers instance
func NewProjectHandlers(db *sql.DB, subSvc *services.SubscriptionService) *ProjectHandlers {
	return &ProjectHandlers{
		projectRepo: repositories.NewProjectRepository(db),
		programRepo: repositories.NewProgramRepository(db),
		donorRepo:   repositories.NewDonorRepository(db),
		auditRepo:   repositories.NewAuditRepository(db),
		subSvc:      subSvc,
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

// ProjectRequest is the create/update payload for a project
type ProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      *float64   `json:"budget"`
}

// @Summary      List projects
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Param        search  query  string  false  "Name search"
// @Success      200  {object}  map[string]interface{}  "projects, pagination"
// @Router       /api/v1/projects [get]
// ListProjectsHandler lists the organization's projects
// GET /api/v1/projects?status=ACTIVE&search=water
func (h *ProjectHandlers) ListProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		status := c.Query("status")
		search := c.Query("search")
		page, perPage, offset := parsePagination(c)

		if status != "" && !models.ValidProjectStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project status"})
			return
		}

		projects, err := h.projectRepo.List(c.Request.Context(), orgID, status, search, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
			return
		}

		total, err := h.projectRepo.Count(c.Request.Context(), orgID, status, search)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count projects"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"projects": projects,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Create project
// @Tags         Projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "project"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Router       /api/v1/projects [post]
// CreateProjectHandler creates a project in DRAFT status
// POST /api/v1/projects
func (h *ProjectHandlers) CreateProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		// Projects always start in DRAFT; activation goes through the
		// status endpoint where the plan gate applies.
		project := &models.Project{
			OrganizationID: orgID,
			Name:           req.Name,
			Description:    req.Description,
			Status:         models.ProjectStatusDraft,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			Budget:         req.Budget,
		}
		if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"project": project})
	}
}

// @Summary      Get project
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "project"
// @Failure      404  {object}  map[string]interface{}  "Project not found"
// @Router       /api/v1/projects/{id} [get]
// GetProjectHandler retrieves a project
// GET /api/v1/projects/:id
func (h *ProjectHandlers) GetProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"project": project})
	}
}

// @Summary      Update project
// @Tags         Projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "project"
// @Failure      404  {object}  map[string]interface{}  "Project not found"
// @Router       /api/v1/projects/{id} [put]
// UpdateProjectHandler updates a project's mutable fields. Status is not
// among them; transitions go through the status endpoint.
// PUT /api/v1/projects/:id
func (h *ProjectHandlers) UpdateProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		project.Name = req.Name
		project.Description = req.Description
		project.StartDate = req.StartDate
		project.EndDate = req.EndDate
		project.Budget = req.Budget

		if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"project": project})
	}
}

// StatusRequest is the status transition payload
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary      Change project status
// @Tags         Projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "project"
// @Failure      400  {object}  map[string]interface{}  "Invalid status"
// @Failure      403  {object}  map[string]interface{}  "Plan limit reached"
// @Failure      404  {object}  map[string]interface{}  "Project not found"
// @Router       /api/v1/projects/{id}/status [patch]
// UpdateStatusHandler transitions a project's status. Every transition
// requires an active subscription; transitions into ACTIVE are additionally
// checked against the plan's active-project limit.
// PATCH /api/v1/projects/:id/status
func (h *ProjectHandlers) UpdateStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		projectID := c.Param("id")

		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if !models.ValidProjectStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project status"})
			return
		}

		project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		sub, err := h.subSvc.GetActive(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription"})
			return
		}
		if sub == nil {
			telemetry.PlanLimitRejectionsTotal.Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": "Organization has no active subscription"})
			return
		}

		if req.Status == models.ProjectStatusActive && project.Status != models.ProjectStatusActive {
			decision, err := h.subSvc.CheckProjectLimit(c.Request.Context(), orgID, sub)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check plan limit"})
				return
			}
			if !decision.Allowed {
				c.JSON(http.StatusForbidden, gin.H{
					"error":           decision.Reason,
					"projects_limit":  decision.Limit,
					"projects_active": decision.Active,
				})
				return
			}
		}

		if err := h.projectRepo.UpdateStatus(c.Request.Context(), orgID, projectID, req.Status); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project status"})
			return
		}

		h.recordStatusChange(c, projectID, project.Status, req.Status)

		project.Status = req.Status
		c.JSON(http.StatusOK, gin.H{"project": project})
	}
}

// recordStatusChange writes a best-effort audit entry for a status transition
func (h *ProjectHandlers) recordStatusChange(c *gin.Context, projectID, from, to string) {
	userID := c.GetString("user_id")
	orgID := c.GetString("organization_id")
	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	entry := &models.AuditLog{
		UserID:         &userID,
		OrganizationID: &orgID,
		Action:         "project.status_change",
		ResourceType:   "project",
		ResourceID:     &projectID,
		Metadata:       map[string]interface{}{"from": from, "to": to},
		IPAddress:      &ip,
		UserAgent:      &ua,
	}
	if err := h.auditRepo.CreateAuditLog(c.Request.Context(), entry); err != nil {
		slog.Error("failed to write audit entry", "error", err, "action", entry.Action)
		telemetry.AuditWriteFailuresTotal.WithLabelValues("db").Inc()
	}
}

// @Summary      Delete project
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Project not found"
// @Router       /api/v1/projects/{id} [delete]
// DeleteProjectHandler deletes a project and its planning data
// DELETE /api/v1/projects/:id
func (h *ProjectHandlers) DeleteProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		projectID := c.Param("id")

		project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		if err := h.projectRepo.Delete(c.Request.Context(), orgID, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
	}
}
