// activities.go implements the intervention catalog and activity endpoints.
package planning

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// InterventionRequest is the create/update payload for an intervention
type InterventionRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// @Summary      List interventions
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "interventions"
// @Router       /api/v1/interventions [get]
// ListInterventionsHandler lists the organization's interventions
// GET /api/v1/interventions
func (h *PlanningHandlers) ListInterventionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		interventions, err := h.activityRepo.ListInterventions(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list interventions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"interventions": interventions})
	}
}

// @Summary      Create intervention
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "intervention"
// @Router       /api/v1/interventions [post]
// CreateInterventionHandler creates an intervention
// POST /api/v1/interventions
func (h *PlanningHandlers) CreateInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req InterventionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		intervention := &models.Intervention{
			OrganizationID: orgID,
			Name:           req.Name,
			Description:    req.Description,
		}
		if err := h.activityRepo.CreateIntervention(c.Request.Context(), intervention); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create intervention"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"intervention": intervention})
	}
}

// @Summary      Update intervention
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "intervention"
// @Failure      404  {object}  map[string]interface{}  "Intervention not found"
// @Router       /api/v1/interventions/{id} [put]
// UpdateInterventionHandler updates an intervention
// PUT /api/v1/interventions/:id
func (h *PlanningHandlers) UpdateInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req InterventionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		intervention, err := h.activityRepo.GetInterventionByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve intervention"})
			return
		}
		if intervention == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Intervention not found"})
			return
		}

		intervention.Name = req.Name
		intervention.Description = req.Description

		if err := h.activityRepo.UpdateIntervention(c.Request.Context(), intervention); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update intervention"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"intervention": intervention})
	}
}

// @Summary      Delete intervention
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/interventions/{id} [delete]
// DeleteInterventionHandler deletes an intervention and its sub-interventions
// DELETE /api/v1/interventions/:id
func (h *PlanningHandlers) DeleteInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.activityRepo.DeleteIntervention(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete intervention"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Intervention deleted"})
	}
}

// SubInterventionRequest is the create payload for a sub-intervention
type SubInterventionRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary      List sub-interventions
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "sub_interventions"
// @Failure      404  {object}  map[string]interface{}  "Intervention not found"
// @Router       /api/v1/interventions/{id}/sub-interventions [get]
// ListSubInterventionsHandler lists the sub-interventions under an intervention
// GET /api/v1/interventions/:id/sub-interventions
func (h *PlanningHandlers) ListSubInterventionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		intervention, err := h.activityRepo.GetInterventionByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve intervention"})
			return
		}
		if intervention == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Intervention not found"})
			return
		}

		subs, err := h.activityRepo.ListSubInterventions(c.Request.Context(), orgID, intervention.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sub-interventions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"sub_interventions": subs})
	}
}

// @Summary      Create sub-intervention
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "sub_intervention"
// @Failure      404  {object}  map[string]interface{}  "Intervention not found"
// @Router       /api/v1/interventions/{id}/sub-interventions [post]
// CreateSubInterventionHandler adds a sub-intervention under an intervention
// POST /api/v1/interventions/:id/sub-interventions
func (h *PlanningHandlers) CreateSubInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req SubInterventionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		intervention, err := h.activityRepo.GetInterventionByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve intervention"})
			return
		}
		if intervention == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Intervention not found"})
			return
		}

		sub := &models.SubIntervention{
			OrganizationID: orgID,
			InterventionID: intervention.ID,
			Name:           req.Name,
		}
		if err := h.activityRepo.CreateSubIntervention(c.Request.Context(), sub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sub-intervention"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"sub_intervention": sub})
	}
}

// @Summary      Delete sub-intervention
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/sub-interventions/{id} [delete]
// DeleteSubInterventionHandler deletes a sub-intervention
// DELETE /api/v1/sub-interventions/:id
func (h *PlanningHandlers) DeleteSubInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.activityRepo.DeleteSubIntervention(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sub-intervention"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Sub-intervention deleted"})
	}
}

// ActivityRequest is the create/update payload for an activity
type ActivityRequest struct {
	ProjectID         string     `json:"project_id" binding:"required"`
	ObjectiveID       *string    `json:"objective_id"`
	InterventionID    *string    `json:"intervention_id"`
	SubInterventionID *string    `json:"sub_intervention_id"`
	Name              string     `json:"name" binding:"required"`
	Type              string     `json:"type" binding:"required"`
	TargetUnit        *float64   `json:"target_unit"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	Status            string     `json:"status"`
}

// @Summary      List activities
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Param        project_id  query  string  false  "Filter by project"
// @Success      200  {object}  map[string]interface{}  "activities"
// @Router       /api/v1/activities [get]
// ListActivitiesHandler lists the organization's activities
// GET /api/v1/activities?project_id=...
func (h *PlanningHandlers) ListActivitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		page, perPage, offset := parsePagination(c)

		activities, err := h.activityRepo.ListActivities(c.Request.Context(), orgID,
			c.Query("project_id"), perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list activities"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"activities": activities,
			"pagination": gin.H{"page": page, "per_page": perPage},
		})
	}
}

// @Summary      Create activity
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "activity"
// @Failure      404  {object}  map[string]interface{}  "Project not found"
// @Router       /api/v1/activities [post]
// CreateActivityHandler creates an activity under a project
// POST /api/v1/activities
func (h *PlanningHandlers) CreateActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, req.ProjectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		status := req.Status
		if status == "" {
			status = "PLANNED"
		}

		activity := &models.Activity{
			OrganizationID:    orgID,
			ProjectID:         project.ID,
			ObjectiveID:       req.ObjectiveID,
			InterventionID:    req.InterventionID,
			SubInterventionID: req.SubInterventionID,
			Name:              req.Name,
			Type:              req.Type,
			TargetUnit:        req.TargetUnit,
			StartDate:         req.StartDate,
			EndDate:           req.EndDate,
			Status:            status,
		}
		if err := h.activityRepo.CreateActivity(c.Request.Context(), activity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create activity"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"activity": activity})
	}
}

// @Summary      Get activity
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "activity"
// @Failure      404  {object}  map[string]interface{}  "Activity not found"
// @Router       /api/v1/activities/{id} [get]
// GetActivityHandler retrieves an activity
// GET /api/v1/activities/:id
func (h *PlanningHandlers) GetActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		activity, err := h.activityRepo.GetActivityByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
			return
		}
		if activity == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"activity": activity})
	}
}

// @Summary      Update activity
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "activity"
// @Failure      404  {object}  map[string]interface{}  "Activity not found"
// @Router       /api/v1/activities/{id} [put]
// UpdateActivityHandler updates an activity. The project link is fixed at
// creation.
// PUT /api/v1/activities/:id
func (h *PlanningHandlers) UpdateActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		activity, err := h.activityRepo.GetActivityByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
			return
		}
		if activity == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}

		activity.ObjectiveID = req.ObjectiveID
		activity.InterventionID = req.InterventionID
		activity.SubInterventionID = req.SubInterventionID
		activity.Name = req.Name
		activity.Type = req.Type
		activity.TargetUnit = req.TargetUnit
		activity.StartDate = req.StartDate
		activity.EndDate = req.EndDate
		if req.Status != "" {
			activity.Status = req.Status
		}

		if err := h.activityRepo.UpdateActivity(c.Request.Context(), activity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update activity"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"activity": activity})
	}
}

// @Summary      Delete activity
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/activities/{id} [delete]
// DeleteActivityHandler deletes an activity
// DELETE /api/v1/activities/:id
func (h *PlanningHandlers) DeleteActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.activityRepo.DeleteActivity(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete activity"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Activity deleted"})
	}
}
