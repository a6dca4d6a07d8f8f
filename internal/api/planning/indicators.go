// indicators.go implements the indicator endpoints nested under objectives.
package planning

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// IndicatorRequest is the create/update payload for an indicator
type IndicatorRequest struct {
	Name      string   `json:"name" binding:"required"`
	Frequency *string  `json:"frequency"`
	Baseline  *float64 `json:"baseline"`
	Target    *float64 `json:"target"`
	Unit      *string  `json:"unit"`
}

// ensureObjective loads the objective or writes the error response and
// returns nil
func (h *PlanningHandlers) ensureObjective(c *gin.Context) *models.Objective {
	orgID := c.GetString("organization_id")

	objective, err := h.objectiveRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve objective"})
		return nil
	}
	if objective == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Objective not found"})
		return nil
	}
	return objective
}

// @Summary      List indicators
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "indicators"
// @Failure      404  {object}  map[string]interface{}  "Objective not found"
// @Router       /api/v1/objectives/{id}/indicators [get]
// ListIndicatorsHandler lists an objective's indicators
// GET /api/v1/objectives/:id/indicators
func (h *PlanningHandlers) ListIndicatorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		objective := h.ensureObjective(c)
		if objective == nil {
			return
		}

		indicators, err := h.objectiveRepo.ListIndicators(c.Request.Context(), orgID, objective.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list indicators"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"indicators": indicators})
	}
}

// @Summary      Create indicator
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "indicator"
// @Failure      404  {object}  map[string]interface{}  "Objective not found"
// @Router       /api/v1/objectives/{id}/indicators [post]
// CreateIndicatorHandler adds an indicator to an objective
// POST /api/v1/objectives/:id/indicators
func (h *PlanningHandlers) CreateIndicatorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req IndicatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		objective := h.ensureObjective(c)
		if objective == nil {
			return
		}

		indicator := &models.Indicator{
			OrganizationID: orgID,
			ObjectiveID:    objective.ID,
			Name:           req.Name,
			Frequency:      req.Frequency,
			Baseline:       req.Baseline,
			Target:         req.Target,
			Unit:           req.Unit,
		}
		if err := h.objectiveRepo.CreateIndicator(c.Request.Context(), indicator); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create indicator"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"indicator": indicator})
	}
}

// @Summary      Update indicator
// @Tags         Planning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "indicator"
// @Failure      404  {object}  map[string]interface{}  "Indicator not found"
// @Router       /api/v1/indicators/{id} [put]
// UpdateIndicatorHandler updates an indicator
// PUT /api/v1/indicators/:id
func (h *PlanningHandlers) UpdateIndicatorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req IndicatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		indicator, err := h.objectiveRepo.GetIndicatorByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve indicator"})
			return
		}
		if indicator == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Indicator not found"})
			return
		}

		indicator.Name = req.Name
		indicator.Frequency = req.Frequency
		indicator.Baseline = req.Baseline
		indicator.Target = req.Target
		indicator.Unit = req.Unit

		if err := h.objectiveRepo.UpdateIndicator(c.Request.Context(), indicator); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update indicator"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"indicator": indicator})
	}
}

// @Summary      Delete indicator
// @Tags         Planning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/indicators/{id} [delete]
// DeleteIndicatorHandler deletes an indicator
// DELETE /api/v1/indicators/:id
func (h *PlanningHandlers) DeleteIndicatorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.objectiveRepo.DeleteIndicator(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete indicator"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Indicator deleted"})
	}
}
