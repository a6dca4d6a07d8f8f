// plans.go implements the plan catalog CRUD. Plans are reference data managed
// only by platform admins; tenants read them through the public /plans route.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// PlanHandlers handles the subscription plan catalog
type PlanHandlers struct {
	subRepo *repositories.SubscriptionRepository
}

// NewPlanHandlers creates a new PlanHandlers instance
func NewPlanHandlers(db *sql.DB) *PlanHandlers {
	return &PlanHandlers{
		subRepo: repositories.NewSubscriptionRepository(db),
	}
}

// PlanRequest is the create/update payload for a plan
type PlanRequest struct {
	Name           string  `json:"name" binding:"required"`
	Type           string  `json:"type" binding:"required"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	DurationInDays int     `json:"duration_in_days" binding:"required,gt=0"`
	// ProjectsAllowed nil means unlimited active projects
	ProjectsAllowed *int `json:"projects_allowed"`
}

// @Summary      List plans
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "plans"
// @Router       /api/v1/admin/plans [get]
// ListPlansHandler lists the plan catalog
// GET /api/v1/admin/plans
func (h *PlanHandlers) ListPlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := h.subRepo.ListPlans(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plans"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"plans": plans})
	}
}

// @Summary      Create plan
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "plan"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      409  {object}  map[string]interface{}  "Plan type already exists"
// @Router       /api/v1/admin/plans [post]
// CreatePlanHandler creates a plan
// POST /api/v1/admin/plans
func (h *PlanHandlers) CreatePlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.ProjectsAllowed != nil && *req.ProjectsAllowed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "projects_allowed must be positive or omitted"})
			return
		}

		existing, err := h.subRepo.GetPlanByType(c.Request.Context(), req.Type)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A plan with this type already exists"})
			return
		}

		plan := &models.SubscriptionPlan{
			Name:            req.Name,
			Type:            req.Type,
			Description:     req.Description,
			Price:           req.Price,
			DurationInDays:  req.DurationInDays,
			ProjectsAllowed: req.ProjectsAllowed,
		}
		if err := h.subRepo.CreatePlan(c.Request.Context(), plan); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"plan": plan})
	}
}

// @Summary      Get plan
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "plan"
// @Failure      404  {object}  map[string]interface{}  "Plan not found"
// @Router       /api/v1/admin/plans/{id} [get]
// GetPlanHandler retrieves a plan by ID
// GET /api/v1/admin/plans/:id
func (h *PlanHandlers) GetPlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, err := h.subRepo.GetPlanByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve plan"})
			return
		}
		if plan == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"plan": plan})
	}
}

// @Summary      Update plan
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "plan"
// @Failure      404  {object}  map[string]interface{}  "Plan not found"
// @Router       /api/v1/admin/plans/{id} [put]
// UpdatePlanHandler updates a plan. Existing subscriptions keep the terms
// they were provisioned with; the change affects future approvals only.
// PUT /api/v1/admin/plans/:id
func (h *PlanHandlers) UpdatePlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.ProjectsAllowed != nil && *req.ProjectsAllowed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "projects_allowed must be positive or omitted"})
			return
		}

		plan, err := h.subRepo.GetPlanByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve plan"})
			return
		}
		if plan == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		plan.Name = req.Name
		plan.Type = req.Type
		plan.Description = req.Description
		plan.Price = req.Price
		plan.DurationInDays = req.DurationInDays
		plan.ProjectsAllowed = req.ProjectsAllowed

		if err := h.subRepo.UpdatePlan(c.Request.Context(), plan); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"plan": plan})
	}
}

// @Summary      Delete plan
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      409  {object}  map[string]interface{}  "Plan is referenced by subscriptions"
// @Router       /api/v1/admin/plans/{id} [delete]
// DeletePlanHandler deletes a plan. The foreign key from subscriptions is
// RESTRICT, so a referenced plan cannot be removed.
// DELETE /api/v1/admin/plans/:id
func (h *PlanHandlers) DeletePlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.subRepo.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Plan is referenced by existing subscriptions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
	}
}
