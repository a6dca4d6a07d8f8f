// subscription.go implements the tenant-facing subscription endpoints: viewing
// the current plan, the subscription history, the public plan catalog, and
// filing upgrade requests for platform-admin review.
package accounts

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/services"
)

// SubscriptionHandlers handles the caller's subscription and requests
type SubscriptionHandlers struct {
	subRepo *repositories.SubscriptionRepository
	subSvc  *services.SubscriptionService
}

// NewSubscriptionHandlers creates a new SubscriptionHandlers instance
func NewSubscriptionHandlers(db *sql.DB, subSvc *services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subRepo: repositories.NewSubscriptionRepository(db),
		subSvc:  subSvc,
	}
}

// @Summary      List plans
// @Tags         Subscription
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "plans"
// @Router       /api/v1/plans [get]
// ListPlansHandler lists the plan catalog
// GET /api/v1/plans
func (h *SubscriptionHandlers) ListPlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := h.subRepo.ListPlans(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plans"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"plans": plans})
	}
}

// @Summary      Current subscription
// @Tags         Subscription
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "subscription (null when none active)"
// @Router       /api/v1/subscription [get]
// GetSubscriptionHandler returns the organization's active subscription
// GET /api/v1/subscription
func (h *SubscriptionHandlers) GetSubscriptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		sub, err := h.subSvc.GetActive(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subscription"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"subscription": sub})
	}
}

// @Summary      Subscription history
// @Tags         Subscription
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "subscriptions"
// @Router       /api/v1/subscription/history [get]
// ListSubscriptionsHandler returns the organization's subscription history
// GET /api/v1/subscription/history
func (h *SubscriptionHandlers) ListSubscriptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		subs, err := h.subRepo.ListSubscriptions(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list subscriptions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
	}
}

// CreateRequestRequest is the subscription request payload
type CreateRequestRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// @Summary      Request a plan
// @Tags         Subscription
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "request"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      404  {object}  map[string]interface{}  "Plan not found"
// @Router       /api/v1/subscription/requests [post]
// CreateRequestHandler files a subscription request for review
// POST /api/v1/subscription/requests
func (h *SubscriptionHandlers) CreateRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.GetString("user_id")

		var req CreateRequestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		plan, err := h.subRepo.GetPlanByID(c.Request.Context(), req.PlanID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
			return
		}
		if plan == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		request := &models.SubscriptionRequest{
			OrganizationID: orgID,
			PlanID:         req.PlanID,
			RequestedBy:    userID,
		}
		if err := h.subRepo.CreateRequest(c.Request.Context(), request); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"request": request})
	}
}

// @Summary      List own subscription requests
// @Tags         Subscription
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "requests"
// @Router       /api/v1/subscription/requests [get]
// ListRequestsHandler returns the organization's subscription requests
// GET /api/v1/subscription/requests?status=PENDING
func (h *SubscriptionHandlers) ListRequestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		status := c.Query("status")

		requests, err := h.subRepo.ListRequests(c.Request.Context(), status, orgID, 100, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"requests": requests})
	}
}
