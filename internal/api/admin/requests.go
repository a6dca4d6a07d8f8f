// requests.go implements subscription request review. Approval provisions the
// organization's new subscription in one transaction; both decisions are
// PENDING-only and race-safe via conditional UPDATEs in the repository.
package admin

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// RequestHandlers handles subscription request review
type RequestHandlers struct {
	subRepo   *repositories.SubscriptionRepository
	auditRepo *repositories.AuditRepository
}

// NewRequestHandlers creates a new RequestHandlers instance
func NewRequestHandlers(db *sql.DB) *RequestHandlers {
	return &RequestHandlers{
		subRepo:   repositories.NewSubscriptionRepository(db),
		auditRepo: repositories.NewAuditRepository(db),
	}
}

// @Summary      List subscription requests
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  map[string]interface{}  "requests"
// @Router       /api/v1/admin/subscription-requests [get]
// ListRequestsHandler lists subscription requests across organizations
// GET /api/v1/admin/subscription-requests?status=PENDING
func (h *RequestHandlers) ListRequestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		_, perPage, offset := parsePagination(c)

		requests, err := h.subRepo.ListRequests(c.Request.Context(), status, c.Query("organization_id"), perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"requests": requests})
	}
}

// @Summary      Approve subscription request
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Request not found"
// @Failure      409  {object}  map[string]interface{}  "Request already reviewed"
// @Router       /api/v1/admin/subscription-requests/{id}/approve [post]
// ApproveRequestHandler approves a pending request and activates the plan
// POST /api/v1/admin/subscription-requests/:id/approve
func (h *RequestHandlers) ApproveRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")
		reviewerID := c.GetString("user_id")

		request, err := h.subRepo.GetRequestByID(c.Request.Context(), requestID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
			return
		}
		if request == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}

		plan, err := h.subRepo.GetPlanByID(c.Request.Context(), request.PlanID)
		if err != nil || plan == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve requested plan"})
			return
		}

		ok, err := h.subRepo.ApproveRequest(c.Request.Context(), requestID, reviewerID, plan, request.OrganizationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve request"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "Request has already been reviewed"})
			return
		}

		recordAdminAction(c, h.auditRepo, "subscription_request.approve", "subscription_request", requestID,
			map[string]interface{}{
				"organization_id": request.OrganizationID,
				"plan_id":         plan.ID,
				"plan_type":       plan.Type,
			})

		c.JSON(http.StatusOK, gin.H{"message": "Request approved and subscription activated"})
	}
}

// RejectRequestBody is the rejection payload
type RejectRequestBody struct {
	Comment string `json:"comment"`
}

// @Summary      Reject subscription request
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Comment required"
// @Failure      409  {object}  map[string]interface{}  "Request already reviewed"
// @Router       /api/v1/admin/subscription-requests/{id}/reject [post]
// RejectRequestHandler rejects a pending request with a review comment
// POST /api/v1/admin/subscription-requests/:id/reject
func (h *RequestHandlers) RejectRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")
		reviewerID := c.GetString("user_id")

		var body RejectRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		comment := strings.TrimSpace(body.Comment)
		if comment == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection comment is required"})
			return
		}

		request, err := h.subRepo.GetRequestByID(c.Request.Context(), requestID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
			return
		}
		if request == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}

		ok, err := h.subRepo.RejectRequest(c.Request.Context(), requestID, reviewerID, comment)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject request"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "Request has already been reviewed"})
			return
		}

		recordAdminAction(c, h.auditRepo, "subscription_request.reject", "subscription_request", requestID,
			map[string]interface{}{"organization_id": request.OrganizationID, "comment": comment})

		c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
	}
}
