// Package reports implements the report submission and review API. Field
// staff submit reports against activities; NGO admins approve or reject them.
// Reviewed reports are immutable, and a rejection always carries the
// reviewer's comment.
package reports

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/storage"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// ReportHandlers handles report submission, review, and attachments
type ReportHandlers struct {
	reportRepo   *repositories.ReportRepository
	activityRepo *repositories.ActivityRepository
	auditRepo    *repositories.AuditRepository
	store        storage.Storage
	backend      string
}

// NewReportHandlers creates a new ReportHandlers instance. backend is the
// configured storage backend name, used as a metric label.
func NewReportHandlers(db *sql.DB, store storage.Storage, backend string) *ReportHandlers {
	return &ReportHandlers{
		reportRepo:   repositories.NewReportRepository(db),
		activityRepo: repositories.NewActivityRepository(db),
		auditRepo:    repositories.NewAuditRepository(db),
		store:        store,
		backend:      backend,
	}
}

// recordDecision writes a best-effort audit entry for a review decision
func (h *ReportHandlers) recordDecision(c *gin.Context, reportID, action string) {
	userID := c.GetString("user_id")
	orgID := c.GetString("organization_id")
	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	entry := &models.AuditLog{
		UserID:         &userID,
		OrganizationID: &orgID,
		Action:         action,
		ResourceType:   "report",
		ResourceID:     &reportID,
		IPAddress:      &ip,
		UserAgent:      &ua,
	}
	if err := h.auditRepo.CreateAuditLog(c.Request.Context(), entry); err != nil {
		slog.Error("failed to write audit entry", "error", err, "action", entry.Action)
		telemetry.AuditWriteFailuresTotal.WithLabelValues("db").Inc()
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

// ReportRequest is the submission payload for a report
type ReportRequest struct {
	ActivityID   string  `json:"activity_id" binding:"required"`
	ProgramID    *string `json:"program_id"`
	Title        *string `json:"title"`
	UnitReported float64 `json:"unit_reported" binding:"gte=0"`
}

// @Summary      Submit report
// @Tags         Reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "report"
// @Failure      404  {object}  map[string]interface{}  "Activity not found"
// @Router       /api/v1/reports [post]
// SubmitReportHandler submits a new report in PENDING state
// POST /api/v1/reports
func (h *ReportHandlers) SubmitReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.GetString("user_id")

		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		activity, err := h.activityRepo.GetActivityByID(c.Request.Context(), orgID, req.ActivityID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
			return
		}
		if activity == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}

		report := &models.Report{
			OrganizationID: orgID,
			ActivityID:     activity.ID,
			ProgramID:      req.ProgramID,
			Title:          req.Title,
			UnitReported:   req.UnitReported,
			SubmittedBy:    userID,
		}
		if err := h.reportRepo.Create(c.Request.Context(), report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"report": report})
	}
}

// @Summary      List reports
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Filter by status"
// @Param        activity_id  query  string  false  "Filter by activity"
// @Success      200  {object}  map[string]interface{}  "reports"
// @Router       /api/v1/reports [get]
// ListReportsHandler lists the organization's reports
// GET /api/v1/reports?status=PENDING&activity_id=...
func (h *ReportHandlers) ListReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		page, perPage, offset := parsePagination(c)

		status := c.Query("status")
		if status != "" && status != models.ReportStatusPending &&
			status != models.ReportStatusApproved && status != models.ReportStatusRejected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report status"})
			return
		}

		reports, err := h.reportRepo.List(c.Request.Context(), orgID, status,
			c.Query("activity_id"), perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reports":    reports,
			"pagination": gin.H{"page": page, "per_page": perPage},
		})
	}
}

// ensureReport loads the report or writes the error response and returns nil
func (h *ReportHandlers) ensureReport(c *gin.Context) *models.Report {
	orgID := c.GetString("organization_id")

	report, err := h.reportRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return nil
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return nil
	}
	return report
}

// @Summary      Get report
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "report, rejections"
// @Failure      404  {object}  map[string]interface{}  "Report not found"
// @Router       /api/v1/reports/{id} [get]
// GetReportHandler retrieves a report with its rejection history
// GET /api/v1/reports/:id
func (h *ReportHandlers) GetReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.ensureReport(c)
		if report == nil {
			return
		}

		rejections, err := h.reportRepo.ListRejections(c.Request.Context(), report.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"report":     report,
			"rejections": rejections,
		})
	}
}

// @Summary      Update report
// @Tags         Reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "report"
// @Failure      409  {object}  map[string]interface{}  "Already reviewed"
// @Router       /api/v1/reports/{id} [put]
// UpdateReportHandler updates a PENDING report's submission fields. Reviewed
// reports are immutable.
// PUT /api/v1/reports/:id
func (h *ReportHandlers) UpdateReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		report := h.ensureReport(c)
		if report == nil {
			return
		}

		activity, err := h.activityRepo.GetActivityByID(c.Request.Context(), orgID, req.ActivityID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
			return
		}
		if activity == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}

		report.ActivityID = activity.ID
		report.ProgramID = req.ProgramID
		report.Title = req.Title
		report.UnitReported = req.UnitReported

		ok, err := h.reportRepo.Update(c.Request.Context(), report)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "Report has already been reviewed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"report": report})
	}
}

// @Summary      Delete report
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/reports/{id} [delete]
// DeleteReportHandler deletes a report together with its rejections and
// attachment records. Stored attachment blobs are removed best-effort.
// DELETE /api/v1/reports/:id
func (h *ReportHandlers) DeleteReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		report := h.ensureReport(c)
		if report == nil {
			return
		}

		attachments, err := h.reportRepo.ListAttachments(c.Request.Context(), report.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report"})
			return
		}

		if err := h.reportRepo.Delete(c.Request.Context(), orgID, report.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report"})
			return
		}

		for _, a := range attachments {
			h.deleteBlob(c, a)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Report deleted"})
	}
}

// @Summary      Approve report
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      409  {object}  map[string]interface{}  "Already reviewed"
// @Router       /api/v1/reports/{id}/approve [post]
// ApproveReportHandler transitions a PENDING report to APPROVED
// POST /api/v1/reports/:id/approve
func (h *ReportHandlers) ApproveReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		report := h.ensureReport(c)
		if report == nil {
			return
		}

		ok, err := h.reportRepo.Approve(c.Request.Context(), orgID, report.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve report"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "Report has already been reviewed",
				"status": report.Status,
			})
			return
		}

		telemetry.ReportDecisionsTotal.WithLabelValues("approved").Inc()
		h.recordDecision(c, report.ID, "report.approve")

		c.JSON(http.StatusOK, gin.H{"message": "Report approved"})
	}
}

// RejectRequest is the payload for rejecting a report
type RejectRequest struct {
	Comment string `json:"comment"`
}

// @Summary      Reject report
// @Tags         Reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Comment required"
// @Failure      409  {object}  map[string]interface{}  "Already reviewed"
// @Router       /api/v1/reports/{id}/reject [post]
// RejectReportHandler transitions a PENDING report to REJECTED with the
// reviewer's comment
// POST /api/v1/reports/:id/reject
func (h *ReportHandlers) RejectReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.GetString("user_id")

		var req RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		comment := strings.TrimSpace(req.Comment)
		if comment == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection comment is required"})
			return
		}

		report := h.ensureReport(c)
		if report == nil {
			return
		}

		ok, err := h.reportRepo.Reject(c.Request.Context(), orgID, report.ID, userID, comment)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject report"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "Report has already been reviewed",
				"status": report.Status,
			})
			return
		}

		telemetry.ReportDecisionsTotal.WithLabelValues("rejected").Inc()
		h.recordDecision(c, report.ID, "report.reject")

		c.JSON(http.StatusOK, gin.H{"message": "Report rejected"})
	}
}
