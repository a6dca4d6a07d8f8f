package reports

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportCols = []string{
	"id", "organization_id", "activity_id", "program_id", "title",
	"unit_reported", "status", "approved_at", "submitted_by",
	"created_at", "updated_at",
}

var rejectionCols = []string{"id", "report_id", "comment", "rejected_by", "created_at"}

var activityCols = []string{
	"id", "organization_id", "project_id", "objective_id", "intervention_id",
	"sub_intervention_id", "name", "type", "target_unit", "start_date",
	"end_date", "status", "created_at", "updated_at",
}

func reportRowWithStatus(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportCols).
		AddRow("rep-1", "org-1", "act-1", nil, strPtr("Week 12 training report"),
			30.0, status, nil, "user-2", now, now)
}

func sampleActivityRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(activityCols).
		AddRow("act-1", "org-1", "proj-1", nil, nil, nil,
			"Community facilitator training", "Training", nil, nil, nil,
			"ONGOING", now, now)
}

func newReportRouter(t *testing.T) (sqlmock.Sqlmock, *memStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	h := NewReportHandlers(db, store, "local")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("organization_id", "org-1")
		c.Next()
	})

	r.GET("/reports", h.ListReportsHandler())
	r.POST("/reports", h.SubmitReportHandler())
	r.GET("/reports/:id", h.GetReportHandler())
	r.PUT("/reports/:id", h.UpdateReportHandler())
	r.DELETE("/reports/:id", h.DeleteReportHandler())
	r.POST("/reports/:id/approve", h.ApproveReportHandler())
	r.POST("/reports/:id/reject", h.RejectReportHandler())
	r.GET("/reports/:id/attachments", h.ListAttachmentsHandler())
	r.POST("/reports/:id/attachments", h.UploadAttachmentHandler())
	r.GET("/reports/:id/attachments/:attachment_id/download", h.DownloadAttachmentHandler())
	r.DELETE("/reports/:id/attachments/:attachment_id", h.DeleteAttachmentHandler())

	return mock, store, r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

// --- Submission ---------------------------------------------------------

func TestSubmitReport_StartsPending(t *testing.T) {
	mock, _, r := newReportRouter(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM activities WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "act-1").
		WillReturnRows(sampleActivityRow())

	mock.ExpectQuery(`INSERT INTO reports`).
		WithArgs("org-1", "act-1", nil, strPtr("Week 12 training report"), 30.0, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow("rep-1", "PENDING", now, now))

	w := doJSON(t, r, http.MethodPost, "/reports", gin.H{
		"activity_id":   "act-1",
		"title":         "Week 12 training report",
		"unit_reported": 30,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PENDING"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReport_ActivityNotFound(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM activities WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "act-other").
		WillReturnRows(sqlmock.NewRows(activityCols))

	w := doJSON(t, r, http.MethodPost, "/reports", gin.H{
		"activity_id":   "act-other",
		"unit_reported": 30,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Activity not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReports_StatusFilter(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("org-1", "PENDING", 20, 0).
		WillReturnRows(reportRowWithStatus("PENDING"))

	w := doJSON(t, r, http.MethodGet, "/reports?status=PENDING", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Week 12 training report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReports_InvalidStatus(t *testing.T) {
	mock, _, r := newReportRouter(t)

	w := doJSON(t, r, http.MethodGet, "/reports?status=DRAFT", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReport_IncludesRejectionHistory(t *testing.T) {
	mock, _, r := newReportRouter(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("REJECTED"))

	mock.ExpectQuery(`SELECT .* FROM report_rejections WHERE report_id = \$1`).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows(rejectionCols).
			AddRow("rej-1", "rep-1", "Attendance register missing", "admin-1", now))

	w := doJSON(t, r, http.MethodGet, "/reports/rep-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Attendance register missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Review -------------------------------------------------------------

func TestApproveReport_Success(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("PENDING"))

	mock.ExpectExec(`UPDATE reports\s+SET status = \$3, approved_at = NOW\(\)`).
		WithArgs("org-1", "rep-1", "APPROVED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := doJSON(t, r, http.MethodPost, "/reports/rep-1/approve", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Report approved")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveReport_AlreadyReviewed(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("REJECTED"))

	mock.ExpectExec(`UPDATE reports\s+SET status = \$3, approved_at = NOW\(\)`).
		WithArgs("org-1", "rep-1", "APPROVED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(t, r, http.MethodPost, "/reports/rep-1/approve", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"REJECTED"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectReport_RequiresComment(t *testing.T) {
	mock, _, r := newReportRouter(t)

	w := doJSON(t, r, http.MethodPost, "/reports/rep-1/reject", gin.H{"comment": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "comment is required")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectReport_WritesCommentAtomically(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("PENDING"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports\s+SET status = \$3`).
		WithArgs("org-1", "rep-1", "REJECTED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO report_rejections`).
		WithArgs("rep-1", "Attendance register missing", "user-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := doJSON(t, r, http.MethodPost, "/reports/rep-1/reject", gin.H{
		"comment": "Attendance register missing",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Report rejected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectReport_AlreadyReviewed(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("APPROVED"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports\s+SET status = \$3`).
		WithArgs("org-1", "rep-1", "REJECTED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := doJSON(t, r, http.MethodPost, "/reports/rep-1/reject", gin.H{
		"comment": "Attendance register missing",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been reviewed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReport_AlreadyReviewed(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("APPROVED"))

	mock.ExpectQuery(`SELECT .* FROM activities WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "act-1").
		WillReturnRows(sampleActivityRow())

	mock.ExpectExec(`UPDATE reports\s+SET activity_id = \$3`).
		WithArgs("org-1", "rep-1", "act-1", nil, strPtr("Week 13 training report"), 35.0, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(t, r, http.MethodPut, "/reports/rep-1", gin.H{
		"activity_id":   "act-1",
		"title":         "Week 13 training report",
		"unit_reported": 35,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been reviewed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
