package admin

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

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

var orgCols = []string{
	"id", "name", "type", "email", "phone", "address", "website",
	"registration_number", "tax_id", "status",
	"has_people_bank_access", "has_asset_management_access",
	"created_at", "updated_at",
}

func orgRowWithStatus(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orgCols).AddRow(
		"org-1", "Helping Hands", nil, nil, nil, nil, nil,
		nil, nil, status, false, false, now, now,
	)
}

// newAdminRouter wires every admin handler behind a stub that stands in for
// the auth and platform-admin middleware.
func newAdminRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "admin-1")
		c.Next()
	})

	orgHandlers := NewOrganizationHandlers(db)
	planHandlers := NewPlanHandlers(db)
	requestHandlers := NewRequestHandlers(db)
	userHandlers := NewUserHandlers(db)
	auditHandlers := NewAuditHandlers(db)

	r.GET("/admin/organizations", orgHandlers.ListOrganizationsHandler())
	r.GET("/admin/organizations/:id", orgHandlers.GetOrganizationHandler())
	r.POST("/admin/organizations/:id/approve", orgHandlers.ApproveOrganizationHandler())
	r.POST("/admin/organizations/:id/reject", orgHandlers.RejectOrganizationHandler())
	r.POST("/admin/organizations/:id/suspend", orgHandlers.SuspendOrganizationHandler())
	r.DELETE("/admin/organizations/:id", orgHandlers.DeleteOrganizationHandler())

	r.GET("/admin/plans", planHandlers.ListPlansHandler())
	r.POST("/admin/plans", planHandlers.CreatePlanHandler())
	r.GET("/admin/plans/:id", planHandlers.GetPlanHandler())
	r.PUT("/admin/plans/:id", planHandlers.UpdatePlanHandler())
	r.DELETE("/admin/plans/:id", planHandlers.DeletePlanHandler())

	r.GET("/admin/subscription-requests", requestHandlers.ListRequestsHandler())
	r.POST("/admin/subscription-requests/:id/approve", requestHandlers.ApproveRequestHandler())
	r.POST("/admin/subscription-requests/:id/reject", requestHandlers.RejectRequestHandler())

	r.GET("/admin/users", userHandlers.ListUsersHandler())
	r.GET("/admin/users/:id", userHandlers.GetUserHandler())

	r.GET("/admin/audit-logs", auditHandlers.ListAuditLogsHandler())
	r.GET("/admin/audit-logs/:id", auditHandlers.GetAuditLogHandler())

	return mock, r
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

// --- Listing ---------------------------------------------------------------

func TestListOrganizations_StatusFilter(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations.*WHERE status = \$1`).
		WithArgs(models.OrgStatusPending, 20, 0).
		WillReturnRows(orgRowWithStatus(models.OrgStatusPending))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organizations WHERE status = \$1`).
		WithArgs(models.OrgStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := doJSON(t, r, http.MethodGet, "/admin/organizations?status=PENDING", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["organizations"], 1)
	pagination := resp["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Status transitions ----------------------------------------------------

func TestApproveOrganization_Pending(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusPending))
	mock.ExpectExec(`UPDATE organizations SET status = \$2`).
		WithArgs("org-1", models.OrgStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-1/approve", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	org := resp["organization"].(map[string]interface{})
	assert.Equal(t, models.OrgStatusApproved, org["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveOrganization_Suspended(t *testing.T) {
	mock, r := newAdminRouter(t)

	// A suspended org can be re-approved
	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusSuspended))
	mock.ExpectExec(`UPDATE organizations SET status = \$2`).
		WithArgs("org-1", models.OrgStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-1/approve", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveOrganization_AlreadyRejected(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusRejected))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-1/approve", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Organization is not in a reviewable state", resp["error"])
	assert.Equal(t, models.OrgStatusRejected, resp["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveOrganization_NotFound(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-9").
		WillReturnRows(sqlmock.NewRows(orgCols))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-9/approve", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectOrganization_Pending(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusPending))
	mock.ExpectExec(`UPDATE organizations SET status = \$2`).
		WithArgs("org-1", models.OrgStatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-1/reject", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuspendOrganization_OnlyApproved(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusPending))

	w := doJSON(t, r, http.MethodPost, "/admin/organizations/org-1/suspend", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganization_Success(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnRows(orgRowWithStatus(models.OrgStatusApproved))
	mock.ExpectExec(`DELETE FROM organizations WHERE id = \$1`).
		WithArgs("org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodDelete, "/admin/organizations/org-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganization_NotFound(t *testing.T) {
	mock, r := newAdminRouter(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE id = \$1`).
		WithArgs("org-9").
		WillReturnRows(sqlmock.NewRows(orgCols))

	w := doJSON(t, r, http.MethodDelete, "/admin/organizations/org-9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
