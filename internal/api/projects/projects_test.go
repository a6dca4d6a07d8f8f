package projects

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
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/services"
)

var projectCols = []string{
	"id", "organization_id", "name", "description", "status",
	"start_date", "end_date", "budget", "created_at", "updated_at",
}

var activeSubCols = []string{
	"id", "organization_id", "plan_id", "start_date", "end_date", "is_active",
	"notified_at", "created_at", "updated_at",
	"plan_id", "plan_name", "plan_type", "plan_description", "plan_price",
	"plan_duration_in_days", "plan_projects_allowed", "plan_created_at", "plan_updated_at",
}

func projectRowWithStatus(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(projectCols).AddRow(
		"proj-1", "org-1", "Clean Water Initiative", nil, status,
		nil, nil, nil, now, now,
	)
}

// activeSubRow returns a subscription joined with a plan that allows the
// given number of active projects (nil for unlimited).
func activeSubRow(projectsAllowed interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(activeSubCols).AddRow(
		"sub-1", "org-1", "plan-1", now, now.AddDate(1, 0, 0), true,
		nil, now, now,
		"plan-1", "Standard", "STANDARD", "", 499.0,
		365, projectsAllowed, now, now,
	)
}

func newProjectRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("organization_id", "org-1")
		c.Next()
	})

	svc := services.NewSubscriptionService(
		repositories.NewSubscriptionRepository(db),
		repositories.NewProjectRepository(db),
	)
	h := NewProjectHandlers(db, svc)

	r.GET("/projects", h.ListProjectsHandler())
	r.POST("/projects", h.CreateProjectHandler())
	r.GET("/projects/:id", h.GetProjectHandler())
	r.PUT("/projects/:id", h.UpdateProjectHandler())
	r.PATCH("/projects/:id/status", h.UpdateStatusHandler())
	r.DELETE("/projects/:id", h.DeleteProjectHandler())

	r.GET("/projects/:id/programs", h.ListProgramsHandler())
	r.POST("/projects/:id/programs/:programID", h.AttachProgramHandler())
	r.DELETE("/projects/:id/programs/:programID", h.DetachProgramHandler())
	r.GET("/projects/:id/donors", h.ListDonorsHandler())
	r.POST("/projects/:id/donors/:donorID", h.AttachDonorHandler())
	r.DELETE("/projects/:id/donors/:donorID", h.DetachDonorHandler())

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

// --- CRUD ------------------------------------------------------------------

func TestListProjects_StatusAndSearch(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND status = \$2 AND name ILIKE \$3`).
		WithArgs("org-1", models.ProjectStatusActive, "%water%", 20, 0).
		WillReturnRows(projectRowWithStatus(models.ProjectStatusActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects WHERE organization_id = \$1 AND status = \$2 AND name ILIKE \$3`).
		WithArgs("org-1", models.ProjectStatusActive, "%water%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := doJSON(t, r, http.MethodGet, "/projects?status=ACTIVE&search=water", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["projects"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects_InvalidStatus(t *testing.T) {
	mock, r := newProjectRouter(t)

	w := doJSON(t, r, http.MethodGet, "/projects?status=RUNNING", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProject_StartsAsDraft(t *testing.T) {
	mock, r := newProjectRouter(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("org-1", "Clean Water Initiative", nil, models.ProjectStatusDraft, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("proj-1", now, now))

	w := doJSON(t, r, http.MethodPost, "/projects", map[string]interface{}{
		"name":   "Clean Water Initiative",
		"status": "ACTIVE", // ignored, activation goes through the status endpoint
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	project := resp["project"].(map[string]interface{})
	assert.Equal(t, models.ProjectStatusDraft, project["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProject_NotFound(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-9").
		WillReturnRows(sqlmock.NewRows(projectCols))

	w := doJSON(t, r, http.MethodGet, "/projects/proj-9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProject_Success(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusDraft))
	mock.ExpectExec(`UPDATE projects`).
		WithArgs("org-1", "proj-1", "Clean Water Initiative II", nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPut, "/projects/proj-1", map[string]interface{}{
		"name": "Clean Water Initiative II",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Status transitions ----------------------------------------------------

func TestActivateProject_UnderPlanLimit(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusPlanned))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec(`UPDATE projects SET status = \$3`).
		WithArgs("org-1", "proj-1", models.ProjectStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "ACTIVE"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	project := resp["project"].(map[string]interface{})
	assert.Equal(t, models.ProjectStatusActive, project["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateProject_PlanLimitReached(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusPlanned))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "ACTIVE"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "already active")
	assert.Equal(t, float64(10), resp["projects_limit"])
	assert.Equal(t, float64(10), resp["projects_active"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateProject_NoSubscription(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusDraft))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(activeSubCols))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "ACTIVE"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no active subscription")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateProject_UnlimitedPlanSkipsCount(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusOnHold))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(nil))
	mock.ExpectExec(`UPDATE projects SET status = \$3`).
		WithArgs("org-1", "proj-1", models.ProjectStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "ACTIVE"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateProject_SkipsCountCheck(t *testing.T) {
	mock, r := newProjectRouter(t)

	// Leaving ACTIVE still requires a subscription but never counts projects
	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusActive))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectExec(`UPDATE projects SET status = \$3`).
		WithArgs("org-1", "proj-1", models.ProjectStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "COMPLETED"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NoSubscription(t *testing.T) {
	mock, r := newProjectRouter(t)

	// Even transitions that stay clear of ACTIVE require a subscription
	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusDraft))
	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(activeSubCols))

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "PLANNED"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no active subscription")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	mock, r := newProjectRouter(t)

	w := doJSON(t, r, http.MethodPatch, "/projects/proj-1/status",
		map[string]interface{}{"status": "FINISHED"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProject_Success(t *testing.T) {
	mock, r := newProjectRouter(t)

	mock.ExpectQuery(`SELECT.*FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnRows(projectRowWithStatus(models.ProjectStatusDraft))
	mock.ExpectExec(`DELETE FROM projects WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodDelete, "/projects/proj-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
