package accounts

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/services"
)

var planCols = []string{
	"id", "name", "type", "description", "price", "duration_in_days",
	"projects_allowed", "created_at", "updated_at",
}

func newSubscriptionRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := services.NewSubscriptionService(
		repositories.NewSubscriptionRepository(db),
		repositories.NewProjectRepository(db),
	)
	h := NewSubscriptionHandlers(db, svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("organization_id", "org-1")
	})
	r.GET("/plans", h.ListPlansHandler())
	r.GET("/subscription", h.GetSubscriptionHandler())
	r.GET("/subscription/history", h.ListSubscriptionsHandler())
	r.GET("/subscription/requests", h.ListRequestsHandler())
	r.POST("/subscription/requests", h.CreateRequestHandler())
	return mock, r
}

func TestListPlans_Success(t *testing.T) {
	mock, r := newSubscriptionRouter(t)

	now := time.Now()
	limit := 5
	mock.ExpectQuery("SELECT.*FROM subscription_plans").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow(
			"plan-1", "Basic", "BASIC", "Up to five active projects", 4999.0, 365, &limit, now, now,
		))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/plans", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetSubscription_NoneActive(t *testing.T) {
	mock, r := newSubscriptionRouter(t)

	mock.ExpectQuery("SELECT.*FROM organization_subscriptions s").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/subscription", nil))

	// Absence of a subscription is not an error condition
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateRequest_PlanNotFound(t *testing.T) {
	mock, r := newSubscriptionRouter(t)

	mock.ExpectQuery("SELECT.*FROM subscription_plans WHERE id").
		WithArgs("missing-plan").
		WillReturnRows(sqlmock.NewRows(planCols))

	w := postJSON(t, r, "/subscription/requests", CreateRequestRequest{PlanID: "missing-plan"})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateRequest_Success(t *testing.T) {
	mock, r := newSubscriptionRouter(t)

	now := time.Now()
	limit := 5
	mock.ExpectQuery("SELECT.*FROM subscription_plans WHERE id").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow(
			"plan-1", "Basic", "BASIC", "Up to five active projects", 4999.0, 365, &limit, now, now,
		))
	mock.ExpectQuery("INSERT INTO subscription_requests").
		WithArgs("org-1", "plan-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "requested_at"}).
			AddRow("req-1", "PENDING", now))

	w := postJSON(t, r, "/subscription/requests", CreateRequestRequest{PlanID: "plan-1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
