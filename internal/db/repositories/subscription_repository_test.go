package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

var planCols = []string{
	"id", "name", "type", "description", "price", "duration_in_days",
	"projects_allowed", "created_at", "updated_at",
}

var subscriptionCols = []string{
	"id", "organization_id", "plan_id", "start_date", "end_date", "is_active",
	"notified_at", "created_at", "updated_at",
}

var requestCols = []string{
	"id", "organization_id", "plan_id", "requested_by", "status",
	"review_comment", "reviewed_by", "requested_at", "reviewed_at",
}

func samplePlanRow() *sqlmock.Rows {
	now := time.Now()
	limit := 5
	return sqlmock.NewRows(planCols).AddRow(
		"plan-1", "Basic", "BASIC", "Up to five active projects",
		4999.0, 365, &limit, now, now,
	)
}

func newSubRepo(t *testing.T) (*SubscriptionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionRepository(db), mock
}

// ---------------------------------------------------------------------------
// Plan catalog
// ---------------------------------------------------------------------------

func TestSubscriptionRepository_GetPlanByID(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectQuery("SELECT.*FROM subscription_plans WHERE id").
		WithArgs("plan-1").
		WillReturnRows(samplePlanRow())

	plan, err := repo.GetPlanByID(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan == nil {
		t.Fatal("expected plan, got nil")
	}
	if plan.ProjectsAllowed == nil || *plan.ProjectsAllowed != 5 {
		t.Errorf("expected projects_allowed 5, got %v", plan.ProjectsAllowed)
	}
}

func TestSubscriptionRepository_GetPlanByID_NotFound(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectQuery("SELECT.*FROM subscription_plans WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	plan, err := repo.GetPlanByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan != nil {
		t.Errorf("expected nil for missing plan, got %+v", plan)
	}
}

func TestSubscriptionRepository_CreatePlan_UnlimitedProjects(t *testing.T) {
	repo, mock := newSubRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO subscription_plans").
		WithArgs("Enterprise", "ENTERPRISE", "Unlimited projects", 29999.0, 365, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("plan-2", now, now))

	plan := &models.SubscriptionPlan{
		Name:           "Enterprise",
		Type:           "ENTERPRISE",
		Description:    "Unlimited projects",
		Price:          29999.0,
		DurationInDays: 365,
		// nil ProjectsAllowed means no project cap
	}
	if err := repo.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.ID != "plan-2" {
		t.Errorf("expected generated ID, got %q", plan.ID)
	}
}

// ---------------------------------------------------------------------------
// Active subscription lookup
// ---------------------------------------------------------------------------

func TestSubscriptionRepository_GetActiveSubscription(t *testing.T) {
	repo, mock := newSubRepo(t)
	now := time.Now()
	limit := 5

	cols := []string{
		"id", "organization_id", "plan_id", "start_date", "end_date", "is_active",
		"notified_at", "created_at", "updated_at",
		"p_id", "p_name", "p_type", "p_description", "p_price", "p_duration",
		"p_projects_allowed", "p_created_at", "p_updated_at",
	}
	mock.ExpectQuery("SELECT.*FROM organization_subscriptions s.*INNER JOIN subscription_plans p").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"sub-1", "org-1", "plan-1", now.AddDate(0, -1, 0), now.AddDate(0, 11, 0), true,
			nil, now, now,
			"plan-1", "Basic", "BASIC", "Up to five active projects", 4999.0, 365,
			&limit, now, now,
		))

	sub, err := repo.GetActiveSubscription(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil {
		t.Fatal("expected active subscription, got nil")
	}
	if sub.Plan.Type != "BASIC" {
		t.Errorf("expected plan joined in, got %q", sub.Plan.Type)
	}
	if sub.Plan.ProjectsAllowed == nil || *sub.Plan.ProjectsAllowed != 5 {
		t.Errorf("expected plan limit 5, got %v", sub.Plan.ProjectsAllowed)
	}
}

func TestSubscriptionRepository_GetActiveSubscription_None(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectQuery("SELECT.*FROM organization_subscriptions s").
		WithArgs("org-2").
		WillReturnError(sql.ErrNoRows)

	sub, err := repo.GetActiveSubscription(context.Background(), "org-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil for org without subscription, got %+v", sub)
	}
}

// ---------------------------------------------------------------------------
// Request workflow
// ---------------------------------------------------------------------------

func TestSubscriptionRepository_CreateRequest(t *testing.T) {
	repo, mock := newSubRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO subscription_requests").
		WithArgs("org-1", "plan-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "requested_at"}).
			AddRow("req-1", models.SubscriptionRequestPending, now))

	req := &models.SubscriptionRequest{OrganizationID: "org-1", PlanID: "plan-1", RequestedBy: "user-1"}
	if err := repo.CreateRequest(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != models.SubscriptionRequestPending {
		t.Errorf("new requests should start PENDING, got %q", req.Status)
	}
}

func TestSubscriptionRepository_ApproveRequest(t *testing.T) {
	repo, mock := newSubRepo(t)
	limit := 5
	plan := &models.SubscriptionPlan{ID: "plan-1", DurationInDays: 365, ProjectsAllowed: &limit}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE subscription_requests").
		WithArgs("req-1", models.SubscriptionRequestApproved, "admin-1", models.SubscriptionRequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE organization_subscriptions.*SET is_active = FALSE").
		WithArgs("org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO organization_subscriptions").
		WithArgs("org-1", "plan-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ok, err := repo.ApproveRequest(context.Background(), "req-1", "admin-1", plan, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected approval to succeed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_ApproveRequest_AlreadyReviewed(t *testing.T) {
	repo, mock := newSubRepo(t)
	plan := &models.SubscriptionPlan{ID: "plan-1", DurationInDays: 365}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE subscription_requests").
		WithArgs("req-1", models.SubscriptionRequestApproved, "admin-1", models.SubscriptionRequestPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ok, err := repo.ApproveRequest(context.Background(), "req-1", "admin-1", plan, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected approval of a reviewed request to report false")
	}
}

func TestSubscriptionRepository_RejectRequest(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectExec("UPDATE subscription_requests").
		WithArgs("req-1", models.SubscriptionRequestRejected, "payment not received", "admin-1", models.SubscriptionRequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.RejectRequest(context.Background(), "req-1", "admin-1", "payment not received")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected rejection to succeed")
	}
}

func TestSubscriptionRepository_ListRequests_FilterByStatusAndOrg(t *testing.T) {
	repo, mock := newSubRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM subscription_requests.*WHERE status.*AND organization_id").
		WithArgs(models.SubscriptionRequestPending, "org-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
			"req-1", "org-1", "plan-1", "user-1", models.SubscriptionRequestPending,
			nil, nil, now, nil,
		))

	reqs, err := repo.ListRequests(context.Background(), models.SubscriptionRequestPending, "org-1", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].RequestedBy != "user-1" {
		t.Errorf("expected requested_by user-1, got %q", reqs[0].RequestedBy)
	}
}

// ---------------------------------------------------------------------------
// Expiry handling
// ---------------------------------------------------------------------------

func TestSubscriptionRepository_DeactivateExpired(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectExec("UPDATE organization_subscriptions.*SET is_active = FALSE.*end_date").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeactivateExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deactivated, got %d", n)
	}
}

func TestSubscriptionRepository_ListExpiring_SkipsNotified(t *testing.T) {
	repo, mock := newSubRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM organization_subscriptions.*notified_at IS NULL").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(subscriptionCols).AddRow(
			"sub-1", "org-1", "plan-1", now.AddDate(-1, 0, 5), now.AddDate(0, 0, 5), true,
			nil, now, now,
		))

	subs, err := repo.ListExpiring(context.Background(), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 expiring subscription, got %d", len(subs))
	}
	if subs[0].NotifiedAt != nil {
		t.Error("expected unnotified subscription")
	}
}

func TestSubscriptionRepository_MarkNotified(t *testing.T) {
	repo, mock := newSubRepo(t)

	mock.ExpectExec("UPDATE organization_subscriptions.*SET notified_at").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkNotified(context.Background(), "sub-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
