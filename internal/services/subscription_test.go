package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

var activeSubCols = []string{
	"id", "organization_id", "plan_id", "start_date", "end_date",
	"is_active", "notified_at", "created_at", "updated_at",
	"plan_id", "name", "type", "description", "price", "duration_in_days",
	"projects_allowed", "plan_created_at", "plan_updated_at",
}

func newSubscriptionService(t *testing.T) (*SubscriptionService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewSubscriptionService(
		repositories.NewSubscriptionRepository(db),
		repositories.NewProjectRepository(db),
	), mock
}

func activeSubRow(projectsAllowed interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(activeSubCols).AddRow(
		"sub-1", "org-1", "plan-1", now.AddDate(0, -1, 0), now.AddDate(0, 11, 0),
		true, nil, now, now,
		"plan-1", "Standard", "STANDARD", "Up to ten active projects", 499.0, 365,
		projectsAllowed, now, now,
	)
}

// ----------------------------------------------------------------------------
// GetActive
// ----------------------------------------------------------------------------

func TestGetActive_ReturnsSubscriptionWithPlan(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))

	sub, err := svc.GetActive(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil {
		t.Fatal("expected a subscription, got nil")
	}
	if sub.Plan.Type != "STANDARD" {
		t.Errorf("expected plan type STANDARD, got %q", sub.Plan.Type)
	}
	if sub.Plan.ProjectsAllowed == nil || *sub.Plan.ProjectsAllowed != 10 {
		t.Errorf("expected projects_allowed 10, got %v", sub.Plan.ProjectsAllowed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetActive_NoSubscription(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnError(sql.ErrNoRows)

	sub, err := svc.GetActive(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil subscription, got %+v", sub)
	}
}

// ----------------------------------------------------------------------------
// CanActivateProject
// ----------------------------------------------------------------------------

func TestCanActivateProject_NoSubscription_Denied(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnError(sql.ErrNoRows)

	decision, err := svc.CanActivateProject(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected activation to be denied without a subscription")
	}
	if decision.Reason == "" {
		t.Error("expected a denial reason")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCanActivateProject_UnlimitedPlan_SkipsCount(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(nil))

	decision, err := svc.CanActivateProject(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected unlimited plan to allow activation: %s", decision.Reason)
	}
	if decision.Limit != nil {
		t.Errorf("expected nil limit for unlimited plan, got %d", *decision.Limit)
	}

	// No COUNT query may run for an unlimited plan.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCanActivateProject_UnderLimit_Allowed(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	decision, err := svc.CanActivateProject(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected activation to be allowed: %s", decision.Reason)
	}
	if decision.Active != 4 {
		t.Errorf("expected active count 4, got %d", decision.Active)
	}
}

func TestCanActivateProject_AtLimit_Denied(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	decision, err := svc.CanActivateProject(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected activation to be denied at the plan limit")
	}
	if decision.Limit == nil || *decision.Limit != 10 {
		t.Errorf("expected limit 10, got %v", decision.Limit)
	}
	if decision.Active != 10 {
		t.Errorf("expected active count 10, got %d", decision.Active)
	}
}

func TestCanActivateProject_SubscriptionQueryError(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnError(errors.New("connection reset"))

	decision, err := svc.CanActivateProject(context.Background(), "org-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if decision != nil {
		t.Errorf("expected nil decision on error, got %+v", decision)
	}
}

func TestCanActivateProject_CountQueryError(t *testing.T) {
	svc, mock := newSubscriptionService(t)

	mock.ExpectQuery(`SELECT s\.id, s\.organization_id.*FROM organization_subscriptions s`).
		WithArgs("org-1").
		WillReturnRows(activeSubRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := svc.CanActivateProject(context.Background(), "org-1")
	if err == nil {
		t.Fatal("expected an error")
	}
}
