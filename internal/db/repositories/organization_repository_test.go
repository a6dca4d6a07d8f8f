package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

var orgCols = []string{
	"id", "name", "type", "email", "phone", "address", "website",
	"registration_number", "tax_id", "status",
	"has_people_bank_access", "has_asset_management_access",
	"created_at", "updated_at",
}

var membershipCols = []string{
	"id", "organization_id", "user_id", "role", "permissions", "is_active",
	"created_at", "updated_at",
}

func sampleOrgRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orgCols).AddRow(
		"org-1", "Gram Vikas Trust", "NGO", "contact@gramvikas.org",
		nil, nil, nil, nil, nil, models.OrgStatusApproved,
		false, false, now, now,
	)
}

func emptyOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols)
}

func newOrgRepo(t *testing.T) (*OrganizationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrganizationRepository(db), mock
}

// ---------------------------------------------------------------------------
// Organization CRUD
// ---------------------------------------------------------------------------

func TestOrganizationRepository_GetByID(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT.*FROM organizations WHERE id").
		WithArgs("org-1").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByID(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil {
		t.Fatal("expected organization, got nil")
	}
	if org.Name != "Gram Vikas Trust" {
		t.Errorf("expected name 'Gram Vikas Trust', got %q", org.Name)
	}
	if org.Status != models.OrgStatusApproved {
		t.Errorf("expected status APPROVED, got %q", org.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOrganizationRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT.*FROM organizations WHERE id").
		WithArgs("missing").
		WillReturnRows(emptyOrgRow())

	org, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org != nil {
		t.Errorf("expected nil for missing organization, got %+v", org)
	}
}

func TestOrganizationRepository_GetByName_CaseInsensitive(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery(`SELECT.*FROM organizations WHERE lower\(name\) = lower`).
		WithArgs("GRAM VIKAS TRUST").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByName(context.Background(), "GRAM VIKAS TRUST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil {
		t.Fatal("expected organization, got nil")
	}
}

func TestOrganizationRepository_Create(t *testing.T) {
	repo, mock := newOrgRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO organizations").
		WithArgs("New NGO", "NGO", "new@ngo.org", nil, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow("org-2", models.OrgStatusPending, now, now))

	org := &models.Organization{
		Name:  "New NGO",
		Type:  strPtr("NGO"),
		Email: strPtr("new@ngo.org"),
	}
	if err := repo.Create(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ID != "org-2" {
		t.Errorf("expected generated ID to be set, got %q", org.ID)
	}
	if org.Status != models.OrgStatusPending {
		t.Errorf("new organizations should start PENDING, got %q", org.Status)
	}
}

func TestOrganizationRepository_UpdateStatus(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectExec("UPDATE organizations SET status").
		WithArgs("org-1", models.OrgStatusSuspended).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "org-1", models.OrgStatusSuspended); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrganizationRepository_List_FilteredByStatus(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT.*FROM organizations WHERE status").
		WithArgs(models.OrgStatusPending, 20, 0).
		WillReturnRows(sampleOrgRow())

	orgs, err := repo.List(context.Background(), models.OrgStatusPending, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs) != 1 {
		t.Errorf("expected 1 organization, got %d", len(orgs))
	}
}

func TestOrganizationRepository_Count(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organizations`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Errorf("expected count 7, got %d", count)
	}
}

// ---------------------------------------------------------------------------
// Membership operations
// ---------------------------------------------------------------------------

func TestOrganizationRepository_AddMember(t *testing.T) {
	repo, mock := newOrgRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO memberships").
		WithArgs("org-1", "user-1", models.RoleMember, []byte(`[{"resource":"projects","action":"read"}]`), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("mem-1", now, now))

	m := &models.Membership{
		OrganizationID: "org-1",
		UserID:         "user-1",
		Role:           models.RoleMember,
		Permissions:    []models.Permission{{Resource: "projects", Action: "read"}},
		IsActive:       true,
	}
	if err := repo.AddMember(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "mem-1" {
		t.Errorf("expected membership ID to be set, got %q", m.ID)
	}
}

func TestOrganizationRepository_GetMember_ParsesPermissions(t *testing.T) {
	repo, mock := newOrgRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM memberships WHERE organization_id").
		WithArgs("org-1", "user-1").
		WillReturnRows(sqlmock.NewRows(membershipCols).AddRow(
			"mem-1", "org-1", "user-1", models.RoleMember,
			[]byte(`[{"resource":"reports","action":"write"}]`), true, now, now,
		))

	m, err := repo.GetMember(context.Background(), "org-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected membership, got nil")
	}
	if len(m.Permissions) != 1 || m.Permissions[0].Resource != "reports" || m.Permissions[0].Action != "write" {
		t.Errorf("permissions not parsed correctly: %+v", m.Permissions)
	}
}

func TestOrganizationRepository_GetMember_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT.*FROM memberships WHERE organization_id").
		WithArgs("org-1", "ghost").
		WillReturnError(sql.ErrNoRows)

	m, err := repo.GetMember(context.Background(), "org-1", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil membership, got %+v", m)
	}
}

func TestOrganizationRepository_GetFirstActiveMembership(t *testing.T) {
	repo, mock := newOrgRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM memberships m.*INNER JOIN organizations o.*WHERE m.user_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, membershipCols...),
			"organization_name", "organization_status")).AddRow(
			"mem-1", "org-1", "user-1", models.RoleNGOAdmin, []byte(`[]`), true, now, now,
			"Gram Vikas Trust", models.OrgStatusApproved,
		))

	m, err := repo.GetFirstActiveMembership(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected membership, got nil")
	}
	if m.OrganizationName != "Gram Vikas Trust" {
		t.Errorf("expected organization name joined in, got %q", m.OrganizationName)
	}
	if m.OrganizationStatus != models.OrgStatusApproved {
		t.Errorf("expected organization status joined in, got %q", m.OrganizationStatus)
	}
}

func TestOrganizationRepository_GetFirstActiveMembership_None(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT.*FROM memberships m.*WHERE m.user_id").
		WithArgs("user-2").
		WillReturnError(sql.ErrNoRows)

	m, err := repo.GetFirstActiveMembership(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for user with no active membership, got %+v", m)
	}
}

func TestOrganizationRepository_ListMembers(t *testing.T) {
	repo, mock := newOrgRepo(t)
	now := time.Now()

	cols := append(append([]string{}, membershipCols...), "user_name", "user_email")
	mock.ExpectQuery("SELECT.*FROM memberships m.*LEFT JOIN users u").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("mem-1", "org-1", "user-1", models.RoleNGOAdmin, []byte(`[]`), true, now, now, "Asha", "asha@ngo.org").
			AddRow("mem-2", "org-1", "user-2", models.RoleMember, []byte(`[]`), true, now, now, "Ravi", "ravi@ngo.org"))

	members, err := repo.ListMembers(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].UserEmail != "asha@ngo.org" {
		t.Errorf("expected user email joined in, got %q", members[0].UserEmail)
	}
}

func TestOrganizationRepository_ListAdminEmails(t *testing.T) {
	repo, mock := newOrgRepo(t)

	mock.ExpectQuery("SELECT u.email.*FROM memberships m.*INNER JOIN users u").
		WithArgs("org-1", models.RoleNGOAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("asha@ngo.org").
			AddRow("meera@ngo.org"))

	emails, err := repo.ListAdminEmails(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emails) != 2 {
		t.Errorf("expected 2 admin emails, got %d", len(emails))
	}
}
