// organization_repository.go implements OrganizationRepository, providing database
// queries for organization registration and approval, profile CRUD, membership
// management, and the first-active-membership tenant resolution query.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const orgColumns = `id, name, type, email, phone, address, website,
		       registration_number, tax_id, status,
		       has_people_bank_access, has_asset_management_access,
		       created_at, updated_at`

func scanOrganization(row interface{ Scan(...interface{}) error }) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Type,
		&org.Email,
		&org.Phone,
		&org.Address,
		&org.Website,
		&org.RegistrationNumber,
		&org.TaxID,
		&org.Status,
		&org.HasPeopleBankAccess,
		&org.HasAssetManagementAccess,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	return org, err
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetByName retrieves an organization by its name (case-insensitive)
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE lower(name) = lower($1)`

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// Create creates a new organization (status defaults to PENDING)
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (name, type, email, phone, address, website,
		                           registration_number, tax_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		org.Name, org.Type, org.Email, org.Phone, org.Address, org.Website,
		org.RegistrationNumber, org.TaxID,
	).Scan(
		&org.ID,
		&org.Status,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// Update updates an organization's profile fields
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, type = $3, email = $4, phone = $5, address = $6,
		    website = $7, registration_number = $8, tax_id = $9,
		    has_people_bank_access = $10, has_asset_management_access = $11,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Type, org.Email, org.Phone, org.Address,
		org.Website, org.RegistrationNumber, org.TaxID,
		org.HasPeopleBankAccess, org.HasAssetManagementAccess,
	)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	return nil
}

// UpdateStatus moves an organization through its approval lifecycle
func (r *OrganizationRepository) UpdateStatus(ctx context.Context, orgID, status string) error {
	query := `UPDATE organizations SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, orgID, status)
	if err != nil {
		return fmt.Errorf("failed to update organization status: %w", err)
	}

	return nil
}

// Delete deletes an organization. All tenant data cascades at the schema level.
func (r *OrganizationRepository) Delete(ctx context.Context, orgID string) error {
	query := `DELETE FROM organizations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// List retrieves a paginated list of organizations, optionally filtered by status
func (r *OrganizationRepository) List(ctx context.Context, status string, limit, offset int) ([]*models.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations`
	args := []interface{}{}
	paramIndex := 1

	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", paramIndex)
		args = append(args, status)
		paramIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// Count returns the total number of organizations, optionally filtered by status
func (r *OrganizationRepository) Count(ctx context.Context, status string) (int, error) {
	var count int
	var err error
	if status != "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations WHERE status = $1`, status).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	return count, nil
}

// === Membership Operations ===

const membershipColumns = `id, organization_id, user_id, role, permissions, is_active, created_at, updated_at`

func scanMembership(row interface{ Scan(...interface{}) error }, m *models.Membership) error {
	var permissionsJSON []byte
	err := row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.UserID,
		&m.Role,
		&permissionsJSON,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &m.Permissions); err != nil {
			return fmt.Errorf("failed to parse permissions: %w", err)
		}
	}
	return nil
}

// AddMember adds a user to an organization
func (r *OrganizationRepository) AddMember(ctx context.Context, m *models.Membership) error {
	permissionsJSON, err := json.Marshal(m.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	if m.Permissions == nil {
		permissionsJSON = []byte("[]")
	}

	query := `
		INSERT INTO memberships (organization_id, user_id, role, permissions, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		m.OrganizationID, m.UserID, m.Role, permissionsJSON, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// GetMember retrieves a user's membership in an organization
func (r *OrganizationRepository) GetMember(ctx context.Context, orgID, userID string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE organization_id = $1 AND user_id = $2`

	m := &models.Membership{}
	err := scanMembership(r.db.QueryRowContext(ctx, query, orgID, userID), m)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return m, nil
}

// UpdateMember changes a member's role, permission list, and active flag
func (r *OrganizationRepository) UpdateMember(ctx context.Context, m *models.Membership) error {
	permissionsJSON, err := json.Marshal(m.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	if m.Permissions == nil {
		permissionsJSON = []byte("[]")
	}

	query := `
		UPDATE memberships
		SET role = $3, permissions = $4, is_active = $5, updated_at = NOW()
		WHERE organization_id = $1 AND user_id = $2
	`

	_, err = r.db.ExecContext(ctx, query, m.OrganizationID, m.UserID, m.Role, permissionsJSON, m.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from an organization
func (r *OrganizationRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	query := `DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ListMembers retrieves all members of an organization with user details
func (r *OrganizationRepository) ListMembers(ctx context.Context, orgID string) ([]*models.MembershipWithUser, error) {
	query := `
		SELECT m.id, m.organization_id, m.user_id, m.role, m.permissions, m.is_active,
		       m.created_at, m.updated_at,
		       COALESCE(u.name, '') AS user_name, COALESCE(u.email, '') AS user_email
		FROM memberships m
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.organization_id = $1
		ORDER BY m.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.MembershipWithUser, 0)
	for rows.Next() {
		m := &models.MembershipWithUser{}
		var permissionsJSON []byte
		err := rows.Scan(
			&m.ID,
			&m.OrganizationID,
			&m.UserID,
			&m.Role,
			&permissionsJSON,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.UserName,
			&m.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if len(permissionsJSON) > 0 {
			if err := json.Unmarshal(permissionsJSON, &m.Permissions); err != nil {
				return nil, fmt.Errorf("failed to parse permissions: %w", err)
			}
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// GetFirstActiveMembership resolves a user's effective organization: the
// earliest-created active membership, joined with the organization's name and
// status. Returns nil when the user has no active membership.
func (r *OrganizationRepository) GetFirstActiveMembership(ctx context.Context, userID string) (*models.MembershipWithOrg, error) {
	query := `
		SELECT m.id, m.organization_id, m.user_id, m.role, m.permissions, m.is_active,
		       m.created_at, m.updated_at,
		       o.name AS organization_name, o.status AS organization_status
		FROM memberships m
		INNER JOIN organizations o ON m.organization_id = o.id
		WHERE m.user_id = $1 AND m.is_active
		ORDER BY m.created_at ASC
		LIMIT 1
	`

	m := &models.MembershipWithOrg{}
	var permissionsJSON []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&m.ID,
		&m.OrganizationID,
		&m.UserID,
		&m.Role,
		&permissionsJSON,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.OrganizationName,
		&m.OrganizationStatus,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}

	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &m.Permissions); err != nil {
			return nil, fmt.Errorf("failed to parse permissions: %w", err)
		}
	}

	return m, nil
}

// ListAdminEmails returns the emails of active ngo_admin members of an
// organization, used by the subscription expiry notifier.
func (r *OrganizationRepository) ListAdminEmails(ctx context.Context, orgID string) ([]string, error) {
	query := `
		SELECT u.email
		FROM memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.organization_id = $1 AND m.role = $2 AND m.is_active
		ORDER BY u.email
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, models.RoleNGOAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
