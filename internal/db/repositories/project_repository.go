// project_repository.go implements ProjectRepository. Every read and write is
// scoped by organization_id so one tenant can never reach another tenant's
// projects.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, organization_id, name, description, status, start_date, end_date, budget, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }, p *models.Project) error {
	return row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.StartDate,
		&p.EndDate,
		&p.Budget,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (organization_id, name, description, status, start_date, end_date, budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.OrganizationID, p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.Budget,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID within an organization
func (r *ProjectRepository) GetByID(ctx context.Context, orgID, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE organization_id = $1 AND id = $2`

	p := &models.Project{}
	err := scanProject(r.db.QueryRowContext(ctx, query, orgID, id), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// List retrieves an organization's projects with optional status filter and
// name search
func (r *ProjectRepository) List(ctx context.Context, orgID, status, search string, limit, offset int) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", paramIndex)
		args = append(args, status)
		paramIndex++
	}
	if search != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", paramIndex)
		args = append(args, "%"+search+"%")
		paramIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		p := &models.Project{}
		if err := scanProject(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// Count returns the number of an organization's projects matching the filters
func (r *ProjectRepository) Count(ctx context.Context, orgID, status, search string) (int, error) {
	query := `SELECT COUNT(*) FROM projects WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", paramIndex)
		args = append(args, status)
		paramIndex++
	}
	if search != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", paramIndex)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}

	return count, nil
}

// CountActive returns the number of ACTIVE projects in an organization. Plan
// limit checks compare this against the subscription's projects_allowed.
func (r *ProjectRepository) CountActive(ctx context.Context, orgID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE organization_id = $1 AND status = $2`,
		orgID, models.ProjectStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active projects: %w", err)
	}

	return count, nil
}

// Update updates a project's mutable fields (status changes go through
// UpdateStatus so the plan gate applies)
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	query := `
		UPDATE projects
		SET name = $3, description = $4, start_date = $5, end_date = $6, budget = $7,
		    updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		p.OrganizationID, p.ID, p.Name, p.Description, p.StartDate, p.EndDate, p.Budget,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// UpdateStatus transitions a project to a new status
func (r *ProjectRepository) UpdateStatus(ctx context.Context, orgID, id, status string) error {
	query := `UPDATE projects SET status = $3, updated_at = NOW() WHERE organization_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, query, orgID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	return nil
}

// Delete deletes a project. Child planning rows cascade at the schema level.
func (r *ProjectRepository) Delete(ctx context.Context, orgID, id string) error {
	query := `DELETE FROM projects WHERE organization_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, query, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// === Program Links ===

// AttachProgram links a project to a program. Attaching twice is a no-op.
func (r *ProjectRepository) AttachProgram(ctx context.Context, projectID, programID string) error {
	query := `
		INSERT INTO project_programs (project_id, program_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, program_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, projectID, programID)
	if err != nil {
		return fmt.Errorf("failed to attach program: %w", err)
	}

	return nil
}

// DetachProgram unlinks a project from a program
func (r *ProjectRepository) DetachProgram(ctx context.Context, projectID, programID string) error {
	query := `DELETE FROM project_programs WHERE project_id = $1 AND program_id = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, programID)
	if err != nil {
		return fmt.Errorf("failed to detach program: %w", err)
	}

	return nil
}

// ListPrograms retrieves the programs a project is linked to
func (r *ProjectRepository) ListPrograms(ctx context.Context, projectID string) ([]*models.Program, error) {
	query := `
		SELECT p.id, p.organization_id, p.name, p.description, p.created_at, p.updated_at
		FROM programs p
		INNER JOIN project_programs pp ON pp.program_id = p.id
		WHERE pp.project_id = $1
		ORDER BY p.name
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project programs: %w", err)
	}
	defer rows.Close()

	programs := make([]*models.Program, 0)
	for rows.Next() {
		p := &models.Program{}
		err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}

	return programs, rows.Err()
}

// === Donor Links ===

// AttachDonor links a donor to a project with a funded amount. Re-attaching
// updates the amount.
func (r *ProjectRepository) AttachDonor(ctx context.Context, link *models.ProjectDonor) error {
	query := `
		INSERT INTO project_donors (project_id, donor_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, donor_id) DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.db.ExecContext(ctx, query, link.ProjectID, link.DonorID, link.Amount)
	if err != nil {
		return fmt.Errorf("failed to attach donor: %w", err)
	}

	return nil
}

// DetachDonor unlinks a donor from a project
func (r *ProjectRepository) DetachDonor(ctx context.Context, projectID, donorID string) error {
	query := `DELETE FROM project_donors WHERE project_id = $1 AND donor_id = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, donorID)
	if err != nil {
		return fmt.Errorf("failed to detach donor: %w", err)
	}

	return nil
}

// ListDonors retrieves the donors funding a project with their amounts
func (r *ProjectRepository) ListDonors(ctx context.Context, projectID string) ([]*models.ProjectDonorDetail, error) {
	query := `
		SELECT d.id, d.organization_id, d.name, d.contact_person, d.email, d.phone,
		       d.created_at, d.updated_at, pd.amount
		FROM donors d
		INNER JOIN project_donors pd ON pd.donor_id = d.id
		WHERE pd.project_id = $1
		ORDER BY d.name
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project donors: %w", err)
	}
	defer rows.Close()

	donors := make([]*models.ProjectDonorDetail, 0)
	for rows.Next() {
		d := &models.ProjectDonorDetail{}
		err := rows.Scan(
			&d.ID, &d.OrganizationID, &d.Name, &d.ContactPerson, &d.Email, &d.Phone,
			&d.CreatedAt, &d.UpdatedAt, &d.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}
		donors = append(donors, d)
	}

	return donors, rows.Err()
}
