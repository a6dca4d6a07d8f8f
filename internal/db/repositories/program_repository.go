// program_repository.go implements ProgramRepository.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ProgramRepository handles database operations for programs
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, organization_id, name, description, created_at, updated_at`

func scanProgram(row interface{ Scan(...interface{}) error }, p *models.Program) error {
	return row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
}

// Create creates a new program
func (r *ProgramRepository) Create(ctx context.Context, p *models.Program) error {
	query := `
		INSERT INTO programs (organization_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, p.OrganizationID, p.Name, p.Description).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

// GetByID retrieves a program by ID within an organization
func (r *ProgramRepository) GetByID(ctx context.Context, orgID, id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE organization_id = $1 AND id = $2`

	p := &models.Program{}
	err := scanProgram(r.db.QueryRowContext(ctx, query, orgID, id), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	return p, nil
}

// List retrieves an organization's programs
func (r *ProgramRepository) List(ctx context.Context, orgID string, limit, offset int) ([]*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]*models.Program, 0)
	for rows.Next() {
		p := &models.Program{}
		if err := scanProgram(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}

	return programs, rows.Err()
}

// Count returns the number of an organization's programs
func (r *ProgramRepository) Count(ctx context.Context, orgID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM programs WHERE organization_id = $1`, orgID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}

	return count, nil
}

// Update updates a program
func (r *ProgramRepository) Update(ctx context.Context, p *models.Program) error {
	query := `
		UPDATE programs SET name = $3, description = $4, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query, p.OrganizationID, p.ID, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	return nil
}

// Delete deletes a program and its project links
func (r *ProgramRepository) Delete(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM programs WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	return nil
}

// ListProjects retrieves the projects linked to a program
func (r *ProgramRepository) ListProjects(ctx context.Context, programID string) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.organization_id, p.name, p.description, p.status,
		       p.start_date, p.end_date, p.budget, p.created_at, p.updated_at
		FROM projects p
		INNER JOIN project_programs pp ON pp.project_id = p.id
		WHERE pp.program_id = $1
		ORDER BY p.name
	`

	rows, err := r.db.QueryContext(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to list program projects: %w", err)
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
