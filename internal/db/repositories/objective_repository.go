// objective_repository.go implements ObjectiveRepository: objectives and their
// measurement indicators.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ObjectiveRepository handles database operations for objectives and indicators
type ObjectiveRepository struct {
	db *sql.DB
}

// NewObjectiveRepository creates a new objective repository
func NewObjectiveRepository(db *sql.DB) *ObjectiveRepository {
	return &ObjectiveRepository{db: db}
}

const objectiveColumns = `id, organization_id, project_id, program_id, title, description, created_at, updated_at`

func scanObjective(row interface{ Scan(...interface{}) error }, o *models.Objective) error {
	return row.Scan(
		&o.ID,
		&o.OrganizationID,
		&o.ProjectID,
		&o.ProgramID,
		&o.Title,
		&o.Description,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// Create creates a new objective
func (r *ObjectiveRepository) Create(ctx context.Context, o *models.Objective) error {
	query := `
		INSERT INTO objectives (organization_id, project_id, program_id, title, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		o.OrganizationID, o.ProjectID, o.ProgramID, o.Title, o.Description,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create objective: %w", err)
	}

	return nil
}

// GetByID retrieves an objective by ID within an organization
func (r *ObjectiveRepository) GetByID(ctx context.Context, orgID, id string) (*models.Objective, error) {
	query := `SELECT ` + objectiveColumns + ` FROM objectives WHERE organization_id = $1 AND id = $2`

	o := &models.Objective{}
	err := scanObjective(r.db.QueryRowContext(ctx, query, orgID, id), o)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get objective: %w", err)
	}

	return o, nil
}

// List retrieves an organization's objectives, optionally filtered by parent
// project or program
func (r *ObjectiveRepository) List(ctx context.Context, orgID, projectID, programID string) ([]*models.Objective, error) {
	query := `SELECT ` + objectiveColumns + ` FROM objectives WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if projectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", paramIndex)
		args = append(args, projectID)
		paramIndex++
	}
	if programID != "" {
		query += fmt.Sprintf(" AND program_id = $%d", paramIndex)
		args = append(args, programID)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list objectives: %w", err)
	}
	defer rows.Close()

	objectives := make([]*models.Objective, 0)
	for rows.Next() {
		o := &models.Objective{}
		if err := scanObjective(rows, o); err != nil {
			return nil, fmt.Errorf("failed to scan objective: %w", err)
		}
		objectives = append(objectives, o)
	}

	return objectives, rows.Err()
}

// Update updates an objective's title and description
func (r *ObjectiveRepository) Update(ctx context.Context, o *models.Objective) error {
	query := `
		UPDATE objectives SET title = $3, description = $4, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query, o.OrganizationID, o.ID, o.Title, o.Description)
	if err != nil {
		return fmt.Errorf("failed to update objective: %w", err)
	}

	return nil
}

// Delete deletes an objective and its indicators
func (r *ObjectiveRepository) Delete(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM objectives WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete objective: %w", err)
	}

	return nil
}

// === Indicators ===

const indicatorColumns = `id, organization_id, objective_id, name, frequency, baseline, target, unit, created_at, updated_at`

func scanIndicator(row interface{ Scan(...interface{}) error }, in *models.Indicator) error {
	return row.Scan(
		&in.ID,
		&in.OrganizationID,
		&in.ObjectiveID,
		&in.Name,
		&in.Frequency,
		&in.Baseline,
		&in.Target,
		&in.Unit,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
}

// CreateIndicator creates a new indicator under an objective
func (r *ObjectiveRepository) CreateIndicator(ctx context.Context, in *models.Indicator) error {
	query := `
		INSERT INTO indicators (organization_id, objective_id, name, frequency, baseline, target, unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		in.OrganizationID, in.ObjectiveID, in.Name, in.Frequency, in.Baseline, in.Target, in.Unit,
	).Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create indicator: %w", err)
	}

	return nil
}

// GetIndicatorByID retrieves an indicator by ID within an organization
func (r *ObjectiveRepository) GetIndicatorByID(ctx context.Context, orgID, id string) (*models.Indicator, error) {
	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE organization_id = $1 AND id = $2`

	in := &models.Indicator{}
	err := scanIndicator(r.db.QueryRowContext(ctx, query, orgID, id), in)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator: %w", err)
	}

	return in, nil
}

// ListIndicators retrieves the indicators under an objective
func (r *ObjectiveRepository) ListIndicators(ctx context.Context, orgID, objectiveID string) ([]*models.Indicator, error) {
	query := `SELECT ` + indicatorColumns + ` FROM indicators
		WHERE organization_id = $1 AND objective_id = $2 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, orgID, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	defer rows.Close()

	indicators := make([]*models.Indicator, 0)
	for rows.Next() {
		in := &models.Indicator{}
		if err := scanIndicator(rows, in); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, in)
	}

	return indicators, rows.Err()
}

// UpdateIndicator updates an indicator
func (r *ObjectiveRepository) UpdateIndicator(ctx context.Context, in *models.Indicator) error {
	query := `
		UPDATE indicators
		SET name = $3, frequency = $4, baseline = $5, target = $6, unit = $7, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		in.OrganizationID, in.ID, in.Name, in.Frequency, in.Baseline, in.Target, in.Unit,
	)
	if err != nil {
		return fmt.Errorf("failed to update indicator: %w", err)
	}

	return nil
}

// DeleteIndicator deletes an indicator
func (r *ObjectiveRepository) DeleteIndicator(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM indicators WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete indicator: %w", err)
	}

	return nil
}
