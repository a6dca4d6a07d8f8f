// activity_repository.go implements ActivityRepository: interventions,
// sub-interventions, and project activities.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ActivityRepository handles database operations for the activity taxonomy
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// === Interventions ===

// CreateIntervention creates a new intervention
func (r *ActivityRepository) CreateIntervention(ctx context.Context, in *models.Intervention) error {
	query := `
		INSERT INTO interventions (organization_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, in.OrganizationID, in.Name, in.Description).
		Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create intervention: %w", err)
	}

	return nil
}

// GetInterventionByID retrieves an intervention by ID within an organization
func (r *ActivityRepository) GetInterventionByID(ctx context.Context, orgID, id string) (*models.Intervention, error) {
	query := `SELECT id, organization_id, name, description, created_at, updated_at
		FROM interventions WHERE organization_id = $1 AND id = $2`

	in := &models.Intervention{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&in.ID, &in.OrganizationID, &in.Name, &in.Description, &in.CreatedAt, &in.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intervention: %w", err)
	}

	return in, nil
}

// ListInterventions retrieves an organization's interventions
func (r *ActivityRepository) ListInterventions(ctx context.Context, orgID string) ([]*models.Intervention, error) {
	query := `SELECT id, organization_id, name, description, created_at, updated_at
		FROM interventions WHERE organization_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interventions: %w", err)
	}
	defer rows.Close()

	interventions := make([]*models.Intervention, 0)
	for rows.Next() {
		in := &models.Intervention{}
		err := rows.Scan(&in.ID, &in.OrganizationID, &in.Name, &in.Description, &in.CreatedAt, &in.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intervention: %w", err)
		}
		interventions = append(interventions, in)
	}

	return interventions, rows.Err()
}

// UpdateIntervention updates an intervention
func (r *ActivityRepository) UpdateIntervention(ctx context.Context, in *models.Intervention) error {
	query := `UPDATE interventions SET name = $3, description = $4, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query, in.OrganizationID, in.ID, in.Name, in.Description)
	if err != nil {
		return fmt.Errorf("failed to update intervention: %w", err)
	}

	return nil
}

// DeleteIntervention deletes an intervention and its sub-interventions
func (r *ActivityRepository) DeleteIntervention(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM interventions WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete intervention: %w", err)
	}

	return nil
}

// === Sub-interventions ===

// CreateSubIntervention creates a new sub-intervention under an intervention
func (r *ActivityRepository) CreateSubIntervention(ctx context.Context, s *models.SubIntervention) error {
	query := `
		INSERT INTO sub_interventions (organization_id, intervention_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, s.OrganizationID, s.InterventionID, s.Name).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sub-intervention: %w", err)
	}

	return nil
}

// ListSubInterventions retrieves the sub-interventions under an intervention
func (r *ActivityRepository) ListSubInterventions(ctx context.Context, orgID, interventionID string) ([]*models.SubIntervention, error) {
	query := `SELECT id, organization_id, intervention_id, name, created_at, updated_at
		FROM sub_interventions WHERE organization_id = $1 AND intervention_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID, interventionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-interventions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.SubIntervention, 0)
	for rows.Next() {
		s := &models.SubIntervention{}
		err := rows.Scan(&s.ID, &s.OrganizationID, &s.InterventionID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub-intervention: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// DeleteSubIntervention deletes a sub-intervention
func (r *ActivityRepository) DeleteSubIntervention(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sub_interventions WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete sub-intervention: %w", err)
	}

	return nil
}

// === Activities ===

const activityColumns = `id, organization_id, project_id, objective_id, intervention_id,
		sub_intervention_id, name, type, target_unit, start_date, end_date, status,
		created_at, updated_at`

func scanActivity(row interface{ Scan(...interface{}) error }, a *models.Activity) error {
	return row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.ProjectID,
		&a.ObjectiveID,
		&a.InterventionID,
		&a.SubInterventionID,
		&a.Name,
		&a.Type,
		&a.TargetUnit,
		&a.StartDate,
		&a.EndDate,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// CreateActivity creates a new activity under a project
func (r *ActivityRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (organization_id, project_id, objective_id, intervention_id,
		                        sub_intervention_id, name, type, target_unit, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.OrganizationID, a.ProjectID, a.ObjectiveID, a.InterventionID,
		a.SubInterventionID, a.Name, a.Type, a.TargetUnit, a.StartDate, a.EndDate, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// GetActivityByID retrieves an activity by ID within an organization
func (r *ActivityRepository) GetActivityByID(ctx context.Context, orgID, id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE organization_id = $1 AND id = $2`

	a := &models.Activity{}
	err := scanActivity(r.db.QueryRowContext(ctx, query, orgID, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return a, nil
}

// ListActivities retrieves an organization's activities, optionally filtered by project
func (r *ActivityRepository) ListActivities(ctx context.Context, orgID, projectID string, limit, offset int) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if projectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", paramIndex)
		args = append(args, projectID)
		paramIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		a := &models.Activity{}
		if err := scanActivity(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

// UpdateActivity updates an activity
func (r *ActivityRepository) UpdateActivity(ctx context.Context, a *models.Activity) error {
	query := `
		UPDATE activities
		SET objective_id = $3, intervention_id = $4, sub_intervention_id = $5,
		    name = $6, type = $7, target_unit = $8, start_date = $9, end_date = $10,
		    status = $11, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		a.OrganizationID, a.ID, a.ObjectiveID, a.InterventionID, a.SubInterventionID,
		a.Name, a.Type, a.TargetUnit, a.StartDate, a.EndDate, a.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	return nil
}

// DeleteActivity deletes an activity
func (r *ActivityRepository) DeleteActivity(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	return nil
}
