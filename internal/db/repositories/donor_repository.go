// donor_repository.go implements DonorRepository.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// DonorRepository handles database operations for donors
type DonorRepository struct {
	db *sql.DB
}

// NewDonorRepository creates a new donor repository
func NewDonorRepository(db *sql.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

const donorColumns = `id, organization_id, name, contact_person, email, phone, created_at, updated_at`

func scanDonor(row interface{ Scan(...interface{}) error }, d *models.Donor) error {
	return row.Scan(
		&d.ID,
		&d.OrganizationID,
		&d.Name,
		&d.ContactPerson,
		&d.Email,
		&d.Phone,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
}

// Create creates a new donor
func (r *DonorRepository) Create(ctx context.Context, d *models.Donor) error {
	query := `
		INSERT INTO donors (organization_id, name, contact_person, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		d.OrganizationID, d.Name, d.ContactPerson, d.Email, d.Phone,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}

	return nil
}

// GetByID retrieves a donor by ID within an organization
func (r *DonorRepository) GetByID(ctx context.Context, orgID, id string) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE organization_id = $1 AND id = $2`

	d := &models.Donor{}
	err := scanDonor(r.db.QueryRowContext(ctx, query, orgID, id), d)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}

	return d, nil
}

// List retrieves an organization's donors
func (r *DonorRepository) List(ctx context.Context, orgID string, limit, offset int) ([]*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE organization_id = $1
		ORDER BY name LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	defer rows.Close()

	donors := make([]*models.Donor, 0)
	for rows.Next() {
		d := &models.Donor{}
		if err := scanDonor(rows, d); err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}
		donors = append(donors, d)
	}

	return donors, rows.Err()
}

// Count returns the number of an organization's donors
func (r *DonorRepository) Count(ctx context.Context, orgID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donors WHERE organization_id = $1`, orgID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count donors: %w", err)
	}

	return count, nil
}

// Update updates a donor
func (r *DonorRepository) Update(ctx context.Context, d *models.Donor) error {
	query := `
		UPDATE donors
		SET name = $3, contact_person = $4, email = $5, phone = $6, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		d.OrganizationID, d.ID, d.Name, d.ContactPerson, d.Email, d.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to update donor: %w", err)
	}

	return nil
}

// Delete deletes a donor and its project links
func (r *DonorRepository) Delete(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM donors WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete donor: %w", err)
	}

	return nil
}
