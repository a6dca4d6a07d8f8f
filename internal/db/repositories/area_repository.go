// area_repository.go implements AreaRepository for the five-level geographic
// hierarchy. Each level is tenant-scoped; deleting a parent cascades to its
// children at the schema level.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// AreaRepository handles database operations for intervention areas
type AreaRepository struct {
	db *sql.DB
}

// NewAreaRepository creates a new area repository
func NewAreaRepository(db *sql.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// === States ===

// CreateState creates a new state
func (r *AreaRepository) CreateState(ctx context.Context, s *models.State) error {
	query := `
		INSERT INTO states (organization_id, project_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, s.OrganizationID, s.ProjectID, s.Name).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create state: %w", err)
	}

	return nil
}

// GetStateByID retrieves a state by ID within an organization
func (r *AreaRepository) GetStateByID(ctx context.Context, orgID, id string) (*models.State, error) {
	query := `SELECT id, organization_id, project_id, name, created_at, updated_at
		FROM states WHERE organization_id = $1 AND id = $2`

	s := &models.State{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&s.ID, &s.OrganizationID, &s.ProjectID, &s.Name, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	return s, nil
}

// ListStates retrieves an organization's states
func (r *AreaRepository) ListStates(ctx context.Context, orgID string) ([]*models.State, error) {
	query := `SELECT id, organization_id, project_id, name, created_at, updated_at
		FROM states WHERE organization_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	states := make([]*models.State, 0)
	for rows.Next() {
		s := &models.State{}
		err := rows.Scan(&s.ID, &s.OrganizationID, &s.ProjectID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, s)
	}

	return states, rows.Err()
}

// DeleteState deletes a state and all areas beneath it
func (r *AreaRepository) DeleteState(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM states WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}

// === Districts ===

// CreateDistrict creates a new district under a state
func (r *AreaRepository) CreateDistrict(ctx context.Context, d *models.District) error {
	query := `
		INSERT INTO districts (organization_id, state_id, project_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, d.OrganizationID, d.StateID, d.ProjectID, d.Name).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create district: %w", err)
	}

	return nil
}

// GetDistrictByID retrieves a district by ID within an organization
func (r *AreaRepository) GetDistrictByID(ctx context.Context, orgID, id string) (*models.District, error) {
	query := `SELECT id, organization_id, state_id, project_id, name, created_at, updated_at
		FROM districts WHERE organization_id = $1 AND id = $2`

	d := &models.District{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&d.ID, &d.OrganizationID, &d.StateID, &d.ProjectID, &d.Name, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get district: %w", err)
	}

	return d, nil
}

// ListDistricts retrieves the districts under a state
func (r *AreaRepository) ListDistricts(ctx context.Context, orgID, stateID string) ([]*models.District, error) {
	query := `SELECT id, organization_id, state_id, project_id, name, created_at, updated_at
		FROM districts WHERE organization_id = $1 AND state_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID, stateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	districts := make([]*models.District, 0)
	for rows.Next() {
		d := &models.District{}
		err := rows.Scan(&d.ID, &d.OrganizationID, &d.StateID, &d.ProjectID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		districts = append(districts, d)
	}

	return districts, rows.Err()
}

// DeleteDistrict deletes a district and all areas beneath it
func (r *AreaRepository) DeleteDistrict(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM districts WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete district: %w", err)
	}

	return nil
}

// === Blocks ===

// CreateBlock creates a new block under a district
func (r *AreaRepository) CreateBlock(ctx context.Context, b *models.Block) error {
	query := `
		INSERT INTO blocks (organization_id, district_id, project_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, b.OrganizationID, b.DistrictID, b.ProjectID, b.Name).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	return nil
}

// GetBlockByID retrieves a block by ID within an organization
func (r *AreaRepository) GetBlockByID(ctx context.Context, orgID, id string) (*models.Block, error) {
	query := `SELECT id, organization_id, district_id, project_id, name, created_at, updated_at
		FROM blocks WHERE organization_id = $1 AND id = $2`

	b := &models.Block{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&b.ID, &b.OrganizationID, &b.DistrictID, &b.ProjectID, &b.Name, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}

	return b, nil
}

// ListBlocks retrieves the blocks under a district
func (r *AreaRepository) ListBlocks(ctx context.Context, orgID, districtID string) ([]*models.Block, error) {
	query := `SELECT id, organization_id, district_id, project_id, name, created_at, updated_at
		FROM blocks WHERE organization_id = $1 AND district_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID, districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]*models.Block, 0)
	for rows.Next() {
		b := &models.Block{}
		err := rows.Scan(&b.ID, &b.OrganizationID, &b.DistrictID, &b.ProjectID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}

	return blocks, rows.Err()
}

// DeleteBlock deletes a block and all areas beneath it
func (r *AreaRepository) DeleteBlock(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}

	return nil
}

// === Gram Panchayats ===

// CreateGramPanchayat creates a new gram panchayat under a block
func (r *AreaRepository) CreateGramPanchayat(ctx context.Context, gp *models.GramPanchayat) error {
	query := `
		INSERT INTO gram_panchayats (organization_id, block_id, project_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, gp.OrganizationID, gp.BlockID, gp.ProjectID, gp.Name).
		Scan(&gp.ID, &gp.CreatedAt, &gp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create gram panchayat: %w", err)
	}

	return nil
}

// GetGramPanchayatByID retrieves a gram panchayat by ID within an organization
func (r *AreaRepository) GetGramPanchayatByID(ctx context.Context, orgID, id string) (*models.GramPanchayat, error) {
	query := `SELECT id, organization_id, block_id, project_id, name, created_at, updated_at
		FROM gram_panchayats WHERE organization_id = $1 AND id = $2`

	gp := &models.GramPanchayat{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&gp.ID, &gp.OrganizationID, &gp.BlockID, &gp.ProjectID, &gp.Name, &gp.CreatedAt, &gp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gram panchayat: %w", err)
	}

	return gp, nil
}

// ListGramPanchayats retrieves the gram panchayats under a block
func (r *AreaRepository) ListGramPanchayats(ctx context.Context, orgID, blockID string) ([]*models.GramPanchayat, error) {
	query := `SELECT id, organization_id, block_id, project_id, name, created_at, updated_at
		FROM gram_panchayats WHERE organization_id = $1 AND block_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gram panchayats: %w", err)
	}
	defer rows.Close()

	gps := make([]*models.GramPanchayat, 0)
	for rows.Next() {
		gp := &models.GramPanchayat{}
		err := rows.Scan(&gp.ID, &gp.OrganizationID, &gp.BlockID, &gp.ProjectID, &gp.Name, &gp.CreatedAt, &gp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gram panchayat: %w", err)
		}
		gps = append(gps, gp)
	}

	return gps, rows.Err()
}

// DeleteGramPanchayat deletes a gram panchayat and its villages
func (r *AreaRepository) DeleteGramPanchayat(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM gram_panchayats WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete gram panchayat: %w", err)
	}

	return nil
}

// === Villages ===

// CreateVillage creates a new village under a gram panchayat
func (r *AreaRepository) CreateVillage(ctx context.Context, v *models.Village) error {
	query := `
		INSERT INTO villages (organization_id, gram_panchayat_id, project_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, v.OrganizationID, v.GramPanchayatID, v.ProjectID, v.Name).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create village: %w", err)
	}

	return nil
}

// ListVillages retrieves the villages under a gram panchayat
func (r *AreaRepository) ListVillages(ctx context.Context, orgID, gramPanchayatID string) ([]*models.Village, error) {
	query := `SELECT id, organization_id, gram_panchayat_id, project_id, name, created_at, updated_at
		FROM villages WHERE organization_id = $1 AND gram_panchayat_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, orgID, gramPanchayatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list villages: %w", err)
	}
	defer rows.Close()

	villages := make([]*models.Village, 0)
	for rows.Next() {
		v := &models.Village{}
		err := rows.Scan(&v.ID, &v.OrganizationID, &v.GramPanchayatID, &v.ProjectID, &v.Name, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan village: %w", err)
		}
		villages = append(villages, v)
	}

	return villages, rows.Err()
}

// DeleteVillage deletes a village
func (r *AreaRepository) DeleteVillage(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM villages WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete village: %w", err)
	}

	return nil
}
