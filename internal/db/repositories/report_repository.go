// report_repository.go implements ReportRepository. The approve and reject
// writes are conditional on the report still being PENDING; callers translate
// a false return into a conflict response. Rejection writes the status flip
// and the rejection comment in one transaction so neither can land alone.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ReportRepository handles database operations for reports, rejections, and
// attachments
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, organization_id, activity_id, program_id, title, unit_reported,
		status, approved_at, submitted_by, created_at, updated_at`

func scanReport(row interface{ Scan(...interface{}) error }, rep *models.Report) error {
	return row.Scan(
		&rep.ID,
		&rep.OrganizationID,
		&rep.ActivityID,
		&rep.ProgramID,
		&rep.Title,
		&rep.UnitReported,
		&rep.Status,
		&rep.ApprovedAt,
		&rep.SubmittedBy,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
}

// Create creates a new report in PENDING state
func (r *ReportRepository) Create(ctx context.Context, rep *models.Report) error {
	query := `
		INSERT INTO reports (organization_id, activity_id, program_id, title, unit_reported, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rep.OrganizationID, rep.ActivityID, rep.ProgramID, rep.Title, rep.UnitReported, rep.SubmittedBy,
	).Scan(&rep.ID, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by ID within an organization
func (r *ReportRepository) GetByID(ctx context.Context, orgID, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE organization_id = $1 AND id = $2`

	rep := &models.Report{}
	err := scanReport(r.db.QueryRowContext(ctx, query, orgID, id), rep)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return rep, nil
}

// List retrieves an organization's reports with optional status and activity
// filters
func (r *ReportRepository) List(ctx context.Context, orgID, status, activityID string, limit, offset int) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", paramIndex)
		args = append(args, status)
		paramIndex++
	}
	if activityID != "" {
		query += fmt.Sprintf(" AND activity_id = $%d", paramIndex)
		args = append(args, activityID)
		paramIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		rep := &models.Report{}
		if err := scanReport(rows, rep); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// Update updates a PENDING report's submission fields. Reports that have been
// reviewed are immutable.
func (r *ReportRepository) Update(ctx context.Context, rep *models.Report) (bool, error) {
	query := `
		UPDATE reports
		SET activity_id = $3, program_id = $4, title = $5, unit_reported = $6, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		rep.OrganizationID, rep.ID, rep.ActivityID, rep.ProgramID, rep.Title, rep.UnitReported,
		models.ReportStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}

	return affected > 0, nil
}

// Delete deletes a report and its rejections and attachments
func (r *ReportRepository) Delete(ctx context.Context, orgID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return nil
}

// Approve transitions a PENDING report to APPROVED and stamps approved_at.
// Returns (false, nil) when the report is no longer PENDING.
func (r *ReportRepository) Approve(ctx context.Context, orgID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $3, approved_at = NOW(), updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = $4
	`, orgID, id, models.ReportStatusApproved, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to approve report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check approval result: %w", err)
	}

	return affected > 0, nil
}

// Reject transitions a PENDING report to REJECTED and records the reviewer's
// comment, atomically. Returns (false, nil) when the report is no longer
// PENDING; in that case nothing is written.
func (r *ReportRepository) Reject(ctx context.Context, orgID, id, reviewerID, comment string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE reports
		SET status = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = $2 AND status = $4
	`, orgID, id, models.ReportStatusRejected, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to reject report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rejection result: %w", err)
	}
	if affected == 0 {
		return false, nil // Already reviewed
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_rejections (report_id, comment, rejected_by)
		VALUES ($1, $2, $3)
	`, id, comment, reviewerID)
	if err != nil {
		return false, fmt.Errorf("failed to record rejection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit rejection: %w", err)
	}

	return true, nil
}

// ListRejections retrieves a report's rejection records, newest first
func (r *ReportRepository) ListRejections(ctx context.Context, reportID string) ([]*models.ReportRejection, error) {
	query := `SELECT id, report_id, comment, rejected_by, created_at
		FROM report_rejections WHERE report_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejections: %w", err)
	}
	defer rows.Close()

	rejections := make([]*models.ReportRejection, 0)
	for rows.Next() {
		rej := &models.ReportRejection{}
		err := rows.Scan(&rej.ID, &rej.ReportID, &rej.Comment, &rej.RejectedBy, &rej.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		rejections = append(rejections, rej)
	}

	return rejections, rows.Err()
}

// === Attachments ===

const attachmentColumns = `id, report_id, file_name, storage_key, checksum, size_bytes,
		content_type, uploaded_by, created_at`

func scanAttachment(row interface{ Scan(...interface{}) error }, a *models.ReportAttachment) error {
	return row.Scan(
		&a.ID,
		&a.ReportID,
		&a.FileName,
		&a.StorageKey,
		&a.Checksum,
		&a.SizeBytes,
		&a.ContentType,
		&a.UploadedBy,
		&a.CreatedAt,
	)
}

// CreateAttachment records an uploaded file against a report
func (r *ReportRepository) CreateAttachment(ctx context.Context, a *models.ReportAttachment) error {
	query := `
		INSERT INTO report_attachments (report_id, file_name, storage_key, checksum, size_bytes, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.ReportID, a.FileName, a.StorageKey, a.Checksum, a.SizeBytes, a.ContentType, a.UploadedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// GetAttachmentByID retrieves an attachment by ID, verifying it belongs to the
// given report
func (r *ReportRepository) GetAttachmentByID(ctx context.Context, reportID, id string) (*models.ReportAttachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM report_attachments WHERE report_id = $1 AND id = $2`

	a := &models.ReportAttachment{}
	err := scanAttachment(r.db.QueryRowContext(ctx, query, reportID, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return a, nil
}

// ListAttachments retrieves a report's attachments
func (r *ReportRepository) ListAttachments(ctx context.Context, reportID string) ([]*models.ReportAttachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM report_attachments WHERE report_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]*models.ReportAttachment, 0)
	for rows.Next() {
		a := &models.ReportAttachment{}
		if err := scanAttachment(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}

	return attachments, rows.Err()
}

// DeleteAttachment deletes an attachment record
func (r *ReportRepository) DeleteAttachment(ctx context.Context, reportID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM report_attachments WHERE report_id = $1 AND id = $2`, reportID, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return nil
}
