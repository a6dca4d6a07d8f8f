// subscription_repository.go implements SubscriptionRepository: the plan
// catalog, per-organization subscriptions, and the request/review workflow.
// At most one subscription per organization is active at a time, enforced by a
// partial unique index, so approving a request deactivates any prior
// subscription in the same transaction.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// SubscriptionRepository handles database operations for plans and subscriptions
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// === Plan Catalog ===

const planColumns = `id, name, type, description, price, duration_in_days, projects_allowed, created_at, updated_at`

func scanPlan(row interface{ Scan(...interface{}) error }, p *models.SubscriptionPlan) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Description,
		&p.Price,
		&p.DurationInDays,
		&p.ProjectsAllowed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// CreatePlan creates a new subscription plan
func (r *SubscriptionRepository) CreatePlan(ctx context.Context, p *models.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (name, type, description, price, duration_in_days, projects_allowed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Type, p.Description, p.Price, p.DurationInDays, p.ProjectsAllowed,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetPlanByID retrieves a subscription plan by ID
func (r *SubscriptionRepository) GetPlanByID(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`

	p := &models.SubscriptionPlan{}
	err := scanPlan(r.db.QueryRowContext(ctx, query, id), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return p, nil
}

// GetPlanByType retrieves a subscription plan by its unique type
func (r *SubscriptionRepository) GetPlanByType(ctx context.Context, planType string) (*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE type = $1`

	p := &models.SubscriptionPlan{}
	err := scanPlan(r.db.QueryRowContext(ctx, query, planType), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return p, nil
}

// ListPlans retrieves all subscription plans
func (r *SubscriptionRepository) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans ORDER BY price ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]*models.SubscriptionPlan, 0)
	for rows.Next() {
		p := &models.SubscriptionPlan{}
		if err := scanPlan(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// UpdatePlan updates a subscription plan
func (r *SubscriptionRepository) UpdatePlan(ctx context.Context, p *models.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans
		SET name = $2, type = $3, description = $4, price = $5,
		    duration_in_days = $6, projects_allowed = $7, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Type, p.Description, p.Price, p.DurationInDays, p.ProjectsAllowed,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return nil
}

// DeletePlan deletes a subscription plan
func (r *SubscriptionRepository) DeletePlan(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	return nil
}

// === Subscriptions ===

// GetActiveSubscription retrieves an organization's current subscription with
// its plan. Only subscriptions that are both flagged active and unexpired
// count. Returns nil when the organization has no usable subscription.
func (r *SubscriptionRepository) GetActiveSubscription(ctx context.Context, orgID string) (*models.ActiveSubscription, error) {
	query := `
		SELECT s.id, s.organization_id, s.plan_id, s.start_date, s.end_date,
		       s.is_active, s.notified_at, s.created_at, s.updated_at,
		       p.id, p.name, p.type, p.description, p.price, p.duration_in_days,
		       p.projects_allowed, p.created_at, p.updated_at
		FROM organization_subscriptions s
		INNER JOIN subscription_plans p ON s.plan_id = p.id
		WHERE s.organization_id = $1 AND s.is_active AND s.end_date > NOW()
		ORDER BY s.end_date DESC
		LIMIT 1
	`

	sub := &models.ActiveSubscription{}
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(
		&sub.ID,
		&sub.OrganizationID,
		&sub.PlanID,
		&sub.StartDate,
		&sub.EndDate,
		&sub.IsActive,
		&sub.NotifiedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&sub.Plan.ID,
		&sub.Plan.Name,
		&sub.Plan.Type,
		&sub.Plan.Description,
		&sub.Plan.Price,
		&sub.Plan.DurationInDays,
		&sub.Plan.ProjectsAllowed,
		&sub.Plan.CreatedAt,
		&sub.Plan.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return sub, nil
}

// ListSubscriptions retrieves an organization's subscription history, newest first
func (r *SubscriptionRepository) ListSubscriptions(ctx context.Context, orgID string) ([]*models.OrganizationSubscription, error) {
	query := `
		SELECT id, organization_id, plan_id, start_date, end_date, is_active,
		       notified_at, created_at, updated_at
		FROM organization_subscriptions
		WHERE organization_id = $1
		ORDER BY start_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.OrganizationSubscription, 0)
	for rows.Next() {
		s := &models.OrganizationSubscription{}
		err := rows.Scan(
			&s.ID, &s.OrganizationID, &s.PlanID, &s.StartDate, &s.EndDate,
			&s.IsActive, &s.NotifiedAt, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// === Request / Review Workflow ===

const requestColumns = `id, organization_id, plan_id, requested_by, status, review_comment, reviewed_by, requested_at, reviewed_at`

func scanRequest(row interface{ Scan(...interface{}) error }, req *models.SubscriptionRequest) error {
	return row.Scan(
		&req.ID,
		&req.OrganizationID,
		&req.PlanID,
		&req.RequestedBy,
		&req.Status,
		&req.ReviewComment,
		&req.ReviewedBy,
		&req.RequestedAt,
		&req.ReviewedAt,
	)
}

// CreateRequest records an organization's request for a plan
func (r *SubscriptionRepository) CreateRequest(ctx context.Context, req *models.SubscriptionRequest) error {
	query := `
		INSERT INTO subscription_requests (organization_id, plan_id, requested_by)
		VALUES ($1, $2, $3)
		RETURNING id, status, requested_at
	`

	err := r.db.QueryRowContext(ctx, query, req.OrganizationID, req.PlanID, req.RequestedBy).
		Scan(&req.ID, &req.Status, &req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription request: %w", err)
	}

	return nil
}

// GetRequestByID retrieves a subscription request by ID
func (r *SubscriptionRepository) GetRequestByID(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM subscription_requests WHERE id = $1`

	req := &models.SubscriptionRequest{}
	err := scanRequest(r.db.QueryRowContext(ctx, query, id), req)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription request: %w", err)
	}

	return req, nil
}

// ListRequests retrieves subscription requests, optionally filtered by status
// and/or organization
func (r *SubscriptionRepository) ListRequests(ctx context.Context, status, orgID string, limit, offset int) ([]*models.SubscriptionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM subscription_requests`
	args := []interface{}{}
	paramIndex := 1

	where := ""
	if status != "" {
		where = fmt.Sprintf(" WHERE status = $%d", paramIndex)
		args = append(args, status)
		paramIndex++
	}
	if orgID != "" {
		if where == "" {
			where = fmt.Sprintf(" WHERE organization_id = $%d", paramIndex)
		} else {
			where += fmt.Sprintf(" AND organization_id = $%d", paramIndex)
		}
		args = append(args, orgID)
		paramIndex++
	}

	query += where + fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]*models.SubscriptionRequest, 0)
	for rows.Next() {
		req := &models.SubscriptionRequest{}
		if err := scanRequest(rows, req); err != nil {
			return nil, fmt.Errorf("failed to scan subscription request: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

// ApproveRequest marks a pending request approved and provisions the
// subscription: any currently active subscription for the organization is
// deactivated and a new one is inserted running from now for the plan's
// duration. All three writes happen in one transaction. Returns (false, nil)
// when the request is not in PENDING state.
func (r *SubscriptionRepository) ApproveRequest(ctx context.Context, requestID, reviewerID string, plan *models.SubscriptionPlan, orgID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE subscription_requests
		SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1 AND status = $4
	`, requestID, models.SubscriptionRequestApproved, reviewerID, models.SubscriptionRequestPending)
	if err != nil {
		return false, fmt.Errorf("failed to approve subscription request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check approval result: %w", err)
	}
	if affected == 0 {
		return false, nil // Already reviewed
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE organization_subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE organization_id = $1 AND is_active
	`, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate previous subscription: %w", err)
	}

	endDate := time.Now().AddDate(0, 0, plan.DurationInDays)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO organization_subscriptions (organization_id, plan_id, start_date, end_date, is_active)
		VALUES ($1, $2, NOW(), $3, TRUE)
	`, orgID, plan.ID, endDate)
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit approval: %w", err)
	}

	return true, nil
}

// RejectRequest marks a pending request rejected with the reviewer's comment.
// Returns (false, nil) when the request is not in PENDING state.
func (r *SubscriptionRepository) RejectRequest(ctx context.Context, requestID, reviewerID, comment string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE subscription_requests
		SET status = $2, review_comment = $3, reviewed_by = $4, reviewed_at = NOW()
		WHERE id = $1 AND status = $5
	`, requestID, models.SubscriptionRequestRejected, comment, reviewerID, models.SubscriptionRequestPending)
	if err != nil {
		return false, fmt.Errorf("failed to reject subscription request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rejection result: %w", err)
	}

	return affected > 0, nil
}

// === Expiry Handling ===

// DeactivateExpired flips the active flag off for subscriptions past their end
// date and returns how many were deactivated.
func (r *SubscriptionRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE organization_subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND end_date <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired subscriptions: %w", err)
	}

	return result.RowsAffected()
}

// ListExpiring returns active subscriptions ending within the warning window
// that have not yet been notified.
func (r *SubscriptionRepository) ListExpiring(ctx context.Context, within time.Duration) ([]*models.OrganizationSubscription, error) {
	query := `
		SELECT id, organization_id, plan_id, start_date, end_date, is_active,
		       notified_at, created_at, updated_at
		FROM organization_subscriptions
		WHERE is_active
		  AND notified_at IS NULL
		  AND end_date > NOW()
		  AND end_date <= $1
		ORDER BY end_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now().Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.OrganizationSubscription, 0)
	for rows.Next() {
		s := &models.OrganizationSubscription{}
		err := rows.Scan(
			&s.ID, &s.OrganizationID, &s.PlanID, &s.StartDate, &s.EndDate,
			&s.IsActive, &s.NotifiedAt, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// MarkNotified records that an expiry warning was sent for a subscription
func (r *SubscriptionRepository) MarkNotified(ctx context.Context, subscriptionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE organization_subscriptions
		SET notified_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to mark subscription notified: %w", err)
	}

	return nil
}
