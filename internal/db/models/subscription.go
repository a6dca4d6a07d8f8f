// Package models - subscription.go defines the plan catalog, per-organization
// subscription rows, and the upgrade-request workflow records.
package models

import "time"

// SubscriptionPlan is a catalog entry. Immutable reference data from the
// tenant's perspective; managed by platform admins.
type SubscriptionPlan struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	DurationInDays int     `json:"duration_in_days"`
	// ProjectsAllowed is the maximum number of simultaneously ACTIVE projects;
	// nil means unlimited.
	ProjectsAllowed *int      `json:"projects_allowed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrganizationSubscription links an organization to a plan for a date range.
// At most one row per organization has IsActive set (partial unique index).
type OrganizationSubscription struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	PlanID         string    `json:"plan_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	IsActive       bool      `json:"is_active"`
	// NotifiedAt is set once the expiry warning email has been sent, so each
	// subscription is warned at most once.
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ActiveSubscription is a subscription row joined with its plan, as consumed
// by the plan-gating checks.
type ActiveSubscription struct {
	OrganizationSubscription
	Plan SubscriptionPlan `json:"plan"`
}

// Subscription request statuses
const (
	SubscriptionRequestPending  = "PENDING"
	SubscriptionRequestApproved = "APPROVED"
	SubscriptionRequestRejected = "REJECTED"
)

// SubscriptionRequest is a tenant's request for a (new) plan awaiting
// platform-admin review.
type SubscriptionRequest struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	PlanID         string     `json:"plan_id"`
	RequestedBy    string     `json:"requested_by"`
	Status         string     `json:"status"`
	ReviewComment  *string    `json:"review_comment,omitempty"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}
