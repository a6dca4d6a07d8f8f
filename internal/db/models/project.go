// Package models - project.go defines the Project model and its status enum.
// Transitions to ACTIVE are gated by the organization's subscription plan.
package models

import "time"

// Project statuses
const (
	ProjectStatusDraft     = "DRAFT"
	ProjectStatusPlanned   = "PLANNED"
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusOnHold    = "ON_HOLD"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusCancelled = "CANCELLED"
)

// ValidProjectStatus reports whether s is one of the six project statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusPlanned, ProjectStatusActive,
		ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project belongs to an organization and carries a lifecycle status
type Project struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	Status         string     `json:"status"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Budget         *float64   `json:"budget,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
