// Package models - objective.go defines Objectives and their measurement
// Indicators. An objective belongs to exactly one of {project, program}, or to
// the organization itself when both parents are nil (enforced by a CHECK
// constraint and validated in the handler).
package models

import "time"

// Objective is a result statement attached to a project, a program, or the
// organization.
type Objective struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ProjectID      *string   `json:"project_id,omitempty"`
	ProgramID      *string   `json:"program_id,omitempty"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Indicator carries measurement metadata for an objective
type Indicator struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ObjectiveID    string    `json:"objective_id"`
	Name           string    `json:"name"`
	Frequency      *string   `json:"frequency,omitempty"`
	Baseline       *float64  `json:"baseline,omitempty"`
	Target         *float64  `json:"target,omitempty"`
	Unit           *string   `json:"unit,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
