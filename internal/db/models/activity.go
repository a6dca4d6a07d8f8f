// Package models - activity.go defines Interventions, SubInterventions, and
// Activities. Activities are the unit against which reports are filed.
package models

import "time"

// Intervention is a thematic category of work (e.g. "Livelihood")
type Intervention struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubIntervention is a finer-grained category under an intervention
type SubIntervention struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	InterventionID string    `json:"intervention_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Activity belongs to a project and optionally to an objective and an
// intervention/sub-intervention. TargetUnit is the planned quantity that
// approved reports are measured against.
type Activity struct {
	ID                string     `json:"id"`
	OrganizationID    string     `json:"organization_id"`
	ProjectID         string     `json:"project_id"`
	ObjectiveID       *string    `json:"objective_id,omitempty"`
	InterventionID    *string    `json:"intervention_id,omitempty"`
	SubInterventionID *string    `json:"sub_intervention_id,omitempty"`
	Name              string     `json:"name"`
	Type              string     `json:"type"` // e.g. "Training"
	TargetUnit        *float64   `json:"target_unit,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
