// Package models - program.go defines the Program model (m:n with projects).
package models

import "time"

// Program belongs to an organization and groups projects thematically
type Program struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
