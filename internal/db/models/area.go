// Package models - area.go defines the geographic intervention hierarchy:
// state → district → block → gram panchayat → village. Each level is
// tenant-scoped and optionally linked to a project.
package models

import "time"

// State is the top of the geographic hierarchy
type State struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ProjectID      *string   `json:"project_id,omitempty"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// District belongs to a state
type District struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	StateID        string    `json:"state_id"`
	ProjectID      *string   `json:"project_id,omitempty"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Block belongs to a district
type Block struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	DistrictID     string    `json:"district_id"`
	ProjectID      *string   `json:"project_id,omitempty"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GramPanchayat belongs to a block
type GramPanchayat struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	BlockID        string    `json:"block_id"`
	ProjectID      *string   `json:"project_id,omitempty"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Village belongs to a gram panchayat
type Village struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	GramPanchayatID string    `json:"gram_panchayat_id"`
	ProjectID       *string   `json:"project_id,omitempty"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
