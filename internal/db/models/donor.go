// Package models - donor.go defines Donors and their funded-project links.
package models

import "time"

// Donor belongs to an organization
type Donor struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	ContactPerson  *string   `json:"contact_person,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProjectDonor links a donor to a funded project with the committed amount
type ProjectDonor struct {
	ProjectID string  `json:"project_id"`
	DonorID   string  `json:"donor_id"`
	Amount    float64 `json:"amount"`
}

// ProjectDonorDetail is a donor joined with the amount committed to one project
type ProjectDonorDetail struct {
	Donor
	Amount float64 `json:"amount"`
}
