// Package models - organization.go defines the Organization tenant root and the
// Membership link binding users to an organization with a role and permission list.
package models

import "time"

// Organization lifecycle statuses
const (
	OrgStatusPending   = "PENDING"
	OrgStatusApproved  = "APPROVED"
	OrgStatusRejected  = "REJECTED"
	OrgStatusSuspended = "SUSPENDED"
)

// Organization represents a tenant. All domain data is scoped to exactly one
// organization.
type Organization struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Type               *string `json:"type,omitempty"`
	Email              *string `json:"email,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Address            *string `json:"address,omitempty"`
	Website            *string `json:"website,omitempty"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	TaxID              *string `json:"tax_id,omitempty"`
	Status             string  `json:"status"`
	// Feature flags: stored and returned, internals are out of scope
	HasPeopleBankAccess      bool      `json:"has_people_bank_access"`
	HasAssetManagementAccess bool      `json:"has_asset_management_access"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Membership roles
const (
	RoleNGOAdmin = "ngo_admin" // bypasses all permission checks within the org
	RoleMember   = "member"
)

// Permission grants a single action on a resource, e.g. {project, write}.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Membership links a user to an organization. A user's effective organization
// is the organization of their first active membership (by creation time).
type Membership struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	UserID         string       `json:"user_id"`
	Role           string       `json:"role"`
	Permissions    []Permission `json:"permissions"` // stored as JSONB
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// MembershipWithUser includes user details for member listings
type MembershipWithUser struct {
	Membership
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// MembershipWithOrg includes organization details, as resolved by the auth
// middleware when establishing the caller's tenant.
type MembershipWithOrg struct {
	Membership
	OrganizationName   string `json:"organization_name"`
	OrganizationStatus string `json:"organization_status"`
}
