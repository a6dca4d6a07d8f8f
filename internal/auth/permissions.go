// Package auth - permissions.go defines resource and action constants for all
// platform resources and provides HasPermission for membership permission
// checks. The ngo_admin role bypasses per-resource checks entirely; holding
// "write" or "admin" on a resource grants every action on that resource, but
// nothing on any other resource.
package auth

import (
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// Resource names permission checks operate on
const (
	ResourceProjects      = "projects"
	ResourcePrograms      = "programs"
	ResourceObjectives    = "objectives"
	ResourceActivities    = "activities"
	ResourceReports       = "reports"
	ResourceAreas         = "areas"
	ResourceDonors        = "donors"
	ResourceMembers       = "members"
	ResourceSubscriptions = "subscriptions"
	ResourceOrganization  = "organization"
)

// Actions a membership permission can grant
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"

	// ActionWrite and ActionAdmin grant every action on their resource
	ActionWrite = "write"
	ActionAdmin = "admin"
)

// AllResources returns all valid resource names
func AllResources() []string {
	return []string{
		ResourceProjects,
		ResourcePrograms,
		ResourceObjectives,
		ResourceActivities,
		ResourceReports,
		ResourceAreas,
		ResourceDonors,
		ResourceMembers,
		ResourceSubscriptions,
		ResourceOrganization,
	}
}

// AllActions returns all valid action names
func AllActions() []string {
	return []string{
		ActionRead,
		ActionCreate,
		ActionUpdate,
		ActionDelete,
		ActionApprove,
		ActionWrite,
		ActionAdmin,
	}
}

// ValidatePermissions checks that every permission in the list names a known
// resource and action
func ValidatePermissions(perms []models.Permission) error {
	validResources := make(map[string]bool)
	for _, r := range AllResources() {
		validResources[r] = true
	}
	validActions := make(map[string]bool)
	for _, a := range AllActions() {
		validActions[a] = true
	}

	for _, p := range perms {
		if !validResources[p.Resource] {
			return fmt.Errorf("invalid resource: %s", p.Resource)
		}
		if !validActions[p.Action] {
			return fmt.Errorf("invalid action: %s", p.Action)
		}
	}

	return nil
}

// actionImplies maps each grantable action to the set of actions it
// satisfies. write and admin cover every action on their resource.
var actionImplies = buildActionImplications()

func buildActionImplications() map[string]map[string]bool {
	implied := make(map[string]map[string]bool, len(AllActions()))
	for _, granted := range AllActions() {
		implied[granted] = map[string]bool{granted: true}
	}
	for _, super := range []string{ActionWrite, ActionAdmin} {
		for _, a := range AllActions() {
			implied[super][a] = true
		}
	}
	return implied
}

// HasPermission checks whether a membership grants an action on a resource.
// The ngo_admin role implies every permission.
func HasPermission(role string, perms []models.Permission, resource, action string) bool {
	if role == models.RoleNGOAdmin {
		return true
	}

	for _, p := range perms {
		if p.Resource == resource && actionImplies[p.Action][action] {
			return true
		}
	}

	return false
}

// HasAnyPermission checks whether a membership grants the action on at least
// one of the resources
func HasAnyPermission(role string, perms []models.Permission, resources []string, action string) bool {
	for _, resource := range resources {
		if HasPermission(role, perms, resource, action) {
			return true
		}
	}
	return false
}
