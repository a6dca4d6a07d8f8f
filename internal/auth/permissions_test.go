package auth

import (
	"testing"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

func perms(pairs ...[2]string) []models.Permission {
	out := make([]models.Permission, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.Permission{Resource: p[0], Action: p[1]})
	}
	return out
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		perms    []models.Permission
		resource string
		action   string
		want     bool
	}{
		// Exact match
		{"exact match reports:read", models.RoleMember, perms([2]string{ResourceReports, ActionRead}), ResourceReports, ActionRead, true},
		{"exact match projects:approve", models.RoleMember, perms([2]string{ResourceProjects, ActionApprove}), ResourceProjects, ActionApprove, true},
		// ngo_admin bypasses per-resource grants
		{"ngo_admin grants reports:approve with no perms", models.RoleNGOAdmin, nil, ResourceReports, ActionApprove, true},
		{"ngo_admin grants members:delete with no perms", models.RoleNGOAdmin, nil, ResourceMembers, ActionDelete, true},
		// write grants every action on its resource
		{"reports:write grants reports:read", models.RoleMember, perms([2]string{ResourceReports, ActionWrite}), ResourceReports, ActionRead, true},
		{"reports:write grants reports:approve", models.RoleMember, perms([2]string{ResourceReports, ActionWrite}), ResourceReports, ActionApprove, true},
		{"reports:write grants reports:delete", models.RoleMember, perms([2]string{ResourceReports, ActionWrite}), ResourceReports, ActionDelete, true},
		{"projects:admin grants projects:update", models.RoleMember, perms([2]string{ResourceProjects, ActionAdmin}), ResourceProjects, ActionUpdate, true},
		// write does NOT cross resources
		{"reports:write does not grant projects:read", models.RoleMember, perms([2]string{ResourceReports, ActionWrite}), ResourceProjects, ActionRead, false},
		{"projects:write does not grant donors:update", models.RoleMember, perms([2]string{ResourceProjects, ActionWrite}), ResourceDonors, ActionUpdate, false},
		// No match
		{"empty perms grants nothing", models.RoleMember, nil, ResourceReports, ActionRead, false},
		{"read does not imply update", models.RoleMember, perms([2]string{ResourceReports, ActionRead}), ResourceReports, ActionUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasPermission(tt.role, tt.perms, tt.resource, tt.action)
			if got != tt.want {
				t.Errorf("HasPermission(%q, %v, %q, %q) = %v, want %v",
					tt.role, tt.perms, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestActionImplications(t *testing.T) {
	for _, granted := range AllActions() {
		if !actionImplies[granted][granted] {
			t.Errorf("%s should imply itself", granted)
		}
	}
	for _, super := range []string{ActionWrite, ActionAdmin} {
		for _, a := range AllActions() {
			if !actionImplies[super][a] {
				t.Errorf("%s should imply %s", super, a)
			}
		}
	}
	for _, narrow := range []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionApprove} {
		for _, a := range AllActions() {
			if a != narrow && actionImplies[narrow][a] {
				t.Errorf("%s should not imply %s", narrow, a)
			}
		}
	}
}

func TestValidatePermissions(t *testing.T) {
	tests := []struct {
		name    string
		perms   []models.Permission
		wantErr bool
	}{
		{"empty list", nil, false},
		{"single valid", perms([2]string{ResourceProjects, ActionRead}), false},
		{"multiple valid", perms(
			[2]string{ResourceReports, ActionApprove},
			[2]string{ResourceDonors, ActionWrite},
		), false},
		{"invalid resource", perms([2]string{"widgets", ActionRead}), true},
		{"invalid action", perms([2]string{ResourceProjects, "transmogrify"}), true},
		{"empty strings", perms([2]string{"", ""}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePermissions(tt.perms)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePermissions(%v) error = %v, wantErr %v", tt.perms, err, tt.wantErr)
			}
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	p := perms([2]string{ResourceAreas, ActionRead})

	if !HasAnyPermission(models.RoleMember, p, []string{ResourceProjects, ResourceAreas}, ActionRead) {
		t.Error("expected grant via second resource")
	}
	if HasAnyPermission(models.RoleMember, p, []string{ResourceProjects, ResourceDonors}, ActionRead) {
		t.Error("expected no grant for unrelated resources")
	}
}
