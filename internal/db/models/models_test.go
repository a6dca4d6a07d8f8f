package models

import "testing"

func TestValidProjectStatus(t *testing.T) {
	valid := []string{"DRAFT", "PLANNED", "ACTIVE", "ON_HOLD", "COMPLETED", "CANCELLED"}
	for _, s := range valid {
		if !ValidProjectStatus(s) {
			t.Errorf("ValidProjectStatus(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "draft", "Active", "ARCHIVED", "DELETED", "ACTIVE "}
	for _, s := range invalid {
		if ValidProjectStatus(s) {
			t.Errorf("ValidProjectStatus(%q) = true, want false", s)
		}
	}
}
