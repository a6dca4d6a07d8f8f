// Package models - audit_log.go defines the AuditLog model for recording
// who did what, when, from where. Entries are append-only and written
// best-effort; failures surface in logs and metrics, never to the caller.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID             string                 `json:"id"`
	UserID         *string                `json:"user_id,omitempty"`         // Nullable for system actions
	OrganizationID *string                `json:"organization_id,omitempty"` // Nullable for platform-admin actions
	Action         string                 `json:"action"`                    // "project.status_change", "report.approve", "organization.create"
	ResourceType   string                 `json:"resource_type"`             // "project", "report", "organization"
	ResourceID     *string                `json:"resource_id,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"` // JSONB: additional context
	IPAddress      *string                `json:"ip_address,omitempty"`
	UserAgent      *string                `json:"user_agent,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
