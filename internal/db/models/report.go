// Package models - report.go defines the Report approval state machine records.
// PENDING → {APPROVED, REJECTED}; both terminal states are one-way. A rejection
// always carries exactly one ReportRejection row with the reviewer's comment.
package models

import "time"

// Report statuses
const (
	ReportStatusPending  = "PENDING"
	ReportStatusApproved = "APPROVED"
	ReportStatusRejected = "REJECTED"
)

// Report is a field submission against an activity
type Report struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	ActivityID     string  `json:"activity_id"`
	ProgramID      *string `json:"program_id,omitempty"`
	Title          *string `json:"title,omitempty"`
	UnitReported   float64 `json:"unit_reported"`
	Status         string  `json:"status"`
	// ApprovedAt is set exactly when the report transitions to APPROVED
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	SubmittedBy string     `json:"submitted_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReportRejection records why a report was rejected and by whom
type ReportRejection struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"report_id"`
	Comment    string    `json:"comment"`
	RejectedBy string    `json:"rejected_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReportAttachment is a stored file linked to a report. StorageKey addresses
// the blob in the configured storage backend; Checksum is the SHA-256 of the
// uploaded content.
type ReportAttachment struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"report_id"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	Checksum    string    `json:"checksum"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType *string   `json:"content_type,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
