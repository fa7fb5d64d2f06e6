package domain

import "time"

type ApplicationID string

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Application is one beneficiary's request to join a program.
type Application struct {
	ID          ApplicationID     `json:"id"`
	ProgramID   ProgramID         `json:"program_id"`
	ApplicantID UserID            `json:"applicant_id"`
	Remarks     string            `json:"remarks,omitempty"`
	Status      ApplicationStatus `json:"status"`
	ReviewedBy  UserID            `json:"reviewed_by,omitempty"`
	ReviewNotes string            `json:"review_notes,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	DecidedAt   time.Time         `json:"decided_at,omitempty"`
}

// Reviewable reports whether the application can still be approved or
// rejected.
func (a *Application) Reviewable() bool {
	return a.Status == ApplicationPending
}
