package domain

import "time"

type ProgramID string

type ProgramStatus string

const (
	ProgramDraft    ProgramStatus = "draft"
	ProgramActive   ProgramStatus = "active"
	ProgramInactive ProgramStatus = "inactive"
)

// Program is a livelihood assistance program offered by the MSWD office.
type Program struct {
	ID          ProgramID     `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Budget      int64         `json:"budget"` // centavos
	MaxSlots    int           `json:"max_slots"`
	Status      ProgramStatus `json:"status"`
	Featured    bool          `json:"featured"`
	CreatedBy   UserID        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProgramStats aggregates application outcomes for one program.
type ProgramStats struct {
	ProgramID      ProgramID `json:"program_id"`
	TotalApplied   int       `json:"total_applied"`
	TotalApproved  int       `json:"total_approved"`
	TotalRejected  int       `json:"total_rejected"`
	TotalPending   int       `json:"total_pending"`
	TotalWithdrawn int       `json:"total_withdrawn"`
	SlotsRemaining int       `json:"slots_remaining"`
}
