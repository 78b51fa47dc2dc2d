package app

import "time"

type Status string

const (
	StatusAwaitingInterviewer    Status = "AWAITING_INTERVIEWER"
	StatusAwaitingCandidate      Status = "AWAITING_CANDIDATE"
	StatusAwaitingReconciliation Status = "AWAITING_RECONCILIATION"
	StatusConfirmed              Status = "CONFIRMED"
	StatusCancelled              Status = "CANCELLED"
)

// InterviewRequest is the aggregate for one candidate's scheduling process
// for one position. Rows are never deleted, only status-transitioned; the
// mirrored sheet row persists as the audit trail.
type InterviewRequest struct {
	ID                   string          `json:"id"`
	InterviewerIDs       []string        `json:"interviewer_ids"` // display order as entered
	CandidateName        string          `json:"candidate_name"`
	CandidateEmail       string          `json:"candidate_email"`
	CandidatePhone       string          `json:"candidate_phone,omitempty"`
	PositionName         string          `json:"position_name"`
	DetailedPositionName string          `json:"detailed_position_name,omitempty"`
	Status               Status          `json:"status"`
	PreferredSlots       []InterviewSlot `json:"preferred_slots,omitempty"`
	AvailableSlots       []InterviewSlot `json:"available_slots,omitempty"`
	SelectedSlot         *InterviewSlot  `json:"selected_slot,omitempty"`
	CandidateNote        string          `json:"candidate_note,omitempty"`
	CreatedAt            time.Time       `json:"created_at,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at,omitempty"`
}

func (r *InterviewRequest) IsTerminal() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCancelled
}

// InterviewerResponse is one interviewer's independent availability
// submission for a request; one row per (request, interviewer), upserted.
type InterviewerResponse struct {
	RequestID      string          `json:"request_id"`
	InterviewerID  string          `json:"interviewer_id"`
	AvailableSlots []InterviewSlot `json:"available_slots"`
	RespondedAt    time.Time       `json:"responded_at,omitempty"`
}

// Employee is the org-directory projection the scheduler needs.
type Employee struct {
	ID         string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email"`
}
