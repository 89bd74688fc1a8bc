package models

import "time"

// ApprovalDecision is one approver's response to a request. Decisions are append-only.
type ApprovalDecision struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	ApproverID   string    `json:"approver_id"`
	ApproverRole Role      `json:"approver_role"`
	Approved     bool      `json:"approved"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
