// Package web provides HTTP request and response types for the approvals API.
package web

import (
	"time"

	"github.com/dukex/approvals/pkg/models"
)

// CreateApprovalRequest represents the request body for opening an approval request directly.
type CreateApprovalRequest struct {
	ItemType  string         `json:"item_type" validate:"required,oneof=TODO INVOICE"`
	Operation string         `json:"operation" validate:"required,oneof=CREATE UPDATE DELETE"`
	ItemID    string         `json:"item_id"`
	Data      map[string]any `json:"data"`
}

// RespondRequest represents an approver's decision.
type RespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Comment  string `json:"comment"  validate:"max=2000"`
}

// ApprovalCheckRequest asks whether a change would need approval.
type ApprovalCheckRequest struct {
	ItemType  string         `json:"item_type" validate:"required"`
	Operation string         `json:"operation" validate:"required,oneof=CREATE UPDATE DELETE"`
	Data      map[string]any `json:"data"`
}

type ApprovalCheckResponse struct {
	ApprovalRequired bool   `json:"approval_required"`
	Requirement      string `json:"requirement,omitempty"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Role     string `json:"role"     validate:"required,oneof=ADMIN MANAGER USER"`
}

// ApprovalRequestResponse is a request enriched for display.
type ApprovalRequestResponse struct {
	ID                string         `json:"id"`
	ItemType          string         `json:"item_type"`
	ItemID            string         `json:"item_id,omitempty"`
	Operation         string         `json:"operation"`
	Data              map[string]any `json:"data"`
	Status            string         `json:"status"`
	StatusReason      string         `json:"status_reason,omitempty"`
	RequesterID       string         `json:"requester_id"`
	RequesterUsername string         `json:"requester_username,omitempty"`
	Requirement       string         `json:"requirement,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type DecisionResponse struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	ApproverID       string    `json:"approver_id"`
	ApproverUsername string    `json:"approver_username,omitempty"`
	ApproverRole     string    `json:"approver_role"`
	Decision         string    `json:"decision"`
	Comment          string    `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type RuleResponse struct {
	models.ApprovalRule

	Description string `json:"description"`
}

// TransformDecisionResponse renders a decision with the approver's username when known.
func TransformDecisionResponse(decision *models.ApprovalDecision, username string) DecisionResponse {
	verdict := "REJECT"
	if decision.Approved {
		verdict = "APPROVE"
	}

	return DecisionResponse{
		ID:               decision.ID,
		RequestID:        decision.RequestID,
		ApproverID:       decision.ApproverID,
		ApproverUsername: username,
		ApproverRole:     string(decision.ApproverRole),
		Decision:         verdict,
		Comment:          decision.Comment,
		CreatedAt:        decision.CreatedAt,
	}
}
