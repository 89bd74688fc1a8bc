package models

import (
	"maps"
	"time"
)

// RequestStatus represents the lifecycle state of an approval request.
type RequestStatus string

const (
	RequestStatusPending           RequestStatus = "PENDING"
	RequestStatusPartiallyApproved RequestStatus = "PARTIALLY_APPROVED"
	RequestStatusApproved          RequestStatus = "APPROVED"
	RequestStatusRejected          RequestStatus = "REJECTED"
	RequestStatusWithdrawn         RequestStatus = "WITHDRAWN"
)

// IsActive reports whether the status still accepts decisions.
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusPending || s == RequestStatusPartiallyApproved
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected || s == RequestStatusWithdrawn
}

// ApprovalRequest is a proposed change awaiting or having completed authorization.
// Terminal requests are kept as audit trail.
type ApprovalRequest struct {
	ID           string         `json:"id"`
	ItemType     ItemType       `json:"item_type"`
	ItemID       string         `json:"item_id,omitempty"` // empty for CREATE
	Operation    Operation      `json:"operation"`
	Data         map[string]any `json:"data"`
	Status       RequestStatus  `json:"status"`
	StatusReason string         `json:"status_reason,omitempty"`
	RequesterID  string         `json:"requester_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (r *ApprovalRequest) IsActive() bool {
	return r.Status.IsActive()
}

// ItemKey identifies the targeted item; empty when the request creates a new item.
func (r *ApprovalRequest) ItemKey() string {
	if r.ItemID == "" {
		return ""
	}

	return string(r.ItemType) + ":" + r.ItemID
}

// Clone returns a copy that does not share the data map.
func (r *ApprovalRequest) Clone() *ApprovalRequest {
	c := *r
	c.Data = maps.Clone(r.Data)

	return &c
}
