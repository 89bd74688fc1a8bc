// Package events defines the notifications published at approval request transitions.
package events

import (
	"time"
)

type EventType string

const Topic = "approvals.notifications"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RequestedEvent         EventType = "approval.requested"
	ApprovedEvent          EventType = "approval.approved"
	RejectedEvent          EventType = "approval.rejected"
	WithdrawnEvent         EventType = "approval.withdrawn"
	ApproverRespondedEvent EventType = "approval.approver_responded"
	ReminderEvent          EventType = "approval.reminder"
)

// NotificationTypes lists every notification event type.
var NotificationTypes = []EventType{
	RequestedEvent,
	ApprovedEvent,
	RejectedEvent,
	WithdrawnEvent,
	ApproverRespondedEvent,
	ReminderEvent,
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification tells a set of users about a transition of one approval request.
type Notification struct {
	BaseEvent

	RequestID   string         `json:"request_id"`
	ItemType    string         `json:"item_type"`
	ItemID      string         `json:"item_id,omitempty"`
	Operation   string         `json:"operation"`
	RequesterID string         `json:"requester_id"`
	Recipients  []string       `json:"recipients"`
	Message     string         `json:"message"`
	Extra       map[string]any `json:"extra,omitempty"`
}

func (n Notification) GetType() EventType {
	return n.Type
}
