// Package notification turns request transitions into notification events
// and delivers consumed events to users.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/approvals/pkg/eventbus"
	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/models"
)

// ReasonKey carries the rejection reason in the extra map of a rejected notification.
const ReasonKey = "reason"

// Notifier informs users about a transition. Delivery is best effort: it
// never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, kind events.EventType, request *models.ApprovalRequest, recipients []*models.User, extra map[string]any)
}

// EventNotifier publishes notifications on the event bus.
type EventNotifier struct {
	publisher eventbus.EventPublisher
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

func NewEventNotifier(bus eventbus.EventBus, logger *slog.Logger) *EventNotifier {
	return &EventNotifier{
		publisher: bus,
		newID:     bus.GenerateID,
		now:       time.Now,
		logger:    logger.With("module", "notifier"),
	}
}

func (n *EventNotifier) Notify(ctx context.Context, kind events.EventType, request *models.ApprovalRequest, recipients []*models.User, extra map[string]any) {
	if len(recipients) == 0 {
		n.logger.DebugContext(ctx, "No recipients for notification", "kind", kind, "request_id", request.ID)

		return
	}

	event := Build(kind, request, recipients, extra)
	event.ID = n.newID()
	event.Timestamp = n.now().UTC()

	err := n.publisher.Publish(ctx, request.ID, event)
	if err != nil {
		n.logger.WarnContext(ctx, "Failed to publish notification",
			"kind", kind,
			"request_id", request.ID,
			"recipients", len(recipients),
			"error", err,
		)

		return
	}

	n.logger.DebugContext(ctx, "Notification published", "kind", kind, "request_id", request.ID, "recipients", len(recipients))
}

// Build assembles the notification for a transition without ID or timestamp.
func Build(kind events.EventType, request *models.ApprovalRequest, recipients []*models.User, extra map[string]any) *events.Notification {
	ids := make([]string, 0, len(recipients))
	for _, user := range recipients {
		ids = append(ids, user.ID)
	}

	return &events.Notification{
		BaseEvent:   events.BaseEvent{Type: kind},
		RequestID:   request.ID,
		ItemType:    string(request.ItemType),
		ItemID:      request.ItemID,
		Operation:   string(request.Operation),
		RequesterID: request.RequesterID,
		Recipients:  ids,
		Message:     Message(kind, request, extra),
		Extra:       extra,
	}
}

func Message(kind events.EventType, request *models.ApprovalRequest, extra map[string]any) string {
	switch kind {
	case events.RequestedEvent:
		return fmt.Sprintf("New approval request #%s for %s %s awaits your decision", request.ID, request.Operation, request.ItemType)
	case events.ApprovedEvent:
		return fmt.Sprintf("Your request #%s has been approved and executed", request.ID)
	case events.RejectedEvent:
		reason, _ := extra[ReasonKey].(string)
		if reason == "" {
			reason = "no reason given"
		}

		return fmt.Sprintf("Your request #%s has been rejected: %s", request.ID, reason)
	case events.WithdrawnEvent:
		return fmt.Sprintf("Request #%s has been withdrawn by the requester", request.ID)
	case events.ApproverRespondedEvent:
		return "An approver responded to your request #" + request.ID
	case events.ReminderEvent:
		return fmt.Sprintf("Request #%s is still awaiting your decision", request.ID)
	default:
		return fmt.Sprintf("Request #%s changed", request.ID)
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, events.EventType, *models.ApprovalRequest, []*models.User, map[string]any) {}
