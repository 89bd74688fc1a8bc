package services

import (
	"context"
	"time"

	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/models"
)

// Remind notifies the approvers still awaited on every active request not
// updated since before. It returns how many requests produced a reminder.
func (a *Approval) Remind(ctx context.Context, before time.Time) (int, error) {
	active, err := a.store.ActiveRequests(ctx)
	if err != nil {
		return 0, err
	}

	reminded := 0

	for _, request := range active {
		if !request.UpdatedAt.Before(before) {
			continue
		}

		recipients, err := a.awaitedApprovers(ctx, request)
		if err != nil {
			a.logger.WarnContext(ctx, "Failed to resolve awaited approvers", "request_id", request.ID, "error", err)

			continue
		}

		if len(recipients) == 0 {
			continue
		}

		a.notifier.Notify(ctx, events.ReminderEvent, request, recipients, nil)
		reminded++
	}

	return reminded, nil
}

func (a *Approval) awaitedApprovers(ctx context.Context, request *models.ApprovalRequest) ([]*models.User, error) {
	rule, ok := a.RuleFor(request)
	if !ok {
		return nil, nil
	}

	candidates, err := a.users.FindByRoles(ctx, rule.Roles())
	if err != nil {
		return nil, err
	}

	decisions, err := a.store.DecisionsByRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	decided := make(map[string]struct{}, len(decisions))
	for _, decision := range decisions {
		decided[decision.ApproverID] = struct{}{}
	}

	awaited := make([]*models.User, 0, len(candidates))

	for _, user := range candidates {
		if _, ok := decided[user.ID]; !ok {
			awaited = append(awaited, user)
		}
	}

	return awaited, nil
}
