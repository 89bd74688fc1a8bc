// Package main provides the notification consumer: it delivers approval
// notifications from the bus and reminds approvers of stale requests.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/approvals/pkg/eventbus"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/reminder"
)

type Notifier struct {
	eventBus  eventbus.EventBus
	sink      *notification.LogSink
	scheduler *reminder.Scheduler
	logger    *slog.Logger
}

func NewNotifier(
	eventBus eventbus.EventBus,
	reminders reminder.Reminder,
	schedule string,
	after time.Duration,
	logger *slog.Logger,
) (*Notifier, error) {
	scheduler, err := reminder.NewScheduler(schedule, after, reminders, logger)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		eventBus:  eventBus,
		sink:      notification.NewLogSink(logger),
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

func (n *Notifier) Start(ctx context.Context) error {
	n.logger.InfoContext(ctx, "Starting notifier")

	err := n.sink.Register(n.eventBus)
	if err != nil {
		return fmt.Errorf("failed to register notification handlers: %w", err)
	}

	err = n.eventBus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to notifications: %w", err)
	}

	return n.scheduler.Start(ctx)
}

func (n *Notifier) Stop(ctx context.Context) {
	n.logger.InfoContext(ctx, "Stopping notifier")

	n.scheduler.Stop(ctx)
}
