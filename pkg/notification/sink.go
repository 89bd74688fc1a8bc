package notification

import (
	"context"
	"log/slog"

	"github.com/dukex/approvals/pkg/eventbus"
	"github.com/dukex/approvals/pkg/events"
)

// LogSink delivers notifications by writing one log line per recipient.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "notification_sink")}
}

func (s *LogSink) Deliver(ctx context.Context, event *events.Notification) error {
	for _, recipient := range event.Recipients {
		s.logger.InfoContext(ctx, "Notification delivered",
			"event_id", event.ID,
			"kind", event.Type,
			"request_id", event.RequestID,
			"recipient", recipient,
			"message", event.Message,
		)
	}

	return nil
}

// Register installs the sink as handler for every notification type.
func (s *LogSink) Register(subscriber eventbus.EventSubscriber) error {
	for _, eventType := range events.NotificationTypes {
		err := subscriber.Handle(eventType, s.Deliver)
		if err != nil {
			return err
		}
	}

	return nil
}
