package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/approvals/pkg/cmd"
	"github.com/dukex/approvals/pkg/log"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/reminder"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort             = 9092
	serviceName             = "approvals-api"
	defaultReminderSchedule = "@every 1h"
	defaultReminderAfter    = 24 * time.Hour
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Serve the approval workflow API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL (memory:// or postgres://...)",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "rules-file",
				Usage:   "YAML rule file; the built-in rules are used when empty",
				Sources: cli.EnvVars("RULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "lock-url",
				Usage:   "Redis URL for distributed locks; in-process locks when empty",
				Sources: cli.EnvVars("LOCK_URL"),
			},
			&cli.StringFlag{
				Name:    "reminder-schedule",
				Usage:   "Cron schedule for reminders when notifications stay in process",
				Value:   defaultReminderSchedule,
				Sources: cli.EnvVars("REMINDER_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "reminder-after",
				Usage:   "Age after which an untouched active request is reminded",
				Value:   defaultReminderAfter,
				Sources: cli.EnvVars("REMINDER_AFTER"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing Approvals API")

	cmd.SetupTracing(ctx, command.Bool("tracing"), serviceName, logger)

	catalog, err := cmd.NewCatalog(command.String("rules-file"))
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}

	defer func() {
		err := persistence.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	busProvider := command.String("event-bus")

	eventBus, err := cmd.NewEventBus(busProvider, command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		return err
	}

	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	locker, closeLocker, err := cmd.NewLocker(ctx, command.String("lock-url"), logger)
	if err != nil {
		return fmt.Errorf("failed to create locker: %w", err)
	}

	defer func() {
		err := closeLocker()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close locker", "error", err)
		}
	}()

	api := NewAPI(
		logger,
		persistence,
		catalog,
		notification.NewEventNotifier(eventBus, logger),
		locker,
	)

	// The in-process channel cannot reach another binary, so this process
	// delivers its own notifications and reminders.
	if busProvider == "" || busProvider == "gochannel" {
		err := notification.NewLogSink(logger).Register(eventBus)
		if err != nil {
			return err
		}

		err = eventBus.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("failed to subscribe to notifications: %w", err)
		}

		scheduler, err := reminder.NewScheduler(
			command.String("reminder-schedule"),
			command.Duration("reminder-after"),
			api.Approval(),
			logger,
		)
		if err != nil {
			return err
		}

		err = scheduler.Start(ctx)
		if err != nil {
			return err
		}

		defer scheduler.Stop(ctx)
	}

	err = api.Start(command.Int("port"))
	if err != nil {
		logger.ErrorContext(ctx, "API server stopped", "error", err)

		return err
	}

	return nil
}
