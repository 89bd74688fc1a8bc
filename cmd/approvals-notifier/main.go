package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/approvals/pkg/cmd"
	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/log"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/dukex/approvals/pkg/services"
	"github.com/dukex/approvals/pkg/users"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "approvals-notifier"

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Deliver approval notifications and remind approvers of stale requests",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "rules-file",
				Usage:   "YAML rule file; the built-in rules are used when empty",
				Sources: cli.EnvVars("RULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "reminder-schedule",
				Usage:   "Cron schedule for reminder runs",
				Value:   "@every 1h",
				Sources: cli.EnvVars("REMINDER_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "reminder-after",
				Usage:   "Age after which an untouched active request is reminded",
				Value:   24 * time.Hour,
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

	logger := log.WithModule("notifier")

	logger.InfoContext(ctx, "Initializing Approvals notifier")

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

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		return err
	}

	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	directory := users.NewDirectory(persistence)
	dispatcher := dispatch.New(map[models.ItemType]dispatch.DomainStore{
		models.ItemTypeTodo:    items.NewTodoStore(persistence),
		models.ItemTypeInvoice: items.NewInvoiceStore(persistence),
	})

	approval := services.NewApproval(
		persistence,
		rules.NewMatcher(catalog),
		directory,
		dispatcher,
		notification.NewEventNotifier(eventBus, logger),
		logger,
	)

	notifier, err := NewNotifier(
		eventBus,
		approval,
		command.String("reminder-schedule"),
		command.Duration("reminder-after"),
		logger,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = notifier.Start(ctx)
	if err != nil {
		return err
	}

	<-ctx.Done()

	notifier.Stop(context.WithoutCancel(ctx))

	return nil
}
