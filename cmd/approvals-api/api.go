// Package main provides the approvals API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/locks"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/dukex/approvals/pkg/services"
	"github.com/dukex/approvals/pkg/users"
	"github.com/dukex/approvals/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	validate    *validator.Validate

	directory  *users.Directory
	todos      *items.TodoStore
	invoices   *items.InvoiceStore
	dispatcher *dispatch.Dispatcher
	approval   *services.Approval
	changes    *services.Changes
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	catalog *rules.Catalog,
	notifier notification.Notifier,
	locker locks.Locker,
) *API {
	directory := users.NewDirectory(persistence)
	todos := items.NewTodoStore(persistence)
	invoices := items.NewInvoiceStore(persistence)
	dispatcher := dispatch.New(map[models.ItemType]dispatch.DomainStore{
		models.ItemTypeTodo:    todos,
		models.ItemTypeInvoice: invoices,
	})

	approval := services.NewApproval(
		persistence,
		rules.NewMatcher(catalog),
		directory,
		dispatcher,
		notifier,
		logger,
		services.WithLocker(locker),
	)

	return &API{
		logger:      logger,
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		directory:   directory,
		todos:       todos,
		invoices:    invoices,
		dispatcher:  dispatcher,
		approval:    approval,
		changes:     services.NewChanges(approval, dispatcher, directory, logger),
	}
}

// Approval exposes the engine so the same process can run reminders.
func (a *API) Approval() *services.Approval {
	return a.approval
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		a.approval,
		a.changes,
		services.NewHealth(a.persistence),
		a.directory,
		a.todos,
		a.invoices,
		a.dispatcher,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Approvals API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
