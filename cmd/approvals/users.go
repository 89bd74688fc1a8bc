package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/approvals/pkg/cmd"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/users"
	"github.com/urfave/cli/v3"
)

func NewUsersCommand() *cli.Command {
	return &cli.Command{
		Name:    "users",
		Aliases: []string{"u"},
		Usage:   "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Usage:    "Unique username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Usage:    "Role (ADMIN, MANAGER, USER)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Database connection URL for persistence",
						Required: true,
						Sources:  cli.EnvVars("DATABASE_URL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					logger := slog.With(
						"module", "approvals-cli",
						"action", "users-add",
					)

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

					role := models.Role(strings.ToUpper(command.String("role")))

					user, err := users.NewDirectory(persistence).Register(ctx, command.String("username"), role)
					if err != nil {
						return fmt.Errorf("failed to create user: %w", err)
					}

					_, err = fmt.Fprintf(command.Root().Writer, "Created user %s (%s) with id %s\n", user.Username, user.Role, user.ID)

					return err
				},
			},
		},
	}
}
