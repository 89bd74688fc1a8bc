package main

import (
	"context"
	"fmt"

	"github.com/dukex/approvals/pkg/cmd"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/urfave/cli/v3"
)

func NewRulesCommand() *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Aliases: []string{"r"},
		Usage:   "Inspect approval rule files",
		Commands: []*cli.Command{
			{
				Name:    "validate",
				Aliases: []string{"v"},
				Usage:   "Validate a rule file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the YAML rule file",
						Required: true,
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					path := command.String("file")

					catalog, err := rules.LoadFile(path)
					if err != nil {
						return fmt.Errorf("rule file is invalid: %w", err)
					}

					_, err = fmt.Fprintf(command.Root().Writer, "%s: %d rules OK\n", path, catalog.Len())

					return err
				},
			},
			{
				Name:    "describe",
				Aliases: []string{"d"},
				Usage:   "Print each rule with its approval requirement",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Path to the YAML rule file; the built-in rules when empty",
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					catalog, err := cmd.NewCatalog(command.String("file"))
					if err != nil {
						return err
					}

					configured := catalog.Rules()

					for i := range configured {
						err = describeRule(command, &configured[i])
						if err != nil {
							return err
						}
					}

					_, err = fmt.Fprintf(command.Root().Writer, "\nTotal rules: %d\n", len(configured))

					return err
				},
			},
		},
	}
}

func describeRule(command *cli.Command, rule *models.ApprovalRule) error {
	condition := rule.Condition
	if condition == "" {
		condition = "always"
	}

	_, err := fmt.Fprintf(command.Root().Writer, "%s [%s %s, priority %d, when %s]\n  %s\n",
		rule.Name, rule.Operation, rule.ItemType, rule.Priority, condition, rules.Describe(rule))

	return err
}
