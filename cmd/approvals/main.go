// Package main provides the approvals operator CLI.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "approvals",
		Usage:                 "Operate the approval workflow engine",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewRulesCommand(),
			NewUsersCommand(),
		},
	}
}

func main() {
	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
