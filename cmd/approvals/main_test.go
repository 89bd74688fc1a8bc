package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dukex/approvals/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRules = `
rules:
  - name: invoice-any
    item_type: INVOICE
    operations: [CREATE, UPDATE]
    role_requirements:
      MANAGER: MANDATORY
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newCommand()
	command.Writer = &out
	command.ErrWriter = &out

	err := command.Run(context.Background(), append([]string{"approvals"}, args...))

	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRulesValidate(t *testing.T) {
	out, err := runCLI(t, "rules", "validate", "--file", writeFile(t, validRules))
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules OK")

	_, err = runCLI(t, "rules", "validate", "--file", writeFile(t, "rules:\n  - name: broken\n"))
	assert.Error(t, err)
}

func TestRulesDescribe_Defaults(t *testing.T) {
	out, err := runCLI(t, "rules", "describe")
	require.NoError(t, err)

	assert.Contains(t, out, "todo-high-create")
	assert.Contains(t, out, "Requires approval from: ADMIN, MANAGER")
	assert.Contains(t, out, "invoice-delete")
	assert.Contains(t, out, "Total rules: "+strconv.Itoa(len(rules.DefaultRules())))
}

func TestUsersAdd(t *testing.T) {
	out, err := runCLI(t, "users", "add", "--username", "marcos", "--role", "manager", "--database-url", "memory://")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user marcos (MANAGER)")

	_, err = runCLI(t, "users", "add", "--username", "x", "--role", "USER", "--database-url", "memory://")
	assert.Error(t, err)
}
