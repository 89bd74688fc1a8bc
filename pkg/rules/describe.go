package rules

import (
	"strings"

	"github.com/dukex/approvals/pkg/models"
)

// Describe renders the human readable approval requirement of a rule, e.g.
// "Requires approval from: ADMIN, MANAGER" or
// "Optional approvers: ADMIN, MANAGER (at least one required if no mandatory approvers)".
func Describe(rule *models.ApprovalRule) string {
	mandatory := rule.MandatoryRoles()
	optional := rule.OptionalRoles()

	var b strings.Builder

	if len(mandatory) > 0 {
		b.WriteString("Requires approval from: ")
		b.WriteString(joinRoles(mandatory))
	}

	if len(optional) > 0 {
		if len(mandatory) > 0 {
			b.WriteString(". ")
		}

		b.WriteString("Optional approvers: ")
		b.WriteString(joinRoles(optional))
		b.WriteString(" (at least one required if no mandatory approvers)")
	}

	return b.String()
}

func joinRoles(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	return strings.Join(names, ", ")
}
