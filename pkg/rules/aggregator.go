package rules

import "github.com/dukex/approvals/pkg/models"

// RoleSet is a set of roles; each role counts once however many users of it approved.
type RoleSet map[models.Role]struct{}

func NewRoleSet(roles ...models.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}

	return set
}

func (s RoleSet) Has(role models.Role) bool {
	_, ok := s[role]

	return ok
}

// ApprovedRoles collects the distinct roles among approving decisions.
func ApprovedRoles(decisions []*models.ApprovalDecision) RoleSet {
	set := make(RoleSet)

	for _, decision := range decisions {
		if decision.Approved {
			set[decision.ApproverRole] = struct{}{}
		}
	}

	return set
}

// IsSatisfied reports whether approved meets the rule's quorum. When the rule
// names any mandatory role, every mandatory role must be present and optional
// roles are ignored. Otherwise one optional role is enough.
func IsSatisfied(rule *models.ApprovalRule, approved RoleSet) bool {
	mandatory := rule.MandatoryRoles()

	if len(mandatory) > 0 {
		for _, role := range mandatory {
			if !approved.Has(role) {
				return false
			}
		}

		return true
	}

	for _, role := range rule.OptionalRoles() {
		if approved.Has(role) {
			return true
		}
	}

	return false
}
