package rules

import (
	"maps"

	"github.com/dukex/approvals/pkg/models"
)

// Matcher selects the rule that governs a proposed change.
type Matcher struct {
	catalog *Catalog
}

func NewMatcher(catalog *Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Match returns the highest-priority rule whose item type and operation equal
// the arguments and whose condition holds for data. Among equal priorities the
// rule declared first in the catalog wins. ok is false when nothing matches,
// meaning the change needs no approval.
func (m *Matcher) Match(itemType models.ItemType, operation models.Operation, data map[string]any) (*models.ApprovalRule, bool) {
	var best *entry

	for i := range m.catalog.entries {
		e := &m.catalog.entries[i]

		if e.rule.ItemType != itemType || e.rule.Operation != operation {
			continue
		}

		if !e.predicate.Evaluate(data) {
			continue
		}

		if best == nil || e.rule.Priority > best.rule.Priority {
			best = e
		}
	}

	if best == nil {
		return nil, false
	}

	rule := best.rule
	rule.RoleRequirements = maps.Clone(best.rule.RoleRequirements)

	return &rule, true
}

// RequiresApproval reports whether any rule governs the change.
func (m *Matcher) RequiresApproval(itemType models.ItemType, operation models.Operation, data map[string]any) bool {
	_, ok := m.Match(itemType, operation, data)

	return ok
}
