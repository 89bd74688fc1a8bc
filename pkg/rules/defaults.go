package rules

import (
	"strings"

	"github.com/dukex/approvals/pkg/models"
)

// DefaultRules is the built-in policy used when no rule file is configured:
// high level todos need both an admin and a manager, medium level todos a
// manager, low level todos nothing. Invoice creation and updates need a
// manager; deleting an invoice needs either an admin or a manager.
func DefaultRules() []models.ApprovalRule {
	rules := make([]models.ApprovalRule, 0, 9)

	for _, op := range []models.Operation{models.OperationCreate, models.OperationUpdate, models.OperationDelete} {
		rules = append(rules,
			models.ApprovalRule{
				Name:      "todo-high-" + lower(op),
				ItemType:  models.ItemTypeTodo,
				Operation: op,
				Condition: "level=HIGH",
				RoleRequirements: map[models.Role]models.Requirement{
					models.RoleAdmin:   models.RequirementMandatory,
					models.RoleManager: models.RequirementMandatory,
				},
				Priority: 100,
			},
			models.ApprovalRule{
				Name:      "todo-medium-" + lower(op),
				ItemType:  models.ItemTypeTodo,
				Operation: op,
				Condition: "level=MEDIUM",
				RoleRequirements: map[models.Role]models.Requirement{
					models.RoleManager: models.RequirementMandatory,
				},
				Priority: 50,
			},
		)
	}

	for _, op := range []models.Operation{models.OperationCreate, models.OperationUpdate} {
		rules = append(rules, models.ApprovalRule{
			Name:      "invoice-" + lower(op),
			ItemType:  models.ItemTypeInvoice,
			Operation: op,
			RoleRequirements: map[models.Role]models.Requirement{
				models.RoleManager: models.RequirementMandatory,
			},
		})
	}

	rules = append(rules, models.ApprovalRule{
		Name:      "invoice-delete",
		ItemType:  models.ItemTypeInvoice,
		Operation: models.OperationDelete,
		RoleRequirements: map[models.Role]models.Requirement{
			models.RoleAdmin:   models.RequirementOptional,
			models.RoleManager: models.RequirementOptional,
		},
	})

	return rules
}

// DefaultCatalog builds a catalog from DefaultRules.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultRules())
	if err != nil {
		panic(err)
	}

	return catalog
}

func lower(op models.Operation) string {
	return strings.ToLower(string(op))
}
