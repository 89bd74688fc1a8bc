package rules_test

import (
	"testing"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()

	valid := models.ApprovalRule{
		ItemType:         models.ItemTypeTodo,
		Operation:        models.OperationCreate,
		RoleRequirements: map[models.Role]models.Requirement{models.RoleAdmin: models.RequirementMandatory},
	}

	tests := []struct {
		name        string
		mutate      func(r *models.ApprovalRule)
		expectedErr error
	}{
		{name: "valid rule", mutate: func(*models.ApprovalRule) {}},
		{
			name:        "empty role requirements",
			mutate:      func(r *models.ApprovalRule) { r.RoleRequirements = map[models.Role]models.Requirement{} },
			expectedErr: rules.ErrNoRoles,
		},
		{
			name:        "missing item type",
			mutate:      func(r *models.ApprovalRule) { r.ItemType = "" },
			expectedErr: rules.ErrInvalidRule,
		},
		{
			name:        "unknown operation",
			mutate:      func(r *models.ApprovalRule) { r.Operation = "PATCH" },
			expectedErr: rules.ErrInvalidRule,
		},
		{
			name: "unknown role",
			mutate: func(r *models.ApprovalRule) {
				r.RoleRequirements = map[models.Role]models.Requirement{"AUDITOR": models.RequirementMandatory}
			},
			expectedErr: rules.ErrInvalidRole,
		},
		{
			name: "unknown requirement",
			mutate: func(r *models.ApprovalRule) {
				r.RoleRequirements = map[models.Role]models.Requirement{models.RoleAdmin: "SOMETIMES"}
			},
			expectedErr: rules.ErrInvalidRequirement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule := valid
			rule.RoleRequirements = map[models.Role]models.Requirement{models.RoleAdmin: models.RequirementMandatory}
			tt.mutate(&rule)

			catalog, err := rules.NewCatalog([]models.ApprovalRule{rule})
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, catalog)

				var ruleErr *rules.RuleError
				require.ErrorAs(t, err, &ruleErr)
				assert.Equal(t, 0, ruleErr.Index)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, catalog.Len())
		})
	}
}

func TestCatalog_IsImmutable(t *testing.T) {
	t.Parallel()

	source := []models.ApprovalRule{{
		ItemType:         models.ItemTypeInvoice,
		Operation:        models.OperationDelete,
		RoleRequirements: map[models.Role]models.Requirement{models.RoleAdmin: models.RequirementOptional},
	}}

	catalog, err := rules.NewCatalog(source)
	require.NoError(t, err)

	source[0].RoleRequirements[models.RoleUser] = models.RequirementMandatory

	listed := catalog.Rules()
	listed[0].RoleRequirements[models.RoleManager] = models.RequirementMandatory

	again := catalog.Rules()
	require.Len(t, again, 1)
	assert.Equal(t, map[models.Role]models.Requirement{models.RoleAdmin: models.RequirementOptional}, again[0].RoleRequirements)
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog := rules.DefaultCatalog()
	assert.Equal(t, 9, catalog.Len())
}
