package rules_test

import (
	"testing"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/stretchr/testify/assert"
)

func TestIsSatisfied_MandatoryRoles(t *testing.T) {
	t.Parallel()

	rule := &models.ApprovalRule{
		RoleRequirements: map[models.Role]models.Requirement{
			models.RoleAdmin:   models.RequirementMandatory,
			models.RoleManager: models.RequirementMandatory,
			models.RoleUser:    models.RequirementOptional,
		},
	}

	tests := []struct {
		name     string
		approved rules.RoleSet
		expected bool
	}{
		{name: "nobody", approved: rules.NewRoleSet(), expected: false},
		{name: "admin only", approved: rules.NewRoleSet(models.RoleAdmin), expected: false},
		{name: "manager only", approved: rules.NewRoleSet(models.RoleManager), expected: false},
		{name: "optional does not short circuit", approved: rules.NewRoleSet(models.RoleUser), expected: false},
		{name: "both mandatory", approved: rules.NewRoleSet(models.RoleManager, models.RoleAdmin), expected: true},
		{name: "both mandatory plus optional", approved: rules.NewRoleSet(models.RoleAdmin, models.RoleManager, models.RoleUser), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, rules.IsSatisfied(rule, tt.approved))
		})
	}
}

func TestIsSatisfied_OptionalOnly(t *testing.T) {
	t.Parallel()

	rule := &models.ApprovalRule{
		RoleRequirements: map[models.Role]models.Requirement{
			models.RoleAdmin:   models.RequirementOptional,
			models.RoleManager: models.RequirementOptional,
		},
	}

	assert.False(t, rules.IsSatisfied(rule, rules.NewRoleSet()))
	assert.False(t, rules.IsSatisfied(rule, rules.NewRoleSet(models.RoleUser)))
	assert.True(t, rules.IsSatisfied(rule, rules.NewRoleSet(models.RoleAdmin)))
	assert.True(t, rules.IsSatisfied(rule, rules.NewRoleSet(models.RoleManager)))
}

func TestApprovedRoles(t *testing.T) {
	t.Parallel()

	decisions := []*models.ApprovalDecision{
		{ApproverID: "u1", ApproverRole: models.RoleManager, Approved: true},
		{ApproverID: "u2", ApproverRole: models.RoleManager, Approved: true},
		{ApproverID: "u3", ApproverRole: models.RoleAdmin, Approved: false},
	}

	approved := rules.ApprovedRoles(decisions)

	assert.Len(t, approved, 1)
	assert.True(t, approved.Has(models.RoleManager))
	assert.False(t, approved.Has(models.RoleAdmin))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rule     *models.ApprovalRule
		expected string
	}{
		{
			name: "mandatory only",
			rule: &models.ApprovalRule{RoleRequirements: map[models.Role]models.Requirement{
				models.RoleManager: models.RequirementMandatory,
				models.RoleAdmin:   models.RequirementMandatory,
			}},
			expected: "Requires approval from: ADMIN, MANAGER",
		},
		{
			name: "optional only",
			rule: &models.ApprovalRule{RoleRequirements: map[models.Role]models.Requirement{
				models.RoleManager: models.RequirementOptional,
				models.RoleAdmin:   models.RequirementOptional,
			}},
			expected: "Optional approvers: ADMIN, MANAGER (at least one required if no mandatory approvers)",
		},
		{
			name: "mixed",
			rule: &models.ApprovalRule{RoleRequirements: map[models.Role]models.Requirement{
				models.RoleAdmin: models.RequirementMandatory,
				models.RoleUser:  models.RequirementOptional,
			}},
			expected: "Requires approval from: ADMIN. Optional approvers: USER (at least one required if no mandatory approvers)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, rules.Describe(tt.rule))
		})
	}
}
