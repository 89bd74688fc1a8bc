package models

import (
	"slices"
)

// Requirement tells whether a role must approve or may approve.
type Requirement string

const (
	RequirementMandatory Requirement = "MANDATORY"
	RequirementOptional  Requirement = "OPTIONAL"
)

func (r Requirement) Valid() bool {
	return r == RequirementMandatory || r == RequirementOptional
}

// ApprovalRule maps an item type and operation, optionally narrowed by a
// condition on the proposed data, to the roles whose approval is needed.
type ApprovalRule struct {
	Name             string               `json:"name,omitempty"      yaml:"name"`
	ItemType         ItemType             `json:"item_type"           yaml:"item_type"         validate:"required"`
	Operation        Operation            `json:"operation"           yaml:"operation"         validate:"required,oneof=CREATE UPDATE DELETE"`
	Condition        string               `json:"condition,omitempty" yaml:"condition"`
	RoleRequirements map[Role]Requirement `json:"role_requirements"   yaml:"role_requirements" validate:"required,min=1"`
	Priority         int                  `json:"priority"            yaml:"priority"`
}

// MandatoryRoles returns the roles that must all approve, sorted.
func (r *ApprovalRule) MandatoryRoles() []Role {
	return r.rolesWith(RequirementMandatory)
}

// OptionalRoles returns the roles of which one suffices when nothing is mandatory, sorted.
func (r *ApprovalRule) OptionalRoles() []Role {
	return r.rolesWith(RequirementOptional)
}

// Roles returns every role referenced by the rule, sorted.
func (r *ApprovalRule) Roles() []Role {
	roles := make([]Role, 0, len(r.RoleRequirements))
	for role := range r.RoleRequirements {
		roles = append(roles, role)
	}

	slices.Sort(roles)

	return roles
}

func (r *ApprovalRule) HasRole(role Role) bool {
	_, ok := r.RoleRequirements[role]

	return ok
}

func (r *ApprovalRule) rolesWith(requirement Requirement) []Role {
	roles := make([]Role, 0, len(r.RoleRequirements))

	for role, req := range r.RoleRequirements {
		if req == requirement {
			roles = append(roles, role)
		}
	}

	slices.Sort(roles)

	return roles
}
