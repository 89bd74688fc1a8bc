// Package rules holds the approval rule catalog and the logic that matches
// rules to proposed changes and decides when a rule's quorum is reached.
package rules

import (
	"errors"
	"fmt"
	"maps"

	"github.com/dukex/approvals/pkg/models"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidRule        = errors.New("invalid approval rule")
	ErrNoRoles            = errors.New("rule must require at least one role")
	ErrInvalidRole        = errors.New("unknown role")
	ErrInvalidRequirement = errors.New("unknown requirement")
)

// RuleError reports why a rule was refused at load time.
type RuleError struct {
	Index int
	Name  string
	Err   error
}

func (e *RuleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rule %d (%s): %v", e.Index, e.Name, e.Err)
	}

	return fmt.Sprintf("rule %d: %v", e.Index, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

type entry struct {
	rule      models.ApprovalRule
	predicate Predicate
}

// Catalog is the immutable, ordered set of configured rules. Build it once
// with NewCatalog and share it; nothing mutates it afterwards.
type Catalog struct {
	entries []entry
}

// NewCatalog validates every rule and compiles its condition. It fails on the
// first batch of invalid rules, reporting all of them.
func NewCatalog(rules []models.ApprovalRule) (*Catalog, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	entries := make([]entry, 0, len(rules))

	var errs []error

	for i, rule := range rules {
		err := validateRule(validate, rule)
		if err != nil {
			errs = append(errs, &RuleError{Index: i, Name: rule.Name, Err: err})

			continue
		}

		rule.RoleRequirements = maps.Clone(rule.RoleRequirements)

		entries = append(entries, entry{rule: rule, predicate: ParseCondition(rule.Condition)})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Catalog{entries: entries}, nil
}

func validateRule(validate *validator.Validate, rule models.ApprovalRule) error {
	if len(rule.RoleRequirements) == 0 {
		return ErrNoRoles
	}

	err := validate.Struct(rule)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	for role, requirement := range rule.RoleRequirements {
		if !role.Valid() {
			return fmt.Errorf("%w %q", ErrInvalidRole, role)
		}

		if !requirement.Valid() {
			return fmt.Errorf("%w %q for role %s", ErrInvalidRequirement, requirement, role)
		}
	}

	return nil
}

// Rules returns a copy of the rules in declaration order.
func (c *Catalog) Rules() []models.ApprovalRule {
	rules := make([]models.ApprovalRule, 0, len(c.entries))
	for _, e := range c.entries {
		rule := e.rule
		rule.RoleRequirements = maps.Clone(e.rule.RoleRequirements)
		rules = append(rules, rule)
	}

	return rules
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
