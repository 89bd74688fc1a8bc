package rules

import (
	"fmt"
	"strings"
)

// Predicate is a rule condition evaluated against the proposed item data.
type Predicate interface {
	Evaluate(data map[string]any) bool
	String() string
}

// ParseCondition compiles a condition string. An empty condition, a missing
// value ("level=") and any form other than "field=value" compile to a
// predicate that always holds; richer comparators plug in here without
// changing how rules are matched. A missing field ("=HIGH") stays an equality
// on the empty key, so it never holds for item data.
func ParseCondition(condition string) Predicate {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return Always{}
	}

	parts := strings.Split(condition, "=")
	if len(parts) != 2 {
		return Always{Raw: condition}
	}

	field := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])

	if value == "" {
		return Always{Raw: condition}
	}

	return Equality{Field: field, Value: value}
}

// Equality holds when the string form of data[Field] equals Value.
type Equality struct {
	Field string
	Value string
}

func (e Equality) Evaluate(data map[string]any) bool {
	actual, ok := data[e.Field]
	if !ok || actual == nil {
		return false
	}

	return fmt.Sprint(actual) == e.Value
}

func (e Equality) String() string {
	return e.Field + "=" + e.Value
}

// Always is the predicate of unconditional rules and of condition forms not yet understood.
type Always struct {
	Raw string
}

func (Always) Evaluate(map[string]any) bool {
	return true
}

func (a Always) String() string {
	return a.Raw
}
