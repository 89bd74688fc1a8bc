package rules_test

import (
	"testing"

	"github.com/dukex/approvals/pkg/rules"
	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		condition string
		data      map[string]any
		expected  bool
	}{
		{name: "empty condition always holds", condition: "", data: nil, expected: true},
		{name: "equality matches string", condition: "level=HIGH", data: map[string]any{"level": "HIGH"}, expected: true},
		{name: "equality trims spaces", condition: " level = HIGH ", data: map[string]any{"level": "HIGH"}, expected: true},
		{name: "equality mismatch", condition: "level=HIGH", data: map[string]any{"level": "LOW"}, expected: false},
		{name: "equality is case sensitive", condition: "level=HIGH", data: map[string]any{"level": "high"}, expected: false},
		{name: "missing field does not match", condition: "level=HIGH", data: map[string]any{}, expected: false},
		{name: "nil value does not match", condition: "level=HIGH", data: map[string]any{"level": nil}, expected: false},
		{name: "numbers compare by string form", condition: "amount=1500", data: map[string]any{"amount": float64(1500)}, expected: true},
		{name: "booleans compare by string form", condition: "completed=true", data: map[string]any{"completed": true}, expected: true},
		{name: "unsupported comparator holds", condition: "amount>1000", data: map[string]any{"amount": 5}, expected: true},
		{name: "double equals holds", condition: "a==b", data: map[string]any{}, expected: true},
		{name: "missing value holds", condition: "level=", data: map[string]any{"level": "HIGH"}, expected: true},
		{name: "missing field never holds", condition: "=HIGH", data: map[string]any{"level": "HIGH"}, expected: false},
		{name: "missing field with spaces never holds", condition: " = HIGH", data: map[string]any{"level": "HIGH"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			predicate := rules.ParseCondition(tt.condition)
			assert.Equal(t, tt.expected, predicate.Evaluate(tt.data))
		})
	}
}

func TestParseCondition_Types(t *testing.T) {
	t.Parallel()

	assert.IsType(t, rules.Equality{}, rules.ParseCondition("level=HIGH"))
	assert.IsType(t, rules.Always{}, rules.ParseCondition("amount>10"))
	assert.IsType(t, rules.Equality{}, rules.ParseCondition("=HIGH"))
	assert.Equal(t, "level=HIGH", rules.ParseCondition("level = HIGH").String())
	assert.Equal(t, "amount>10", rules.ParseCondition("amount>10").String())
}
