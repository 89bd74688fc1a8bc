// Package items implements the domain stores for todos and invoices and the
// field diff shown to approvers.
package items

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dukex/approvals/pkg/models"
)

var ErrInvalidData = errors.New("invalid item data")

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidData, field, fmt.Sprintf(format, args...))
}

// stringField reads an optional string. ok is false when the key is absent or null.
func stringField(data map[string]any, field string) (value string, ok bool, err error) {
	raw, present := data[field]
	if !present || raw == nil {
		return "", false, nil
	}

	value, isString := raw.(string)
	if !isString {
		return "", false, invalid(field, "must be a string, got %T", raw)
	}

	return value, true, nil
}

func boolField(data map[string]any, field string) (value bool, ok bool, err error) {
	raw, present := data[field]
	if !present || raw == nil {
		return false, false, nil
	}

	value, isBool := raw.(bool)
	if !isBool {
		return false, false, invalid(field, "must be a boolean, got %T", raw)
	}

	return value, true, nil
}

func levelField(data map[string]any) (models.Level, bool, error) {
	value, ok, err := stringField(data, "level")
	if err != nil || !ok {
		return "", ok, err
	}

	level := models.Level(strings.ToUpper(value))
	if !level.Valid() {
		return "", false, invalid("level", "must be one of LOW, MEDIUM, HIGH")
	}

	return level, true, nil
}

// amountField reads a positive amount given as a decimal string or a JSON
// number and returns it with exactly two fraction digits.
func amountField(data map[string]any) (string, bool, error) {
	raw, present := data["amount"]
	if !present || raw == nil {
		return "", false, nil
	}

	amount := new(big.Rat)

	switch v := raw.(type) {
	case string:
		if _, ok := amount.SetString(strings.TrimSpace(v)); !ok {
			return "", false, invalid("amount", "must be a decimal number")
		}
	case float64:
		if amount.SetFloat64(v) == nil {
			return "", false, invalid("amount", "must be a finite number")
		}
	case int:
		amount.SetInt64(int64(v))
	case int64:
		amount.SetInt64(v)
	default:
		return "", false, invalid("amount", "must be a number, got %T", raw)
	}

	if amount.Sign() <= 0 {
		return "", false, invalid("amount", "must be greater than zero")
	}

	return amount.FloatString(2), true, nil
}
