package models

import (
	"fmt"
	"reflect"
	"strings"
)

// Operator is a comparison applied by condition steps and condition triggers.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
)

// Evaluate applies the operator to a resolved field value and the configured
// comparison value. Unknown operators evaluate to false rather than erroring,
// and a nil field value only matches equals/not_equals against nil.
func (op Operator) Evaluate(value, compare any) bool {
	switch op {
	case OperatorEquals:
		return valuesEqual(value, compare)
	case OperatorNotEquals:
		return !valuesEqual(value, compare)
	case OperatorGreaterThan:
		return ordered(value, compare, func(cmp int) bool { return cmp > 0 })
	case OperatorLessThan:
		return ordered(value, compare, func(cmp int) bool { return cmp < 0 })
	case OperatorContains:
		return value != nil && strings.Contains(stringify(value), stringify(compare))
	case OperatorStartsWith:
		return value != nil && strings.HasPrefix(stringify(value), stringify(compare))
	case OperatorEndsWith:
		return value != nil && strings.HasSuffix(stringify(value), stringify(compare))
	default:
		return false
	}
}

func valuesEqual(value, compare any) bool {
	if a, ok := toFloat(value); ok {
		if b, ok := toFloat(compare); ok {
			return a == b
		}

		return false
	}

	return reflect.DeepEqual(value, compare)
}

func ordered(value, compare any, accept func(int) bool) bool {
	if a, ok := toFloat(value); ok {
		if b, ok := toFloat(compare); ok {
			switch {
			case a > b:
				return accept(1)
			case a < b:
				return accept(-1)
			default:
				return accept(0)
			}
		}

		return false
	}

	a, aok := value.(string)
	b, bok := compare.(string)

	if aok && bok {
		return accept(strings.Compare(a, b))
	}

	return false
}

// toFloat widens the numeric types JSON decoding and our stores produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
