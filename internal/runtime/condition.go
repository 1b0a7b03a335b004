package runtime

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/formflow/pkg/domain"
)

// Evaluate reports whether cond holds against data.
//
// A variable that is absent (missing or nil) never satisfies a condition,
// whatever the operator, including not_equals and not_in.
// Unknown operators evaluate to false.
func Evaluate(cond domain.Condition, data map[string]any) bool {
	actual, ok := data[cond.VariableName]
	if !ok || actual == nil {
		return false
	}

	switch cond.Operator {
	case domain.OpEquals:
		return valuesEqual(actual, cond.Value)
	case domain.OpNotEquals:
		return !valuesEqual(actual, cond.Value)
	case domain.OpContains:
		return containsFold(actual, cond.Value)
	case domain.OpNotContains:
		return cond.Value != nil && !containsFold(actual, cond.Value)
	case domain.OpGreaterThan:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a > b })
	case domain.OpLessThan:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a < b })
	case domain.OpGreaterThanOrEqual:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a >= b })
	case domain.OpLessThanOrEqual:
		return compareNumbers(actual, cond.Value, func(a, b float64) bool { return a <= b })
	case domain.OpIn:
		list, ok := asList(cond.Value)
		return ok && listContains(list, actual)
	case domain.OpNotIn:
		list, ok := asList(cond.Value)
		return ok && !listContains(list, actual)
	}
	return false
}

// valuesEqual is strict equality: numbers compare by value across numeric
// representations, everything else must have the same type and value.
// Strings are never coerced to numbers.
func valuesEqual(a, b any) bool {
	if fa, ok := numericValue(a); ok {
		fb, ok := numericValue(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func containsFold(actual, expected any) bool {
	if expected == nil {
		return false
	}
	return strings.Contains(strings.ToLower(Stringify(actual)), strings.ToLower(Stringify(expected)))
}

func compareNumbers(actual, expected any, cmp func(a, b float64) bool) bool {
	a, ok := toNumber(actual)
	if !ok {
		return false
	}
	b, ok := toNumber(expected)
	if !ok {
		return false
	}
	return cmp(a, b)
}

// numericValue only accepts values that already are numbers.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toNumber coerces strings and booleans as well as numbers.
func toNumber(v any) (float64, bool) {
	if f, ok := numericValue(v); ok {
		return f, !math.IsNaN(f)
	}
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func listContains(list []any, v any) bool {
	for _, item := range list {
		if valuesEqual(v, item) {
			return true
		}
	}
	return false
}
