package runtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

var allOperators = []domain.Operator{
	domain.OpEquals,
	domain.OpNotEquals,
	domain.OpContains,
	domain.OpNotContains,
	domain.OpGreaterThan,
	domain.OpLessThan,
	domain.OpGreaterThanOrEqual,
	domain.OpLessThanOrEqual,
	domain.OpIn,
	domain.OpNotIn,
}

func TestEvaluate_AbsentVariableIsAlwaysFalse(t *testing.T) {
	values := map[domain.Operator]any{
		domain.OpIn:    []any{"a", "b"},
		domain.OpNotIn: []any{"a", "b"},
	}
	datasets := map[string]map[string]any{
		"nil map":   nil,
		"empty map": {},
		"nil value": {"x": nil},
		"other var": {"y": "a"},
	}
	for _, op := range allOperators {
		for name, data := range datasets {
			t.Run(string(op)+"/"+name, func(t *testing.T) {
				v, ok := values[op]
				if !ok {
					v = "a"
				}
				cond := domain.Condition{VariableName: "x", Operator: op, Value: v}
				assert.False(t, runtime.Evaluate(cond, data))
			})
		}
	}
}

func TestEvaluate_Operators(t *testing.T) {
	tests := []struct {
		name  string
		op    domain.Operator
		have  any
		value any
		want  bool
	}{
		{"equals string", domain.OpEquals, "yes", "yes", true},
		{"equals is case sensitive", domain.OpEquals, "Yes", "yes", false},
		{"equals numbers across types", domain.OpEquals, int64(3), 3.0, true},
		{"equals json number", domain.OpEquals, json.Number("3"), 3, true},
		{"equals never coerces strings", domain.OpEquals, "3", 3, false},
		{"equals bool", domain.OpEquals, true, true, true},
		{"equals bool vs string", domain.OpEquals, true, "true", false},
		{"not equals", domain.OpNotEquals, "a", "b", true},
		{"not equals same", domain.OpNotEquals, 2.0, 2, false},
		{"contains case insensitive", domain.OpContains, "Hello World", "WORLD", true},
		{"contains number coerced", domain.OpContains, 12345, "234", true},
		{"contains miss", domain.OpContains, "abc", "z", false},
		{"not contains", domain.OpNotContains, "abc", "z", true},
		{"not contains hit", domain.OpNotContains, "abc", "B", false},
		{"contains nil literal", domain.OpContains, "abc", nil, false},
		{"not contains nil literal", domain.OpNotContains, "abc", nil, false},
		{"greater than", domain.OpGreaterThan, 5, 3, true},
		{"greater than numeric string", domain.OpGreaterThan, "10", "9", true},
		{"greater than non numeric", domain.OpGreaterThan, "ten", 9, false},
		{"greater than empty string", domain.OpGreaterThan, "", -1, false},
		{"less than", domain.OpLessThan, 2.5, 3, true},
		{"greater or equal", domain.OpGreaterThanOrEqual, 3, 3, true},
		{"less or equal", domain.OpLessThanOrEqual, 4, 3, false},
		{"less or equal boundary", domain.OpLessThanOrEqual, int64(3), "3", true},
		{"in list", domain.OpIn, "b", []any{"a", "b"}, true},
		{"in string list", domain.OpIn, "b", []string{"a", "b"}, true},
		{"in numeric list", domain.OpIn, int64(2), []any{1.0, 2.0}, true},
		{"in miss", domain.OpIn, "c", []any{"a", "b"}, false},
		{"in non list", domain.OpIn, "a", "a", false},
		{"not in", domain.OpNotIn, "c", []any{"a", "b"}, true},
		{"not in hit", domain.OpNotIn, "a", []any{"a", "b"}, false},
		{"not in non list", domain.OpNotIn, "a", "b", false},
		{"unknown operator", domain.Operator("matches"), "a", "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := domain.Condition{VariableName: "x", Operator: tt.op, Value: tt.value}
			got := runtime.Evaluate(cond, map[string]any{"x": tt.have})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCombine_EmptyIsTrue(t *testing.T) {
	for _, data := range []map[string]any{nil, {}, {"a": 1}} {
		assert.True(t, runtime.Combine(nil, domain.LogicAnd, data))
		assert.True(t, runtime.Combine([]domain.Condition{}, domain.LogicOr, data))
	}
}

func TestCombine(t *testing.T) {
	yes := domain.Condition{VariableName: "a", Operator: domain.OpEquals, Value: 1}
	no := domain.Condition{VariableName: "a", Operator: domain.OpEquals, Value: 2}
	data := map[string]any{"a": 1}

	assert.True(t, runtime.Combine([]domain.Condition{yes, yes}, domain.LogicAnd, data))
	assert.False(t, runtime.Combine([]domain.Condition{yes, no}, domain.LogicAnd, data))
	assert.True(t, runtime.Combine([]domain.Condition{no, yes}, domain.LogicOr, data))
	assert.False(t, runtime.Combine([]domain.Condition{no, no}, domain.LogicOr, data))

	// Anything other than OR folds as AND.
	assert.False(t, runtime.Combine([]domain.Condition{yes, no}, "", data))
	assert.False(t, runtime.Combine([]domain.Condition{yes, no}, "XOR", data))
}

func TestIsVisible(t *testing.T) {
	plain := domain.Step{ID: "plain"}
	assert.True(t, runtime.IsVisible(&plain, nil))

	emptyLogic := domain.Step{ID: "empty", ConditionalLogic: &domain.ConditionalLogic{Operator: domain.LogicAnd}}
	assert.True(t, runtime.IsVisible(&emptyLogic, nil))

	gated := domain.Step{ID: "gated", ConditionalLogic: &domain.ConditionalLogic{
		ShowIf:   []domain.Condition{{VariableName: "rating", Operator: domain.OpLessThanOrEqual, Value: 3}},
		Operator: domain.LogicAnd,
	}}
	assert.False(t, runtime.IsVisible(&gated, nil))
	assert.False(t, runtime.IsVisible(&gated, map[string]any{"rating": 4}))
	assert.True(t, runtime.IsVisible(&gated, map[string]any{"rating": 3}))

	assert.False(t, runtime.IsVisible(nil, nil))
}
