package domain

// Operator is the comparison applied by a Condition.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
)

// LogicOperator combines a list of conditions.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Condition compares the current value of VariableName against Value.
// For OpIn and OpNotIn, Value is a list.
type Condition struct {
	VariableName string   `json:"variableName" yaml:"variableName" jsonschema:"required"`
	Operator     Operator `json:"operator" yaml:"operator" jsonschema:"required,enum=equals,enum=not_equals,enum=contains,enum=not_contains,enum=greater_than,enum=less_than,enum=greater_than_or_equal,enum=less_than_or_equal,enum=in,enum=not_in"`
	Value        any      `json:"value" yaml:"value"`
}
