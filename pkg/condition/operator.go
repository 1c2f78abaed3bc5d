package condition

import "strings"

// Operator is the closed set of filter operators a report accepts.
type Operator string

const (
	OpEquals            Operator = "equals"
	OpNotEquals         Operator = "not_equals"
	OpContains          Operator = "contains"
	OpNotContains       Operator = "not_contains"
	OpStartsWith        Operator = "starts_with"
	OpEndsWith          Operator = "ends_with"
	OpGreaterThan       Operator = "greater_than"
	OpLessThan          Operator = "less_than"
	OpGreaterThanEquals Operator = "greater_than_equals"
	OpLessThanEquals    Operator = "less_than_equals"
	OpBetween           Operator = "between"
	OpNotBetween        Operator = "not_between"
	OpIn                Operator = "in"
	OpNotIn             Operator = "not_in"
	OpNull              Operator = "null"
	OpNotNull           Operator = "not_null"
)

var operators = map[Operator]struct{}{
	OpEquals: {}, OpNotEquals: {}, OpContains: {}, OpNotContains: {},
	OpStartsWith: {}, OpEndsWith: {}, OpGreaterThan: {}, OpLessThan: {},
	OpGreaterThanEquals: {}, OpLessThanEquals: {}, OpBetween: {}, OpNotBetween: {},
	OpIn: {}, OpNotIn: {}, OpNull: {}, OpNotNull: {},
}

// ParseOperator matches case-insensitively.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	_, ok := operators[op]
	return op, ok
}

func (o Operator) RequiresValue() bool {
	return o != OpNull && o != OpNotNull
}

func (o Operator) IsRange() bool {
	return o == OpBetween || o == OpNotBetween
}

func (o Operator) IsSet() bool {
	return o == OpIn || o == OpNotIn
}

func (o Operator) IsText() bool {
	switch o {
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}
