package condition

import (
	"fmt"
	"strings"
)

// Predicate is one translated filter clause: a field, an operator and its
// typed operands. Range operators carry two Values, set operators carry the
// full list; everything else uses Value.
type Predicate struct {
	Field  string
	Op     Operator
	Value  any
	Values []any
}

func (p Predicate) String() string {
	switch {
	case !p.Op.RequiresValue():
		return fmt.Sprintf("%s %s", p.Field, p.Op)
	case p.Op.IsRange():
		return fmt.Sprintf("%s %s [%v, %v]", p.Field, p.Op, p.Values[0], p.Values[1])
	case p.Op.IsSet():
		parts := make([]string, len(p.Values))
		for i, v := range p.Values {
			parts[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s %s (%s)", p.Field, p.Op, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
	}
}

// Text returns the operand of a text operator as a string.
func (p Predicate) Text() string {
	if s, ok := p.Value.(string); ok {
		return s
	}
	return fmt.Sprint(p.Value)
}
