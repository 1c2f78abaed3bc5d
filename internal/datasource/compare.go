package datasource

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// compareValues orders a stored value against an operand using the operand's
// type: numbers numerically, times chronologically, everything else as text.
func compareValues(stored, operand any) (int, bool) {
	if stored == nil || operand == nil {
		return 0, false
	}

	switch o := operand.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		a, err := cast.ToFloat64E(stored)
		if err != nil {
			return 0, false
		}
		b := cast.ToFloat64(o)
		return cmpFloat(a, b), true
	case time.Time:
		a, err := cast.ToTimeE(stored)
		if err != nil {
			return 0, false
		}
		return a.Compare(o), true
	case bool:
		a, err := cast.ToBoolE(stored)
		if err != nil {
			return 0, false
		}
		switch {
		case a == o:
			return 0, true
		case !a:
			return -1, true
		default:
			return 1, true
		}
	}
	return strings.Compare(fmt.Sprint(stored), fmt.Sprint(operand)), true
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// lookupPath resolves dotted paths through nested maps.
func lookupPath(doc map[string]any, path string) (any, bool) {
	if v, ok := doc[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
