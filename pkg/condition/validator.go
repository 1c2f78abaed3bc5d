package condition

import (
	"reflect"
	"regexp"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

var safeField = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// IsSafeField reports whether name may be interpolated into a query as an
// identifier.
func IsSafeField(name string) bool {
	return safeField.MatchString(name)
}

// Validate checks every clause and returns the first ValidationError found.
// A list that passes is safe to hand to the query builder.
func Validate(filters []models.Filter) error {
	for _, f := range filters {
		if err := ValidateFilter(f); err != nil {
			return err
		}
	}
	return nil
}

func ValidateFilter(f models.Filter) error {
	if f.Field == "" || !IsSafeField(f.Field) {
		return errs.InvalidField(f.Field)
	}

	op, ok := ParseOperator(f.Operator)
	if !ok {
		return errs.InvalidOperator(f.Field, f.Operator)
	}

	if !op.RequiresValue() {
		return nil
	}
	if f.Value == nil {
		return errs.MissingValue(f.Field)
	}

	switch {
	case op.IsRange():
		values, ok := AsSlice(f.Value)
		if !ok || len(values) != 2 {
			return errs.InvalidValue(f.Field, string(op)+" expects exactly two values for "+f.Field)
		}
	case op.IsSet():
		if _, ok := AsSlice(f.Value); !ok {
			return errs.InvalidValue(f.Field, string(op)+" expects a list of values for "+f.Field)
		}
	}
	return nil
}

// AsSlice unpacks any slice or array into []any.
func AsSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte is a scalar for filtering purposes
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
