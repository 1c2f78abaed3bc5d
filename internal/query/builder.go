package query

import (
	"strings"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
	"go-itam/pkg/condition"

	"github.com/spf13/cast"
)

type Builder struct {
	registry *Registry
}

func NewBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

// Build translates a report read into a Query. Base filters come first, then
// runtime filters. Filters are expected to have passed condition.Validate.
func (b *Builder) Build(reportType models.ReportType, baseFilters, runtimeFilters []models.Filter, sorting *models.Sorting, columns []models.ColumnSpec) (Query, error) {
	src, err := b.registry.Resolve(reportType)
	if err != nil {
		return Query{}, err
	}

	q := Query{Source: src}

	all := make([]models.Filter, 0, len(baseFilters)+len(runtimeFilters))
	all = append(all, baseFilters...)
	all = append(all, runtimeFilters...)

	for _, f := range all {
		p, ok, err := b.translate(src, f)
		if err != nil {
			return Query{}, err
		}
		if ok {
			q.Predicates = append(q.Predicates, p)
		}
	}

	q.Sort = buildSort(src, sorting)
	q.Columns = buildProjection(src, columns)
	return q, nil
}

func (b *Builder) translate(src Source, f models.Filter) (condition.Predicate, bool, error) {
	op, ok := condition.ParseOperator(f.Operator)
	if !ok {
		return condition.Predicate{}, false, errs.InvalidOperator(f.Field, f.Operator)
	}

	p := condition.Predicate{Field: f.Field, Op: op}
	kind := src.Kind(f.Field)

	switch {
	case !op.RequiresValue():
	case op.IsRange():
		values, ok := condition.AsSlice(f.Value)
		if !ok || len(values) != 2 {
			return condition.Predicate{}, false, errs.InvalidValue(f.Field, string(op)+" expects exactly two values for "+f.Field)
		}
		p.Values = []any{coerce(kind, values[0]), coerce(kind, values[1])}
	case op.IsSet():
		values, ok := condition.AsSlice(f.Value)
		if !ok {
			// non-list set operands never reach here past validation
			return condition.Predicate{}, false, nil
		}
		p.Values = make([]any, len(values))
		for i, v := range values {
			p.Values[i] = coerce(kind, v)
		}
	case op.IsText():
		p.Value = cast.ToString(f.Value)
	default:
		p.Value = coerce(kind, f.Value)
	}
	return p, true, nil
}

// coerce converts a filter operand to the field's declared kind. Operands that
// do not convert are passed through unchanged.
func coerce(kind FieldKind, v any) any {
	switch kind {
	case KindNumber:
		if _, isBool := v.(bool); isBool {
			return v
		}
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	case KindDate:
		if t, err := cast.ToTimeE(v); err == nil {
			return t.UTC()
		}
	case KindBool:
		if bv, err := cast.ToBoolE(v); err == nil {
			return bv
		}
	}
	return v
}

func buildSort(src Source, sorting *models.Sorting) []SortKey {
	pk := SortKey{Field: src.PrimaryKey}
	if sorting == nil || sorting.Field == "" || !condition.IsSafeField(sorting.Field) {
		return []SortKey{pk}
	}

	key := SortKey{
		Field: sorting.Field,
		Desc:  strings.EqualFold(string(sorting.Direction), string(models.SortDesc)),
	}
	if key.Field == src.PrimaryKey {
		return []SortKey{key}
	}
	return []SortKey{key, pk}
}

func buildProjection(src Source, columns []models.ColumnSpec) []string {
	seen := map[string]bool{src.PrimaryKey: true}
	out := []string{src.PrimaryKey}

	add := func(field string) {
		if field == "" || seen[field] || !condition.IsSafeField(field) {
			return
		}
		seen[field] = true
		out = append(out, field)
	}

	for _, c := range columns {
		add(c.ID)
	}
	for _, c := range columns {
		if c.Type == models.ColumnTypeLink {
			for _, f := range c.URLFields() {
				add(f)
			}
		}
	}
	return out
}
