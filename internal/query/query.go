package query

import (
	"context"
	"fmt"
	"strings"

	"go-itam/pkg/condition"
)

type SortKey struct {
	Field string
	Desc  bool
}

func (k SortKey) String() string {
	if k.Desc {
		return k.Field + " desc"
	}
	return k.Field + " asc"
}

// Query is a backend-neutral description of one report read. Predicates are
// ANDed and keep the order they were supplied in.
type Query struct {
	Source     Source
	Predicates []condition.Predicate
	Sort       []SortKey
	Columns    []string
}

// String renders a deterministic explain line, suitable for logs.
func (q Query) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s SELECT %s", q.Source.Name, strings.Join(q.Columns, ", "))
	if len(q.Predicates) > 0 {
		where := make([]string, len(q.Predicates))
		for i, p := range q.Predicates {
			where[i] = p.String()
		}
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if len(q.Sort) > 0 {
		order := make([]string, len(q.Sort))
		for i, k := range q.Sort {
			order[i] = k.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	return b.String()
}

// DataSource executes queries against one storage backend.
type DataSource interface {
	Count(ctx context.Context, q Query) (int64, error)
	Fetch(ctx context.Context, q Query, offset, limit int) ([]map[string]any, error)
}
