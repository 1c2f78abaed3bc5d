package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go-itam/internal/query"
	"go-itam/pkg/condition"
)

// Memory is an in-process data source. Text operators are case-insensitive;
// negated operators also match rows where the field is absent.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]map[string]any)}
}

func (m *Memory) Insert(table string, rows ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		m.tables[table] = append(m.tables[table], cp)
	}
}

func (m *Memory) Count(ctx context.Context, q query.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(m.match(q))), nil
}

func (m *Memory) Fetch(ctx context.Context, q query.Query, offset, limit int) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := m.match(q)

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range q.Sort {
			a, _ := lookupPath(rows[i], k.Field)
			b, _ := lookupPath(rows[j], k.Field)
			c := orderOf(a, b)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if offset >= len(rows) {
		return []map[string]any{}, nil
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]map[string]any, 0, end-offset)
	for _, r := range rows[offset:end] {
		out = append(out, project(r, q.Columns))
	}
	return out, nil
}

func (m *Memory) match(q query.Query) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []map[string]any
	for _, r := range m.tables[q.Source.Name] {
		if matchAll(r, q.Predicates) {
			out = append(out, r)
		}
	}
	return out
}

func project(r map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		return cp
	}
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := lookupPath(r, c); ok {
			out[c] = v
		}
	}
	return out
}

func orderOf(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func matchAll(r map[string]any, preds []condition.Predicate) bool {
	for _, p := range preds {
		if !matchOne(r, p) {
			return false
		}
	}
	return true
}

func matchOne(r map[string]any, p condition.Predicate) bool {
	v, present := lookupPath(r, p.Field)
	if present && v == nil {
		present = false
	}

	switch p.Op {
	case condition.OpNull:
		return !present
	case condition.OpNotNull:
		return present
	case condition.OpNotEquals:
		c, ok := compareValues(v, p.Value)
		return !present || !ok || c != 0
	case condition.OpNotContains:
		return !present || !strings.Contains(fold(v), strings.ToLower(p.Text()))
	case condition.OpNotBetween:
		return !present || !inRange(v, p.Values)
	case condition.OpNotIn:
		return !present || !inSet(v, p.Values)
	}

	if !present {
		return false
	}

	switch p.Op {
	case condition.OpEquals:
		c, ok := compareValues(v, p.Value)
		return ok && c == 0
	case condition.OpContains:
		return strings.Contains(fold(v), strings.ToLower(p.Text()))
	case condition.OpStartsWith:
		return strings.HasPrefix(fold(v), strings.ToLower(p.Text()))
	case condition.OpEndsWith:
		return strings.HasSuffix(fold(v), strings.ToLower(p.Text()))
	case condition.OpGreaterThan:
		c, ok := compareValues(v, p.Value)
		return ok && c > 0
	case condition.OpLessThan:
		c, ok := compareValues(v, p.Value)
		return ok && c < 0
	case condition.OpGreaterThanEquals:
		c, ok := compareValues(v, p.Value)
		return ok && c >= 0
	case condition.OpLessThanEquals:
		c, ok := compareValues(v, p.Value)
		return ok && c <= 0
	case condition.OpBetween:
		return inRange(v, p.Values)
	case condition.OpIn:
		return inSet(v, p.Values)
	}
	return false
}

func fold(v any) string {
	return strings.ToLower(fmt.Sprint(v))
}

func inRange(v any, bounds []any) bool {
	if len(bounds) != 2 {
		return false
	}
	lo, ok1 := compareValues(v, bounds[0])
	hi, ok2 := compareValues(v, bounds[1])
	return ok1 && ok2 && lo >= 0 && hi <= 0
}

func inSet(v any, set []any) bool {
	for _, s := range set {
		if c, ok := compareValues(v, s); ok && c == 0 {
			return true
		}
	}
	return false
}
