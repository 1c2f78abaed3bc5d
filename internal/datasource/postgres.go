package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go-itam/internal/query"
	"go-itam/pkg/condition"

	"github.com/lib/pq"
)

// Postgres reads report rows from one table per source. Dotted fields address
// keys inside a jsonb column, so "category.name" reads "category"->>'name'.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (p *Postgres) Count(ctx context.Context, q query.Query) (int64, error) {
	where, args := compileSQL(q.Predicates, 1)
	stmt := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(q.Source.Name) + where

	var n int64
	if err := p.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Source.Name, err)
	}
	return n, nil
}

func (p *Postgres) Fetch(ctx context.Context, q query.Query, offset, limit int) ([]map[string]any, error) {
	stmt, args := selectSQL(q, offset, limit)

	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Source.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Source.Name, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func selectSQL(q query.Query, offset, limit int) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range q.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(columnExpr(c))
		if strings.Contains(c, ".") {
			b.WriteString(" AS " + pq.QuoteIdentifier(c))
		}
	}
	b.WriteString(" FROM " + pq.QuoteIdentifier(q.Source.Name))

	where, args := compileSQL(q.Predicates, 1)
	b.WriteString(where)

	if len(q.Sort) > 0 {
		order := make([]string, len(q.Sort))
		for i, k := range q.Sort {
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			order[i] = columnExpr(k.Field) + " " + dir
		}
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	args = append(args, offset)
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	return b.String(), args
}

func columnExpr(field string) string {
	parts := strings.Split(field, ".")
	if len(parts) == 1 {
		return pq.QuoteIdentifier(field)
	}
	expr := pq.QuoteIdentifier(parts[0])
	for i, p := range parts[1:] {
		if i == len(parts)-2 {
			expr += "->>" + pq.QuoteLiteral(p)
		} else {
			expr += "->" + pq.QuoteLiteral(p)
		}
	}
	return expr
}

// compileSQL renders predicates as a WHERE clause with $n placeholders
// starting at next.
func compileSQL(preds []condition.Predicate, next int) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", next+len(args)-1)
	}

	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		col := columnExpr(p.Field)
		text := col + "::text"

		var c string
		switch p.Op {
		case condition.OpEquals:
			c = col + " = " + bind(p.Value)
		case condition.OpNotEquals:
			c = col + " IS DISTINCT FROM " + bind(p.Value)
		case condition.OpContains:
			c = text + " ILIKE " + bind("%"+escapeLike(p.Text())+"%")
		case condition.OpNotContains:
			c = "(" + col + " IS NULL OR " + text + " NOT ILIKE " + bind("%"+escapeLike(p.Text())+"%") + ")"
		case condition.OpStartsWith:
			c = text + " ILIKE " + bind(escapeLike(p.Text())+"%")
		case condition.OpEndsWith:
			c = text + " ILIKE " + bind("%"+escapeLike(p.Text()))
		case condition.OpGreaterThan:
			c = col + " > " + bind(p.Value)
		case condition.OpLessThan:
			c = col + " < " + bind(p.Value)
		case condition.OpGreaterThanEquals:
			c = col + " >= " + bind(p.Value)
		case condition.OpLessThanEquals:
			c = col + " <= " + bind(p.Value)
		case condition.OpBetween:
			c = col + " BETWEEN " + bind(p.Values[0]) + " AND " + bind(p.Values[1])
		case condition.OpNotBetween:
			c = "(" + col + " IS NULL OR " + col + " NOT BETWEEN " + bind(p.Values[0]) + " AND " + bind(p.Values[1]) + ")"
		case condition.OpIn, condition.OpNotIn:
			c = setClause(col, p, bind)
		case condition.OpNull:
			c = col + " IS NULL"
		case condition.OpNotNull:
			c = col + " IS NOT NULL"
		default:
			continue
		}
		clauses = append(clauses, c)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func setClause(col string, p condition.Predicate, bind func(any) string) string {
	if len(p.Values) == 0 {
		if p.Op == condition.OpIn {
			return "FALSE"
		}
		return "TRUE"
	}
	holder := bind(pq.Array(p.Values))
	if p.Op == condition.OpIn {
		return col + " = ANY(" + holder + ")"
	}
	return "(" + col + " IS NULL OR NOT (" + col + " = ANY(" + holder + ")))"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
