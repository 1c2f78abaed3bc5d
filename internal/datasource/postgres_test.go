package datasource

import (
	"context"
	"errors"
	"testing"

	"go-itam/internal/query"
	"go-itam/pkg/condition"

	"github.com/DATA-DOG/go-sqlmock"
)

func assetQuery() query.Query {
	return query.Query{
		Source: query.Source{Name: "assets", PrimaryKey: "id"},
		Predicates: []condition.Predicate{
			{Field: "status", Op: condition.OpEquals, Value: "available"},
			{Field: "name", Op: condition.OpContains, Value: "50%"},
		},
		Sort:    []query.SortKey{{Field: "name", Desc: true}, {Field: "id"}},
		Columns: []string{"id", "name"},
	}
}

func TestPostgresCount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT(*) FROM "assets" WHERE "status" = $1 AND "name"::text ILIKE $2`).
		WithArgs("available", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := NewPostgres(db).Count(context.Background(), assetQuery())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 7 {
		t.Errorf("Count() = %d, want 7", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresFetch(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT "id", "name" FROM "assets" WHERE "status" = $1 AND "name"::text ILIKE $2 ORDER BY "name" DESC, "id" ASC LIMIT $3 OFFSET $4`).
		WithArgs("available", `%50\%%`, int64(25), int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(9), []byte("Dock 50% off")))

	rows, err := NewPostgres(db).Fetch(context.Background(), assetQuery(), 50, 25)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0]["id"] != int64(9) {
		t.Errorf("id = %#v, want 9", rows[0]["id"])
	}
	if rows[0]["name"] != "Dock 50% off" {
		t.Errorf("name = %#v, bytes should be returned as string", rows[0]["name"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresFetchError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	if _, err := NewPostgres(db).Fetch(context.Background(), assetQuery(), 0, 10); !errors.Is(err, boom) {
		t.Errorf("Fetch() error = %v, want wrapped %v", err, boom)
	}
}

func TestCompileSQL(t *testing.T) {
	tests := []struct {
		name  string
		preds []condition.Predicate
		where string
		args  int
	}{
		{"empty", nil, "", 0},
		{
			"null checks take no args",
			[]condition.Predicate{{Field: "eol_date", Op: condition.OpNull}, {Field: "name", Op: condition.OpNotNull}},
			` WHERE "eol_date" IS NULL AND "name" IS NOT NULL`, 0,
		},
		{
			"set binds one array",
			[]condition.Predicate{{Field: "status", Op: condition.OpIn, Values: []any{"a", "b"}}},
			` WHERE "status" = ANY($1)`, 1,
		},
		{
			"not in keeps nulls",
			[]condition.Predicate{{Field: "status", Op: condition.OpNotIn, Values: []any{"a"}}},
			` WHERE ("status" IS NULL OR NOT ("status" = ANY($1)))`, 1,
		},
		{
			"empty in matches nothing",
			[]condition.Predicate{{Field: "status", Op: condition.OpIn, Values: []any{}}},
			` WHERE FALSE`, 0,
		},
		{
			"not between keeps nulls",
			[]condition.Predicate{{Field: "purchase_cost", Op: condition.OpNotBetween, Values: []any{1.0, 2.0}}},
			` WHERE ("purchase_cost" IS NULL OR "purchase_cost" NOT BETWEEN $1 AND $2)`, 2,
		},
		{
			"dotted field reads jsonb",
			[]condition.Predicate{{Field: "category.name", Op: condition.OpEquals, Value: "Laptops"}},
			` WHERE "category"->>'name' = $1`, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := compileSQL(tt.preds, 1)
			if where != tt.where {
				t.Errorf("where = %q, want %q", where, tt.where)
			}
			if len(args) != tt.args {
				t.Errorf("len(args) = %d, want %d", len(args), tt.args)
			}
		})
	}
}
