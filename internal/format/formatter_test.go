package format

import (
	"errors"
	"testing"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

func intp(n int) *int { return &n }

func TestFormat(t *testing.T) {
	f := New(false, nil)

	tests := []struct {
		name  string
		value any
		col   models.ColumnSpec
		want  any
	}{
		{"nil string", nil, models.ColumnSpec{ID: "name"}, nil},
		{"nil boolean stays nil", nil, models.ColumnSpec{ID: "requestable", Type: models.ColumnTypeBoolean}, nil},
		{"date from string", "2024-03-05", models.ColumnSpec{ID: "d", Type: models.ColumnTypeDate}, "2024-03-05"},
		{"date from time", time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC), models.ColumnSpec{ID: "d", Type: models.ColumnTypeDate}, "2024-03-05"},
		{"datetime from RFC3339", "2024-03-05T10:00:00Z", models.ColumnSpec{ID: "d", Type: models.ColumnTypeDateTime}, "2024-03-05 10:00:00"},
		{"currency groups thousands", 1234.5, models.ColumnSpec{ID: "c", Type: models.ColumnTypeCurrency}, "1,234.50"},
		{"currency from string", "1234567.891", models.ColumnSpec{ID: "c", Type: models.ColumnTypeCurrency}, "1,234,567.89"},
		{"currency negative", -1234.5, models.ColumnSpec{ID: "c", Type: models.ColumnTypeCurrency}, "-1,234.50"},
		{"currency zero decimals", 1234.56, models.ColumnSpec{ID: "c", Type: models.ColumnTypeCurrency, Decimals: intp(0)}, "1,235"},
		{"currency with code", 99, models.ColumnSpec{ID: "c", Type: models.ColumnTypeCurrency, Currency: "USD"}, "USD 99.00"},
		{"number fixed point", 3, models.ColumnSpec{ID: "n", Type: models.ColumnTypeNumber}, "3.00"},
		{"decimal custom places", 2.71828, models.ColumnSpec{ID: "n", Type: models.ColumnTypeDecimal, Decimals: intp(3)}, "2.718"},
		{"percentage", 0.1567, models.ColumnSpec{ID: "p", Type: models.ColumnTypePercentage}, "15.67%"},
		{"boolean true", true, models.ColumnSpec{ID: "b", Type: models.ColumnTypeBoolean}, "Yes"},
		{"boolean from int", 0, models.ColumnSpec{ID: "b", Type: models.ColumnTypeBoolean}, "No"},
		{"array joined", []any{"a", 1, "c"}, models.ColumnSpec{ID: "a", Type: models.ColumnTypeArray}, "a, 1, c"},
		{"json passes strings through", `{"a":1}`, models.ColumnSpec{ID: "j", Type: models.ColumnTypeJSON}, `{"a":1}`},
		{"json pretty prints", map[string]any{"a": 1}, models.ColumnSpec{ID: "j", Type: models.ColumnTypeJSON}, "{\n  \"a\": 1\n}"},
		{"link returns raw value", "MBP-001", models.ColumnSpec{ID: "asset_tag", Type: models.ColumnTypeLink}, "MBP-001"},
		{"unknown type stringifies", 42, models.ColumnSpec{ID: "x", Type: "mystery"}, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(tt.value, tt.col)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFormatStrictErrors(t *testing.T) {
	f := New(false, nil)

	tests := []struct {
		name  string
		value any
		typ   models.ColumnType
	}{
		{"bad date", "not a date", models.ColumnTypeDate},
		{"empty datetime", "", models.ColumnTypeDateTime},
		{"bad currency", "abc", models.ColumnTypeCurrency},
		{"bool is not a number", true, models.ColumnTypeNumber},
		{"bad boolean", "maybe", models.ColumnTypeBoolean},
		{"scalar is not an array", 5, models.ColumnTypeArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Format(tt.value, models.ColumnSpec{ID: "col", Type: tt.typ})
			var ferr errs.FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("error = %v, want FormatError", err)
			}
			if ferr.Column != "col" || ferr.Type != string(tt.typ) {
				t.Errorf("FormatError = %+v", ferr)
			}
		})
	}
}

func TestFormatLenientFallsBackToRaw(t *testing.T) {
	f := New(true, nil)
	got, err := f.Format("not a date", models.ColumnSpec{ID: "d", Type: models.ColumnTypeDate})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got != "not a date" {
		t.Errorf("Format() = %#v, want raw string", got)
	}
}

func TestFormatRow(t *testing.T) {
	f := New(false, nil)
	columns := []models.ColumnSpec{
		{ID: "name"},
		{ID: "asset_tag", Type: models.ColumnTypeLink, URL: "/hardware/{id}?tag={asset_tag}&o={owner}"},
		{ID: "purchase_cost", Type: models.ColumnTypeCurrency},
		{ID: "missing", Type: models.ColumnTypeDate},
	}
	raw := map[string]any{"id": 7, "name": "MacBook", "asset_tag": "MBP-7", "purchase_cost": 2499}

	row, err := f.FormatRow(raw, columns)
	if err != nil {
		t.Fatalf("FormatRow() error = %v", err)
	}

	wantKeys := []string{"name", "asset_tag", "asset_tag_url", "purchase_cost", "missing"}
	keys := row.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("keys = %v, want %v", keys, wantKeys)
	}
	for i := range keys {
		if keys[i] != wantKeys[i] {
			t.Fatalf("keys = %v, want %v", keys, wantKeys)
		}
	}

	if v, _ := row.Get("asset_tag_url"); v != "/hardware/7?tag=MBP-7&o={owner}" {
		t.Errorf("asset_tag_url = %v", v)
	}
	if v, _ := row.Get("purchase_cost"); v != "2,499.00" {
		t.Errorf("purchase_cost = %v", v)
	}
	if v, ok := row.Get("missing"); !ok || v != nil {
		t.Errorf("missing = %v (present=%v), want nil", v, ok)
	}
	if _, ok := row.Get("id"); ok {
		t.Error("id is not a column and should not appear in the row")
	}
}

func TestFormatRowsStopsOnFirstError(t *testing.T) {
	f := New(false, nil)
	columns := []models.ColumnSpec{{ID: "d", Type: models.ColumnTypeDate}}
	_, err := f.FormatRows([]map[string]any{{"d": "2024-01-01"}, {"d": "garbage"}}, columns)
	if !errs.IsFormat(err) {
		t.Errorf("error = %v, want FormatError", err)
	}
}
