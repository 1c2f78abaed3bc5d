package condition

import (
	"errors"
	"testing"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filters  []models.Filter
		wantCode errs.ValidationCode
	}{
		{name: "Empty List", filters: nil},
		{
			name: "Valid Equality",
			filters: []models.Filter{
				{Field: "status", Operator: "equals", Value: "available"},
				{Field: "category.id", Operator: "EQUALS", Value: 3},
			},
		},
		{
			name:     "Injection In Field",
			filters:  []models.Filter{{Field: "1;DROP", Operator: "equals", Value: "x"}},
			wantCode: errs.CodeInvalidField,
		},
		{
			name:     "Empty Field",
			filters:  []models.Filter{{Field: "", Operator: "equals", Value: "x"}},
			wantCode: errs.CodeInvalidField,
		},
		{
			name:     "Unknown Operator",
			filters:  []models.Filter{{Field: "name", Operator: "like", Value: "x"}},
			wantCode: errs.CodeInvalidOperator,
		},
		{
			name:     "Missing Value",
			filters:  []models.Filter{{Field: "name", Operator: "contains"}},
			wantCode: errs.CodeMissingValue,
		},
		{
			name:    "Null Needs No Value",
			filters: []models.Filter{{Field: "deleted_at", Operator: "null"}, {Field: "serial", Operator: "Not_Null"}},
		},
		{
			name:     "Between Needs Pair",
			filters:  []models.Filter{{Field: "purchase_cost", Operator: "between", Value: []any{1}}},
			wantCode: errs.CodeInvalidValue,
		},
		{
			name:    "Between Pair",
			filters: []models.Filter{{Field: "purchase_cost", Operator: "not_between", Value: []float64{1, 10}}},
		},
		{
			name:     "In Needs List",
			filters:  []models.Filter{{Field: "status", Operator: "in", Value: "available"}},
			wantCode: errs.CodeInvalidValue,
		},
		{
			name:    "In List",
			filters: []models.Filter{{Field: "status", Operator: "not_in", Value: []string{"a", "b"}}},
		},
		{
			name: "First Error Wins",
			filters: []models.Filter{
				{Field: "ok", Operator: "equals", Value: 1},
				{Field: "bad field", Operator: "nope", Value: 1},
			},
			wantCode: errs.CodeInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filters)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			var verr errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if verr.Code != tt.wantCode {
				t.Errorf("Validate() code = %s, want %s", verr.Code, tt.wantCode)
			}
		})
	}
}

func TestRangeMessageNamesOperator(t *testing.T) {
	tests := []struct {
		operator string
		want     string
	}{
		{"between", "between expects exactly two values for purchase_cost"},
		{"NOT_BETWEEN", "not_between expects exactly two values for purchase_cost"},
	}
	for _, tt := range tests {
		err := ValidateFilter(models.Filter{Field: "purchase_cost", Operator: tt.operator, Value: []any{1, 2, 3}})
		if err == nil || err.Error() != tt.want {
			t.Errorf("ValidateFilter(%s) error = %v, want %q", tt.operator, err, tt.want)
		}
	}
}

func TestParseOperatorCaseInsensitive(t *testing.T) {
	op, ok := ParseOperator("  Greater_Than_Equals ")
	if !ok || op != OpGreaterThanEquals {
		t.Fatalf("ParseOperator() = %q, %v", op, ok)
	}
	if _, ok := ParseOperator("gte"); ok {
		t.Errorf("ParseOperator(gte) should be rejected")
	}
}

func TestResolveVariables(t *testing.T) {
	filters := []models.Filter{
		{Field: "assigned_to", Operator: "equals", Value: "$user.id"},
		{Field: "status", Operator: "equals", Value: "available"},
	}

	out, scoped, err := ResolveVariables(filters, map[string]any{"user.id": "u-1"})
	if err != nil {
		t.Fatalf("ResolveVariables() error = %v", err)
	}
	if !scoped {
		t.Errorf("expected user scoped result")
	}
	if out[0].Value != "u-1" || out[1].Value != "available" {
		t.Errorf("unexpected resolution: %+v", out)
	}
	if filters[0].Value != "$user.id" {
		t.Errorf("input must not be modified")
	}

	if _, _, err := ResolveVariables([]models.Filter{{Field: "x", Operator: "equals", Value: "$tenant"}}, nil); !errs.IsValidation(err) {
		t.Errorf("unknown variable should be a validation error, got %v", err)
	}
}
