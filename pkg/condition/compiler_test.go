package condition

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want bson.M
	}{
		{
			name: "Equals",
			pred: Predicate{Field: "status", Op: OpEquals, Value: "available"},
			want: bson.M{"status": bson.M{"$eq": "available"}},
		},
		{
			name: "Contains Escapes Regex",
			pred: Predicate{Field: "name", Op: OpContains, Value: "mac.book"},
			want: bson.M{"name": bson.M{"$regex": primitive.Regex{Pattern: `mac\.book`, Options: "i"}}},
		},
		{
			name: "Starts With",
			pred: Predicate{Field: "asset_tag", Op: OpStartsWith, Value: "LT"},
			want: bson.M{"asset_tag": bson.M{"$regex": primitive.Regex{Pattern: "^LT", Options: "i"}}},
		},
		{
			name: "Between",
			pred: Predicate{Field: "purchase_cost", Op: OpBetween, Values: []any{10.0, 20.0}},
			want: bson.M{"purchase_cost": bson.M{"$gte": 10.0, "$lte": 20.0}},
		},
		{
			name: "Not Between Matches Missing",
			pred: Predicate{Field: "purchase_cost", Op: OpNotBetween, Values: []any{1.0, 10.0}},
			want: bson.M{"$or": bson.A{
				bson.M{"purchase_cost": nil},
				bson.M{"purchase_cost": bson.M{"$lt": 1.0}},
				bson.M{"purchase_cost": bson.M{"$gt": 10.0}},
			}},
		},
		{
			name: "Not In",
			pred: Predicate{Field: "status", Op: OpNotIn, Values: []any{"a", "b"}},
			want: bson.M{"status": bson.M{"$nin": []any{"a", "b"}}},
		},
		{
			name: "Null",
			pred: Predicate{Field: "deleted_at", Op: OpNull},
			want: bson.M{"deleted_at": nil},
		},
	}

	c := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Compile([]Predicate{tt.pred})
			want := bson.M{"$and": []bson.M{tt.want}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Compile() = %v, want %v", got, want)
			}
		})
	}
}

func TestCompileEmpty(t *testing.T) {
	if got := NewCompiler().Compile(nil); len(got) != 0 {
		t.Errorf("Compile(nil) = %v, want empty document", got)
	}
}

func TestPredicateStringKeepsOrder(t *testing.T) {
	p := Predicate{Field: "status", Op: OpIn, Values: []any{"a", "b"}}
	if got := p.String(); got != "status in (a, b)" {
		t.Errorf("String() = %q", got)
	}
}
