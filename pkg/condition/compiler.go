package condition

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compiler turns predicates into a MongoDB filter document.
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile ANDs every predicate in order. An empty list matches everything.
func (c *Compiler) Compile(preds []Predicate) bson.M {
	if len(preds) == 0 {
		return bson.M{}
	}

	conditions := make([]bson.M, 0, len(preds))
	for _, p := range preds {
		conditions = append(conditions, c.compilePredicate(p))
	}
	return bson.M{"$and": conditions}
}

func (c *Compiler) compilePredicate(p Predicate) bson.M {
	field := p.Field

	switch p.Op {
	case OpEquals:
		return bson.M{field: bson.M{"$eq": p.Value}}
	case OpNotEquals:
		return bson.M{field: bson.M{"$ne": p.Value}}
	case OpContains:
		return bson.M{field: bson.M{"$regex": insensitive(regexp.QuoteMeta(p.Text()))}}
	case OpNotContains:
		return bson.M{field: bson.M{"$not": insensitive(regexp.QuoteMeta(p.Text()))}}
	case OpStartsWith:
		return bson.M{field: bson.M{"$regex": insensitive("^" + regexp.QuoteMeta(p.Text()))}}
	case OpEndsWith:
		return bson.M{field: bson.M{"$regex": insensitive(regexp.QuoteMeta(p.Text()) + "$")}}
	case OpGreaterThan:
		return bson.M{field: bson.M{"$gt": p.Value}}
	case OpLessThan:
		return bson.M{field: bson.M{"$lt": p.Value}}
	case OpGreaterThanEquals:
		return bson.M{field: bson.M{"$gte": p.Value}}
	case OpLessThanEquals:
		return bson.M{field: bson.M{"$lte": p.Value}}
	case OpBetween:
		return bson.M{field: bson.M{"$gte": p.Values[0], "$lte": p.Values[1]}}
	case OpNotBetween:
		// missing and null values fall outside every range
		return bson.M{"$or": bson.A{
			bson.M{field: nil},
			bson.M{field: bson.M{"$lt": p.Values[0]}},
			bson.M{field: bson.M{"$gt": p.Values[1]}},
		}}
	case OpIn:
		return bson.M{field: bson.M{"$in": p.Values}}
	case OpNotIn:
		return bson.M{field: bson.M{"$nin": p.Values}}
	case OpNull:
		// matches both missing and explicit null
		return bson.M{field: nil}
	case OpNotNull:
		return bson.M{field: bson.M{"$ne": nil}}
	}
	return bson.M{}
}

func insensitive(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}
