package datasource

import (
	"context"
	"fmt"
	"strings"

	"go-itam/internal/query"
	"go-itam/pkg/condition"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo reads report rows from one collection per source. The "id" field is
// stored as _id and flattened back on read.
type Mongo struct {
	db       *mongo.Database
	compiler *condition.Compiler
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db, compiler: condition.NewCompiler()}
}

func storedField(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

func (m *Mongo) filter(q query.Query) bson.M {
	preds := make([]condition.Predicate, len(q.Predicates))
	for i, p := range q.Predicates {
		p.Field = storedField(p.Field)
		preds[i] = p
	}
	return m.compiler.Compile(preds)
}

func (m *Mongo) Count(ctx context.Context, q query.Query) (int64, error) {
	n, err := m.db.Collection(q.Source.Name).CountDocuments(ctx, m.filter(q))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Source.Name, err)
	}
	return n, nil
}

func (m *Mongo) Fetch(ctx context.Context, q query.Query, offset, limit int) ([]map[string]any, error) {
	opts := options.Find().SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	if len(q.Sort) > 0 {
		sort := bson.D{}
		for _, k := range q.Sort {
			dir := 1
			if k.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: storedField(k.Field), Value: dir})
		}
		opts.SetSort(sort)
	}

	if len(q.Columns) > 0 {
		projection := bson.M{}
		for _, c := range q.Columns {
			projection[storedField(c)] = 1
		}
		opts.SetProjection(projection)
	}

	cursor, err := m.db.Collection(q.Source.Name).Find(ctx, m.filter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q.Source.Name, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", q.Source.Name, err)
	}

	rows := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, flatten(d, q.Columns))
	}
	return rows, nil
}

// flatten converts a decoded document into a plain row: driver types become
// Go types and dotted columns are lifted out of nested documents.
func flatten(doc bson.M, columns []string) map[string]any {
	row := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			k = "id"
		}
		row[k] = normalize(v)
	}
	for _, c := range columns {
		if !strings.Contains(c, ".") {
			continue
		}
		if v, ok := lookupPath(row, c); ok {
			row[c] = v
		}
	}
	return row
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return primitive.DateTime(int64(t.T) * 1000).Time().UTC()
	case primitive.Decimal128:
		return t.String()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	}
	return v
}
