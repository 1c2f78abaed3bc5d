package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one formatted report row. Keys keep insertion order so rows serialise
// in report column order.
type Row struct {
	keys   []string
	values map[string]any
}

func NewRow(size int) Row {
	return Row{
		keys:   make([]string, 0, size),
		values: make(map[string]any, size),
	}
}

func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Row) Len() int {
	return len(r.keys)
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	*r = NewRow(0)
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row key must be a string")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		r.Set(key, v)
	}

	_, err = dec.Token()
	return err
}
