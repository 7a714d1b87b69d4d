package normalizer

import "cryptodata/internal/document"

// DefaultSeparator joins nested keys.
const DefaultSeparator = "_"

// FlatRecord maps joined key paths to leaf values. No value is an object.
type FlatRecord struct {
	values map[string]document.Value
	keys   []string
}

// Set stores a value. An existing key keeps its position.
func (r *FlatRecord) Set(key string, v document.Value) {
	if r.values == nil {
		r.values = make(map[string]document.Value)
	}

	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = v
}

// Get returns the value stored under key.
func (r FlatRecord) Get(key string) (document.Value, bool) {
	v, ok := r.values[key]

	return v, ok
}

// Len returns the number of entries.
func (r FlatRecord) Len() int {
	return len(r.keys)
}

// Keys returns the keys in insertion order.
func (r FlatRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)

	return out
}

// Document returns the record as a one-level object.
func (r FlatRecord) Document() document.Value {
	fields := make([]document.Field, len(r.keys))
	for i, k := range r.keys {
		fields[i] = document.F(k, r.values[k])
	}

	return document.Object(fields...)
}

// Flatten collapses nested objects into a single-level record, joining keys
// with sep. Arrays are leaves and are never descended into.
func Flatten(doc document.Value, prefix, sep string) FlatRecord {
	var rec FlatRecord

	flattenInto(&rec, doc, prefix, sep)

	return rec
}

func flattenInto(rec *FlatRecord, doc document.Value, prefix, sep string) {
	doc.EachField(func(key string, v document.Value) bool {
		if prefix != "" {
			key = prefix + sep + key
		}

		if v.Kind() == document.KindObject {
			flattenInto(rec, v, key, sep)
		} else {
			rec.Set(key, v)
		}

		return true
	})
}
