// Package document provides the tagged JSON value decoded from provider responses.
package document

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds. The zero Value is KindAbsent and marks a missing cell.
const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

var kindNames = [...]string{
	KindAbsent: "absent",
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindObject: "object",
	KindArray:  "array",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Field is one key/value pair of an object.
type Field struct {
	Key   string
	Value Value
}

// Value is an immutable JSON value. Objects keep their key order.
type Value struct {
	fields []Field
	items  []Value
	text   string // string contents or number literal
	kind   Kind
	b      bool
}

// Null returns a JSON null.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a number value from its JSON literal.
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Int returns a number value.
func Int(i int64) Value { return Number(strconv.FormatInt(i, 10)) }

// Float returns a number value.
func Float(f float64) Value { return Number(strconv.FormatFloat(f, 'f', -1, 64)) }

// Object builds an object. A repeated key keeps its first position and its last value.
func Object(fields ...Field) Value {
	out := make([]Field, 0, len(fields))
	pos := make(map[string]int, len(fields))

	for _, f := range fields {
		if i, ok := pos[f.Key]; ok {
			out[i].Value = f.Value

			continue
		}

		pos[f.Key] = len(out)
		out = append(out, f)
	}

	return Value{kind: KindObject, fields: out}
}

// Array builds an array.
func Array(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)

	return Value{kind: KindArray, items: out}
}

// F is shorthand for a Field.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the missing-cell marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether v is a JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is null, a bool, a number or a string.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	}

	return false
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.text, v.kind == KindString
}

// Literal returns the JSON literal of a number.
func (v Value) Literal() (string, bool) {
	return v.text, v.kind == KindNumber
}

// Float64 converts a number to float64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Int64 converts an integral number to int64.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	i, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, false
	}

	return i, true
}

// Len returns the number of fields or items, zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.fields)
	case KindArray:
		return len(v.items)
	}

	return 0
}

// Fields returns a copy of the object's fields.
func (v Value) Fields() []Field {
	if v.kind != KindObject {
		return nil
	}

	out := make([]Field, len(v.fields))
	copy(out, v.fields)

	return out
}

// Keys returns the object's keys in order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}

	keys := make([]string, len(v.fields))
	for i, f := range v.fields {
		keys[i] = f.Key
	}

	return keys
}

// Items returns a copy of the array's items.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}

	out := make([]Value, len(v.items))
	copy(out, v.items)

	return out
}

// Get looks up a key of an object.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}

	return Value{}, false
}

// Path follows a chain of object keys.
func (v Value) Path(keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}, false
		}

		cur = next
	}

	return cur, true
}

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}

	return v.items[i], true
}

// EachField calls fn for every field in order until fn returns false.
func (v Value) EachField(fn func(key string, value Value) bool) {
	for _, f := range v.fields {
		if !fn(f.Key, f.Value) {
			return
		}
	}
}

// EachItem calls fn for every array item in order until fn returns false.
func (v Value) EachItem(fn func(i int, value Value) bool) {
	for i, item := range v.items {
		if !fn(i, item) {
			return
		}
	}
}

// Equal reports deep equality. Object field order is significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber, KindString:
		return v.text == o.text
	case KindObject:
		if len(v.fields) != len(o.fields) {
			return false
		}

		for i := range v.fields {
			if v.fields[i].Key != o.fields[i].Key || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}

		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
	}

	return true
}

// String renders v for display: raw text for strings, literals for
// numbers, compact JSON for containers and an empty string when absent.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return ""
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return ""
	}

	return string(data)
}

// MarshalJSON encodes v keeping object key order. Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindAbsent, KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.text)
	case KindString:
		return writeString(buf, v.text)
	case KindObject:
		buf.WriteByte('{')

		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeString(buf, f.Key); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')

		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	}

	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	buf.Write(data)

	return nil
}
