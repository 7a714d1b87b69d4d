package document

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/buger/jsonparser"
)

// ErrInvalidJSON is returned when a payload cannot be decoded.
var ErrInvalidJSON = errors.New("invalid JSON document")

// whitespace is the set of insignificant bytes allowed around a JSON value.
const whitespace = " \t\r\n"

// Parse decodes a JSON payload into a Value, keeping object key order. The
// payload must be valid UTF-8 holding exactly one value.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return Value{}, fmt.Errorf("%w: not valid UTF-8", ErrInvalidJSON)
	}

	raw, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	if rest := bytes.TrimLeft(data[end:], whitespace); len(rest) > 0 {
		return Value{}, fmt.Errorf("%w: unexpected data at offset %d", ErrInvalidJSON, len(data)-len(rest))
	}

	v, err := decode(raw, dataType)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}

	return v
}

func decode(raw []byte, dataType jsonparser.ValueType) (Value, error) {
	switch dataType {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, err
		}

		return Bool(b), nil
	case jsonparser.Number:
		return Number(string(raw)), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, err
		}

		return String(s), nil
	case jsonparser.Object:
		return decodeObject(raw)
	case jsonparser.Array:
		return decodeArray(raw)
	}

	return Value{}, fmt.Errorf("unsupported value type %s", dataType)
}

func decodeObject(raw []byte) (Value, error) {
	var fields []Field

	err := jsonparser.ObjectEach(raw, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		v, err := decode(value, dataType)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}

		fields = append(fields, Field{Key: string(key), Value: v})

		return nil
	})
	if err != nil {
		return Value{}, err
	}

	return Object(fields...), nil
}

func decodeArray(raw []byte) (Value, error) {
	var (
		items    []Value
		itemErr  error
		position int
	)

	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		defer func() { position++ }()

		if itemErr != nil {
			return
		}

		if err != nil {
			itemErr = err

			return
		}

		v, decodeErr := decode(value, dataType)
		if decodeErr != nil {
			itemErr = fmt.Errorf("index %d: %w", position, decodeErr)

			return
		}

		items = append(items, v)
	})
	if err != nil {
		return Value{}, err
	}

	if itemErr != nil {
		return Value{}, itemErr
	}

	return Value{kind: KindArray, items: items}, nil
}
