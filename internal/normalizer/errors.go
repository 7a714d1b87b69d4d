package normalizer

import (
	"errors"
	"fmt"

	"cryptodata/internal/document"
)

// Normalization errors.
var (
	ErrMalformedShape   = errors.New("malformed input shape")
	ErrDateFormat       = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrMissingColumn    = errors.New("column not found")
	ErrLengthMismatch   = errors.New("column length does not match row count")
	ErrNotSingleLevel   = errors.New("operation requires single-level column keys")
)

// ShapeError reports a cell whose variant does not match what an operation expects.
type ShapeError struct {
	Entity   string
	Row      int
	Expected document.Kind
	Got      document.Kind
}

func (e *ShapeError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: row %d: expected %s, got %s", ErrMalformedShape, e.Row, e.Expected, e.Got)
	}

	return fmt.Sprintf("%s: entity %q row %d: expected %s, got %s",
		ErrMalformedShape, e.Entity, e.Row, e.Expected, e.Got)
}

// Unwrap lets errors.Is match ErrMalformedShape.
func (e *ShapeError) Unwrap() error {
	return ErrMalformedShape
}
