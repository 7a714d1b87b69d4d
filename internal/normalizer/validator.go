package normalizer

import (
	"errors"
	"fmt"

	"cryptodata/internal/document"
)

// Validation errors.
var (
	ErrNotArray   = errors.New("response is not an array")
	ErrRowTooWide = errors.New("row has more values than columns")
)

// Validator checks that a response has the shape a table can be built from.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that doc is an array of objects.
func (v *Validator) Validate(doc document.Value) error {
	if doc.Kind() != document.KindArray {
		return fmt.Errorf("%w: got %s", ErrNotArray, doc.Kind())
	}

	var err error

	doc.EachItem(func(i int, item document.Value) bool {
		if item.Kind() != document.KindObject {
			err = &ShapeError{Row: i, Expected: document.KindObject, Got: item.Kind()}

			return false
		}

		return true
	})

	return err
}

// ValidateRows checks that doc is an array of arrays no wider than width.
func (v *Validator) ValidateRows(doc document.Value, width int) error {
	if doc.Kind() != document.KindArray {
		return fmt.Errorf("%w: got %s", ErrNotArray, doc.Kind())
	}

	var err error

	doc.EachItem(func(i int, item document.Value) bool {
		if item.Kind() != document.KindArray {
			err = &ShapeError{Row: i, Expected: document.KindArray, Got: item.Kind()}

			return false
		}

		if item.Len() > width {
			err = fmt.Errorf("%w: row %d has %d values, %d columns", ErrRowTooWide, i, item.Len(), width)

			return false
		}

		return true
	})

	return err
}
