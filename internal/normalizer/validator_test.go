package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cryptodata/internal/document"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "records", doc: `[{"a":1},{"b":2}]`},
		{name: "empty", doc: `[]`},
		{name: "object", doc: `{"a":1}`, wantErr: ErrNotArray},
		{name: "mixed", doc: `[{"a":1},2]`, wantErr: ErrMalformedShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(document.MustParse(tt.doc))
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, v.Validate(document.Value{}), ErrNotArray)
}

func TestValidator_ValidateRows(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateRows(document.MustParse(`[[1,2],[3]]`), 2))
	assert.ErrorIs(t, v.ValidateRows(document.MustParse(`[[1,2,3]]`), 2), ErrRowTooWide)
	assert.ErrorIs(t, v.ValidateRows(document.MustParse(`[{"a":1}]`), 2), ErrMalformedShape)
	assert.ErrorIs(t, v.ValidateRows(document.MustParse(`"x"`), 2), ErrNotArray)
}
