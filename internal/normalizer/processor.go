// Package normalizer turns nested JSON API responses into flat tables and
// date-indexed time series.
package normalizer

import (
	"fmt"

	"cryptodata/internal/document"
)

// Processor turns a time-series response into a filtered TimeSeries.
type Processor struct {
	validator *Validator
	opts      NormalizeOptions
	columns   []string
}

// NewProcessor creates a processor for responses shaped as arrays of records.
func NewProcessor(opts NormalizeOptions) *Processor {
	return &Processor{
		validator: NewValidator(),
		opts:      opts,
	}
}

// NewRowProcessor creates a processor for responses shaped as arrays of
// positional rows, read with the given column names.
func NewRowProcessor(columns []string, opts NormalizeOptions) *Processor {
	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Processor{
		validator: NewValidator(),
		opts:      opts,
		columns:   cols,
	}
}

// Process validates doc, tabulates it, indexes it by date and keeps the
// rows inside r.
func (p *Processor) Process(doc document.Value, r DateRange) (*TimeSeries, error) {
	frame, err := p.Frame(doc)
	if err != nil {
		return nil, err
	}

	ts, err := Normalize(frame, p.opts)
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}

	return FilterRange(ts, r), nil
}

// Frame validates doc and tabulates it without date handling.
func (p *Processor) Frame(doc document.Value) (*Frame, error) {
	if p.columns != nil {
		if err := p.validator.ValidateRows(doc, len(p.columns)); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		return FrameFromRows(p.columns, doc.Items())
	}

	if err := p.validator.Validate(doc); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return recordsFrame(doc.Items()), nil
}
