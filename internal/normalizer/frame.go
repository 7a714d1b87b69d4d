package normalizer

import (
	"fmt"
	"strconv"
	"strings"

	"cryptodata/internal/document"
)

// Key addresses a column. Multi-part keys form a column hierarchy,
// e.g. (protocol, chain, asset).
type Key []string

// String joins the key parts with "/".
func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) id() string {
	return strings.Join(k, "\x1f")
}

func (k Key) clone() Key {
	out := make(Key, len(k))
	copy(out, k)

	return out
}

// Column is a keyed vector of cells aligned with a frame's index.
type Column struct {
	Key    Key
	Values []document.Value
}

// Frame is a column-oriented table with string row labels.
// Missing cells hold the absent value.
type Frame struct {
	pos     map[string]int
	index   []string
	columns []Column
	groups  []string
}

// NewFrame creates an empty frame with the given row labels.
func NewFrame(index []string) *Frame {
	idx := make([]string, len(index))
	copy(idx, index)

	return &Frame{
		index: idx,
		pos:   make(map[string]int),
	}
}

// ordinalIndex returns the labels "0".."n-1".
func ordinalIndex(n int) []string {
	idx := make([]string, n)
	for i := range idx {
		idx[i] = strconv.Itoa(i)
	}

	return idx
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	return len(f.columns)
}

// Index returns the row labels.
func (f *Frame) Index() []string {
	out := make([]string, len(f.index))
	copy(out, f.index)

	return out
}

// Keys returns the column keys in order.
func (f *Frame) Keys() []Key {
	keys := make([]Key, len(f.columns))
	for i, c := range f.columns {
		keys[i] = c.Key.clone()
	}

	return keys
}

// Groups returns the top-level column groups. Frames built by ConcatFrames
// report every key passed in, including groups that hold no columns.
func (f *Frame) Groups() []string {
	if f.groups != nil {
		out := make([]string, len(f.groups))
		copy(out, f.groups)

		return out
	}

	var groups []string

	seen := make(map[string]bool)

	for _, c := range f.columns {
		if len(c.Key) == 0 || seen[c.Key[0]] {
			continue
		}

		seen[c.Key[0]] = true
		groups = append(groups, c.Key[0])
	}

	return groups
}

// AddColumn appends a column, replacing any column with the same key.
func (f *Frame) AddColumn(key Key, values []document.Value) error {
	if len(values) != len(f.index) {
		return fmt.Errorf("%w: column %s has %d values, frame has %d rows",
			ErrLengthMismatch, key, len(values), len(f.index))
	}

	vals := make([]document.Value, len(values))
	copy(vals, values)

	if f.pos == nil {
		f.pos = make(map[string]int)
	}

	if i, ok := f.pos[key.id()]; ok {
		f.columns[i].Values = vals

		return nil
	}

	f.pos[key.id()] = len(f.columns)
	f.columns = append(f.columns, Column{Key: key.clone(), Values: vals})

	return nil
}

// Column returns a copy of the column addressed by key.
func (f *Frame) Column(key ...string) ([]document.Value, bool) {
	i, ok := f.pos[Key(key).id()]
	if !ok {
		return nil, false
	}

	out := make([]document.Value, len(f.columns[i].Values))
	copy(out, f.columns[i].Values)

	return out, true
}

// Cell returns the value at row for the column addressed by key.
func (f *Frame) Cell(row int, key ...string) document.Value {
	i, ok := f.pos[Key(key).id()]
	if !ok || row < 0 || row >= len(f.index) {
		return document.Value{}
	}

	return f.columns[i].Values[row]
}

// SetIndex promotes a single-level column to be the row labels.
func (f *Frame) SetIndex(column string) (*Frame, error) {
	labels, ok := f.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}

	index := make([]string, len(labels))
	for i, v := range labels {
		index[i] = v.String()
	}

	out := NewFrame(index)

	for _, c := range f.columns {
		if len(c.Key) == 1 && c.Key[0] == column {
			continue
		}

		if err := out.AddColumn(c.Key, c.Values); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Transpose swaps rows and columns. All column keys must be single-level.
func (f *Frame) Transpose() (*Frame, error) {
	index := make([]string, len(f.columns))

	for i, c := range f.columns {
		if len(c.Key) != 1 {
			return nil, fmt.Errorf("%w: %s", ErrNotSingleLevel, c.Key)
		}

		index[i] = c.Key[0]
	}

	out := NewFrame(index)

	for row, label := range f.index {
		values := make([]document.Value, len(f.columns))
		for i, c := range f.columns {
			values[i] = c.Values[row]
		}

		if err := out.AddColumn(Key{label}, values); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// WithSuffix returns a copy whose innermost key parts end with suffix.
func (f *Frame) WithSuffix(suffix string) *Frame {
	out := NewFrame(f.index)

	for _, c := range f.columns {
		key := c.Key.clone()
		if len(key) > 0 {
			key[len(key)-1] += suffix
		}

		// Columns of f already have f's row count.
		_ = out.AddColumn(key, c.Values)
	}

	return out
}

// ConcatFrames places frames side by side, prefixing each frame's keys with
// the matching entry of keys. Rows are aligned on label; the result index is
// the union of labels in first-seen order. Within one frame a repeated label
// resolves to its last row.
func ConcatFrames(keys []string, frames []*Frame) (*Frame, error) {
	if len(keys) != len(frames) {
		return nil, fmt.Errorf("%w: %d keys for %d frames", ErrLengthMismatch, len(keys), len(frames))
	}

	var index []string

	seen := make(map[string]bool)

	for _, fr := range frames {
		for _, label := range fr.index {
			if !seen[label] {
				seen[label] = true
				index = append(index, label)
			}
		}
	}

	out := NewFrame(index)
	out.groups = make([]string, 0, len(keys))
	out.groups = append(out.groups, keys...)

	for i, fr := range frames {
		rowOf := make(map[string]int, len(fr.index))
		for r, label := range fr.index {
			rowOf[label] = r
		}

		for _, c := range fr.columns {
			values := make([]document.Value, len(index))

			for r, label := range index {
				if src, ok := rowOf[label]; ok {
					values[r] = c.Values[src]
				}
			}

			key := append(Key{keys[i]}, c.Key...)
			// values is sized to the union index.
			_ = out.AddColumn(key, values)
		}
	}

	return out, nil
}

// FrameFromRecords builds a frame with one row per object. Columns are the
// union of keys in first-seen order; keys missing from a record are absent.
func FrameFromRecords(records []document.Value) (*Frame, error) {
	for i, rec := range records {
		if rec.Kind() != document.KindObject {
			return nil, &ShapeError{Row: i, Expected: document.KindObject, Got: rec.Kind()}
		}
	}

	return recordsFrame(records), nil
}

// recordsFrame assumes every record is an object.
func recordsFrame(records []document.Value) *Frame {
	var (
		keys    []string
		columns = make(map[string][]document.Value)
	)

	for row, rec := range records {
		rec.EachField(func(key string, v document.Value) bool {
			col, ok := columns[key]
			if !ok {
				col = make([]document.Value, len(records))
				keys = append(keys, key)
			}

			col[row] = v
			columns[key] = col

			return true
		})
	}

	out := NewFrame(ordinalIndex(len(records)))
	for _, k := range keys {
		// Every column is allocated with len(records) cells.
		_ = out.AddColumn(Key{k}, columns[k])
	}

	return out
}

// FrameFromRows builds a frame from positional rows such as
// [[timestamp, open, close], ...]. Short rows are padded with absent cells.
func FrameFromRows(columns []string, rows []document.Value) (*Frame, error) {
	cells := make([][]document.Value, len(columns))
	for i := range cells {
		cells[i] = make([]document.Value, len(rows))
	}

	for r, row := range rows {
		if row.Kind() != document.KindArray {
			return nil, &ShapeError{Row: r, Expected: document.KindArray, Got: row.Kind()}
		}

		if row.Len() > len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns",
				ErrLengthMismatch, r, row.Len(), len(columns))
		}

		row.EachItem(func(i int, v document.Value) bool {
			cells[i][r] = v

			return true
		})
	}

	out := NewFrame(ordinalIndex(len(rows)))
	for i, name := range columns {
		if err := out.AddColumn(Key{name}, cells[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// FrameFromFlat builds a frame with one row per record, labelled by index.
func FrameFromFlat(index []string, records []FlatRecord) (*Frame, error) {
	if len(index) != len(records) {
		return nil, fmt.Errorf("%w: %d labels for %d records", ErrLengthMismatch, len(index), len(records))
	}

	var keys []string

	seen := make(map[string]bool)

	for _, rec := range records {
		for _, k := range rec.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	out := NewFrame(index)

	for _, k := range keys {
		values := make([]document.Value, len(records))
		for r, rec := range records {
			values[r] = rec.values[k]
		}

		if err := out.AddColumn(Key{k}, values); err != nil {
			return nil, err
		}
	}

	return out, nil
}
