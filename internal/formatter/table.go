// Package formatter renders frames and time series as text tables, JSON,
// CSV and spreadsheets.
package formatter

import (
	"strconv"

	"cryptodata/internal/document"
	"cryptodata/internal/normalizer"
)

// DateIndexName heads the index column of time series.
const DateIndexName = "date"

// Table is a row-major snapshot of a frame ready for rendering.
type Table struct {
	IndexName string
	Index     []string
	Keys      []normalizer.Key
	Cells     [][]document.Value
}

// FromFrame snapshots f.
func FromFrame(f *normalizer.Frame) *Table {
	t := &Table{
		Index: f.Index(),
		Keys:  f.Keys(),
		Cells: make([][]document.Value, f.Len()),
	}

	for r := range t.Cells {
		row := make([]document.Value, len(t.Keys))
		for c, key := range t.Keys {
			row[c] = f.Cell(r, key...)
		}

		t.Cells[r] = row
	}

	return t
}

// FromSeries snapshots ts with its dates as the index.
func FromSeries(ts *normalizer.TimeSeries) *Table {
	t := FromFrame(ts.Frame())
	t.IndexName = DateIndexName

	return t
}

// FromDocument tabulates a raw document: an array of objects becomes one row
// per object and an object becomes one row per field. Nested objects are
// flattened.
func FromDocument(doc document.Value) (*Table, error) {
	switch doc.Kind() {
	case document.KindArray:
		items := doc.Items()
		records := make([]normalizer.FlatRecord, len(items))
		index := make([]string, len(items))

		for i, item := range items {
			if item.Kind() != document.KindObject {
				return nil, &normalizer.ShapeError{Row: i, Expected: document.KindObject, Got: item.Kind()}
			}

			records[i] = normalizer.Flatten(item, "", normalizer.DefaultSeparator)
			index[i] = strconv.Itoa(i)
		}

		f, err := normalizer.FrameFromFlat(index, records)
		if err != nil {
			return nil, err
		}

		return FromFrame(f), nil
	case document.KindObject:
		rec := normalizer.Flatten(doc, "", normalizer.DefaultSeparator)

		t := &Table{Index: rec.Keys(), Keys: []normalizer.Key{{"value"}}}
		for _, k := range t.Index {
			v, _ := rec.Get(k)
			t.Cells = append(t.Cells, []document.Value{v})
		}

		return t, nil
	}

	return &Table{Index: []string{"0"}, Keys: []normalizer.Key{{"value"}}, Cells: [][]document.Value{{doc}}}, nil
}

// Depth returns the number of header levels.
func (t *Table) Depth() int {
	depth := 1
	for _, k := range t.Keys {
		if len(k) > depth {
			depth = len(k)
		}
	}

	return depth
}

// headerRows renders one row per key level, headed by the index name on the
// last level.
func (t *Table) headerRows() [][]string {
	depth := t.Depth()
	rows := make([][]string, depth)

	for level := range rows {
		row := make([]string, 0, len(t.Keys)+1)

		if level == depth-1 {
			row = append(row, t.IndexName)
		} else {
			row = append(row, "")
		}

		for _, k := range t.Keys {
			if level < len(k) {
				row = append(row, k[level])
			} else {
				row = append(row, "")
			}
		}

		rows[level] = row
	}

	return rows
}

// cellText renders absent and null cells as empty text.
func cellText(v document.Value) string {
	if v.IsAbsent() || v.IsNull() {
		return ""
	}

	return v.String()
}
