package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"cryptodata/internal/document"
	"cryptodata/pkg/utils"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
)

// SheetName names the worksheet written by WriteXLSX.
const SheetName = "data"

// ErrUnknownFormat is returned by Write for an unsupported format.
var ErrUnknownFormat = errors.New("unknown output format")

// Options tunes rendering.
type Options struct {
	// MaxCellWidth truncates text table cells to this display width. Zero
	// disables truncation.
	MaxCellWidth int
}

// Write renders t to w in the named format.
func Write(w io.Writer, format string, t *Table, opts Options) error {
	switch format {
	case FormatTable, "":
		return RenderText(w, t, opts)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// RenderText writes t as an aligned pipe table. Multi-level column keys take
// one header line per level.
func RenderText(w io.Writer, t *Table, opts Options) error {
	strs := utils.NewStringHelper()

	header := t.headerRows()
	table := make([][]string, 0, len(header)+1+len(t.Cells))

	for _, row := range header {
		table = append(table, truncateRow(strs, row, opts.MaxCellWidth))
	}

	table = append(table, nil)

	for r, cells := range t.Cells {
		row := make([]string, 0, len(cells)+1)
		row = append(row, t.Index[r])

		for _, v := range cells {
			row = append(row, cellText(v))
		}

		table = append(table, truncateRow(strs, row, opts.MaxCellWidth))
	}

	for _, line := range alignTable(table, len(header)) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func truncateRow(strs *utils.StringHelper, row []string, maxWidth int) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strs.TruncateString(escapeCell(strs, cell), maxWidth)
	}

	return out
}

// WriteJSON writes t as an indented array of objects, one per row. Each
// object carries the row label under the index name (or "index") followed
// by the row's present cells keyed by their joined column key.
func WriteJSON(w io.Writer, t *Table) error {
	indexName := t.IndexName
	if indexName == "" {
		indexName = "index"
	}

	rows := make([]document.Value, len(t.Cells))

	for r, cells := range t.Cells {
		fields := make([]document.Field, 0, len(cells)+1)
		fields = append(fields, document.F(indexName, document.String(t.Index[r])))

		for c, v := range cells {
			if v.IsAbsent() {
				continue
			}

			fields = append(fields, document.F(t.Keys[c].String(), v))
		}

		rows[r] = document.Object(fields...)
	}

	raw, err := document.Array(rows...).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to indent json: %w", err)
	}

	buf.WriteByte('\n')

	_, err = buf.WriteTo(w)

	return err
}

// WriteCSV writes t with one header line per key level.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	for _, row := range t.headerRows() {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for r, cells := range t.Cells {
		row := make([]string, 0, len(cells)+1)
		row = append(row, t.Index[r])

		for _, v := range cells {
			row = append(row, cellText(v))
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteXLSX writes t as a single-sheet workbook. Numbers and booleans keep
// their cell types; nested values are stored as JSON text.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := t.headerRows()

	for r, row := range header {
		values := make([]any, len(row))
		for i, s := range row {
			values[i] = s
		}

		if err := setRow(f, r+1, values); err != nil {
			return err
		}
	}

	for r, cells := range t.Cells {
		values := make([]any, 0, len(cells)+1)
		values = append(values, t.Index[r])

		for _, v := range cells {
			values = append(values, xlsxValue(v))
		}

		if err := setRow(f, len(header)+r+1, values); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}

	return nil
}

func xlsxValue(v document.Value) any {
	switch v.Kind() {
	case document.KindAbsent, document.KindNull:
		return nil
	case document.KindBool:
		b, _ := v.Bool()

		return b
	case document.KindNumber:
		if f, ok := v.Float64(); ok {
			return f
		}
	}

	return strings.TrimSpace(v.String())
}
