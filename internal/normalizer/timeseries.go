package normalizer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"cryptodata/internal/document"
)

// DateLayout is the only accepted layout for caller-supplied dates.
const DateLayout = "2006-01-02"

// Unit is the resolution of numeric epoch timestamps.
type Unit int

// Epoch units.
const (
	UnitSeconds Unit = iota
	UnitMilliseconds
)

// timestampLayouts are tried, in order, for string timestamps in responses.
var timestampLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"20060102",
}

// NormalizeOptions selects the date source of a frame.
type NormalizeOptions struct {
	// DateColumn becomes the index when the frame has it. When empty or
	// missing, the frame's row labels are parsed as dates instead.
	DateColumn string
	Unit       Unit
}

// TimeSeries is a table indexed by calendar date. Dates are UTC midnight,
// strictly ascending and unique.
type TimeSeries struct {
	pos     map[string]int
	dates   []time.Time
	columns []Column
}

func newSeries(dates []time.Time) *TimeSeries {
	return &TimeSeries{dates: dates, pos: make(map[string]int)}
}

func (ts *TimeSeries) addColumn(key Key, values []document.Value) {
	if i, ok := ts.pos[key.id()]; ok {
		ts.columns[i].Values = values

		return
	}

	ts.pos[key.id()] = len(ts.columns)
	ts.columns = append(ts.columns, Column{Key: key.clone(), Values: values})
}

// Len returns the number of dates.
func (ts *TimeSeries) Len() int {
	return len(ts.dates)
}

// Dates returns the index.
func (ts *TimeSeries) Dates() []time.Time {
	out := make([]time.Time, len(ts.dates))
	copy(out, ts.dates)

	return out
}

// Keys returns the column keys in order.
func (ts *TimeSeries) Keys() []Key {
	keys := make([]Key, len(ts.columns))
	for i, c := range ts.columns {
		keys[i] = c.Key.clone()
	}

	return keys
}

// Column returns a copy of the column addressed by key.
func (ts *TimeSeries) Column(key ...string) ([]document.Value, bool) {
	i, ok := ts.pos[Key(key).id()]
	if !ok {
		return nil, false
	}

	out := make([]document.Value, len(ts.columns[i].Values))
	copy(out, ts.columns[i].Values)

	return out, true
}

// Lookup returns the value on date d for the column addressed by key.
func (ts *TimeSeries) Lookup(d time.Time, key ...string) (document.Value, bool) {
	i, ok := ts.pos[Key(key).id()]
	if !ok {
		return document.Value{}, false
	}

	row, found := ts.rowOf(truncateDay(d))
	if !found {
		return document.Value{}, false
	}

	return ts.columns[i].Values[row], true
}

func (ts *TimeSeries) rowOf(d time.Time) (int, bool) {
	row := sort.Search(len(ts.dates), func(i int) bool { return !ts.dates[i].Before(d) })

	return row, row < len(ts.dates) && ts.dates[row].Equal(d)
}

// Frame converts the series to a frame labelled YYYY-MM-DD.
func (ts *TimeSeries) Frame() *Frame {
	index := make([]string, len(ts.dates))
	for i, d := range ts.dates {
		index[i] = d.Format(DateLayout)
	}

	out := NewFrame(index)
	for _, c := range ts.columns {
		// Series columns always hold one value per date.
		_ = out.AddColumn(c.Key, c.Values)
	}

	return out
}

// WithSuffix returns a copy whose innermost key parts end with suffix.
func (ts *TimeSeries) WithSuffix(suffix string) *TimeSeries {
	out := newSeries(ts.Dates())

	for _, c := range ts.columns {
		key := c.Key.clone()
		if len(key) > 0 {
			key[len(key)-1] += suffix
		}

		out.addColumn(key, c.Values)
	}

	return out
}

// CrossSection keeps the columns whose key part at level equals value and
// drops that level from their keys.
func (ts *TimeSeries) CrossSection(level int, value string) *TimeSeries {
	out := newSeries(ts.Dates())

	for _, c := range ts.columns {
		if level >= len(c.Key) || c.Key[level] != value {
			continue
		}

		key := make(Key, 0, len(c.Key)-1)
		key = append(key, c.Key[:level]...)
		key = append(key, c.Key[level+1:]...)
		out.addColumn(key, c.Values)
	}

	return out
}

// JoinLeft adds the columns of other, aligned on the dates of ts.
func (ts *TimeSeries) JoinLeft(other *TimeSeries) *TimeSeries {
	out := newSeries(ts.Dates())

	for _, c := range ts.columns {
		out.addColumn(c.Key, c.Values)
	}

	for _, c := range other.columns {
		values := make([]document.Value, len(ts.dates))

		for r, d := range ts.dates {
			if src, ok := other.rowOf(d); ok {
				values[r] = c.Values[src]
			}
		}

		out.addColumn(c.Key, values)
	}

	return out
}

// ConcatSeries outer-joins series on date. When keys is non-nil each
// series' column keys are prefixed with its key.
func ConcatSeries(keys []string, series []*TimeSeries) (*TimeSeries, error) {
	if keys != nil && len(keys) != len(series) {
		return nil, fmt.Errorf("%w: %d keys for %d series", ErrLengthMismatch, len(keys), len(series))
	}

	seen := make(map[int64]bool)

	var dates []time.Time

	for _, s := range series {
		for _, d := range s.dates {
			if !seen[dayNumber(d)] {
				seen[dayNumber(d)] = true
				dates = append(dates, d)
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := newSeries(dates)

	for i, s := range series {
		for _, c := range s.columns {
			values := make([]document.Value, len(dates))

			for r, d := range dates {
				if src, ok := s.rowOf(d); ok {
					values[r] = c.Values[src]
				}
			}

			key := c.Key
			if keys != nil {
				key = append(Key{keys[i]}, c.Key...)
			}

			out.addColumn(key, values)
		}
	}

	return out, nil
}

// Normalize indexes a frame by calendar date. Numeric timestamps are read in
// opts.Unit; the time of day is discarded. Rows sharing a date collapse to
// the one that arrived last, and the result is sorted ascending.
func Normalize(f *Frame, opts NormalizeOptions) (*TimeSeries, error) {
	var (
		dateValues []document.Value
		fromColumn bool
	)

	if opts.DateColumn != "" {
		dateValues, fromColumn = f.Column(opts.DateColumn)
	}

	raw := make([]time.Time, f.Len())

	for i := range raw {
		var (
			d   time.Time
			err error
		)

		if fromColumn {
			d, err = toDate(dateValues[i], opts.Unit)
		} else {
			d, err = parseTimestamp(f.index[i])
		}

		if err != nil {
			if !fromColumn && opts.DateColumn != "" {
				return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.DateColumn)
			}

			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidTimestamp, i, err)
		}

		raw[i] = d
	}

	// Last write wins by arrival order.
	lastRow := make(map[int64]int, len(raw))

	var dates []time.Time

	for i, d := range raw {
		if _, ok := lastRow[dayNumber(d)]; !ok {
			dates = append(dates, d)
		}

		lastRow[dayNumber(d)] = i
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := newSeries(dates)

	for _, c := range f.columns {
		if fromColumn && len(c.Key) == 1 && c.Key[0] == opts.DateColumn {
			continue
		}

		values := make([]document.Value, len(dates))
		for r, d := range dates {
			values[r] = c.Values[lastRow[dayNumber(d)]]
		}

		out.addColumn(c.Key, values)
	}

	return out, nil
}

func toDate(v document.Value, unit Unit) (time.Time, error) {
	switch v.Kind() {
	case document.KindNumber:
		f, ok := v.Float64()
		if !ok {
			return time.Time{}, fmt.Errorf("number %s out of range", v)
		}

		return epochDate(f, unit), nil
	case document.KindString:
		s, _ := v.Str()
		if t, err := parseTimestamp(s); err == nil {
			return t, nil
		}

		// Digit strings matching no layout, such as "1633046400", are epochs.
		if isEpochString(s) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return time.Time{}, err
			}

			return epochDate(f, unit), nil
		}

		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	}

	return time.Time{}, fmt.Errorf("cannot read a date from a %s", v.Kind())
}

func isEpochString(s string) bool {
	if s == "" {
		return false
	}

	return strings.Trim(s, "0123456789.") == ""
}

func epochDate(f float64, unit Unit) time.Time {
	var t time.Time

	switch unit {
	case UnitMilliseconds:
		t = time.UnixMilli(int64(math.Floor(f)))
	default:
		t = time.Unix(int64(math.Floor(f)), 0)
	}

	return truncateDay(t)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayNumber(d time.Time) int64 {
	return d.Unix() / 86400
}
