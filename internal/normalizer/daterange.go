package normalizer

import (
	"fmt"
	"sort"
	"time"

	"cryptodata/internal/document"
)

// DateRange is a closed interval of calendar dates. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a YYYY-MM-DD date. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateFormat, s)
	}

	return t, nil
}

// ParseDateRange parses optional start and end dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}

	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}

	return DateRange{Start: s, End: e}, nil
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls within the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	d = truncateDay(d)

	if !r.Start.IsZero() && d.Before(truncateDay(r.Start)) {
		return false
	}

	if !r.End.IsZero() && d.After(truncateDay(r.End)) {
		return false
	}

	return true
}

// String renders the range as "start..end" with open bounds left blank.
func (r DateRange) String() string {
	var s, e string
	if !r.Start.IsZero() {
		s = r.Start.Format(DateLayout)
	}

	if !r.End.IsZero() {
		e = r.End.Format(DateLayout)
	}

	return s + ".." + e
}

// FilterRange returns the rows of ts whose date lies in r, in ascending order.
func FilterRange(ts *TimeSeries, r DateRange) *TimeSeries {
	order := make([]int, len(ts.dates))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool { return ts.dates[order[i]].Before(ts.dates[order[j]]) })

	var rows []int

	for _, i := range order {
		if r.Contains(ts.dates[i]) {
			rows = append(rows, i)
		}
	}

	dates := make([]time.Time, len(rows))
	for i, src := range rows {
		dates[i] = ts.dates[src]
	}

	out := newSeries(dates)

	for _, c := range ts.columns {
		values := make([]document.Value, len(rows))
		for i, src := range rows {
			values[i] = c.Values[src]
		}

		out.addColumn(c.Key, values)
	}

	return out
}
