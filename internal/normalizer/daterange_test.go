package normalizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/document"
)

func septemberToOctober(t *testing.T) *TimeSeries {
	t.Helper()

	var recs []document.Value

	// Reverse arrival order; filtering must still come out sorted.
	for d := day("2021-10-31"); !d.Before(day("2021-09-01")); d = d.AddDate(0, 0, -1) {
		recs = append(recs, document.MustParse(fmt.Sprintf(`{"date":%d,"v":%q}`, d.Unix(), d.Format(DateLayout))))
	}

	f, err := FrameFromRecords(recs)
	require.NoError(t, err)

	ts, err := Normalize(f, NormalizeOptions{DateColumn: "date"})
	require.NoError(t, err)
	require.Equal(t, 61, ts.Len())

	return ts
}

func TestFilterRange_ClosedInterval(t *testing.T) {
	ts := septemberToOctober(t)

	r, err := ParseDateRange("2021-10-01", "2021-10-10")
	require.NoError(t, err)

	out := FilterRange(ts, r)

	want := make([]string, 0, 10)
	for d := day("2021-10-01"); !d.After(day("2021-10-10")); d = d.AddDate(0, 0, 1) {
		want = append(want, d.Format(DateLayout))
	}

	assert.Equal(t, want, labels(out))

	v, _ := out.Lookup(day("2021-10-10"), "v")
	assert.Equal(t, "2021-10-10", v.String())
}

func TestFilterRange_IndependentBounds(t *testing.T) {
	ts := septemberToOctober(t)

	tests := []struct {
		name       string
		start, end string
		first      string
		last       string
		count      int
	}{
		{name: "open", first: "2021-09-01", last: "2021-10-31", count: 61},
		{name: "start only", start: "2021-10-30", first: "2021-10-30", last: "2021-10-31", count: 2},
		{name: "end only", end: "2021-09-02", first: "2021-09-01", last: "2021-09-02", count: 2},
		{name: "single day", start: "2021-09-15", end: "2021-09-15", first: "2021-09-15", last: "2021-09-15", count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.start, tt.end)
			require.NoError(t, err)

			got := labels(FilterRange(ts, r))
			require.Len(t, got, tt.count)
			assert.Equal(t, tt.first, got[0])
			assert.Equal(t, tt.last, got[len(got)-1])
		})
	}
}

func TestFilterRange_EmptyResult(t *testing.T) {
	ts := septemberToOctober(t)

	r, err := ParseDateRange("2022-01-01", "")
	require.NoError(t, err)

	out := FilterRange(ts, r)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, ts.Keys(), out.Keys())
}

func TestParseDate_Format(t *testing.T) {
	for _, bad := range []string{"2021/10/01", "01-10-2021", "2021-10-1", "2021-13-01", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrDateFormat, bad)
	}

	_, err := ParseDateRange("2021-10-01", "10/10/2021")
	assert.ErrorIs(t, err, ErrDateFormat)

	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestDateRange_String(t *testing.T) {
	r, err := ParseDateRange("2021-10-01", "")
	require.NoError(t, err)

	assert.Equal(t, "2021-10-01..", r.String())
	assert.False(t, r.IsZero())
	assert.True(t, DateRange{}.IsZero())
}
