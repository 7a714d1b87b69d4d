package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/document"
)

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(NormalizeOptions{DateColumn: "date", Unit: UnitSeconds})

	doc := document.MustParse(`[
		{"date":"1633046400","totalLiquidityUSD":100},
		{"date":"1633132800","totalLiquidityUSD":110},
		{"date":"1633219200","totalLiquidityUSD":120}
	]`)

	r, err := ParseDateRange("2021-10-02", "")
	require.NoError(t, err)

	ts, err := p.Process(doc, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-10-02", "2021-10-03"}, labels(ts))
}

func TestProcessor_Rows(t *testing.T) {
	p := NewRowProcessor([]string{"timestamp", "price"}, NormalizeOptions{DateColumn: "timestamp", Unit: UnitMilliseconds})

	ts, err := p.Process(document.MustParse(`[[1633046400000,1],[1633132800000,2]]`), DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 2, ts.Len())
	assert.Equal(t, []Key{{"price"}}, ts.Keys())
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := NewProcessor(NormalizeOptions{DateColumn: "date"})

	ts, err := p.Process(document.MustParse(`{"date":1}`), DateRange{})
	require.Error(t, err)
	assert.Nil(t, ts)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrNotArray)
}
