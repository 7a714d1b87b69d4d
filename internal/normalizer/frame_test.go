package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/document"
)

func TestFrameFromRecords_UnionOfKeys(t *testing.T) {
	recs := document.MustParse(`[{"a":1,"b":2},{"b":3,"c":4}]`).Items()

	f, err := FrameFromRecords(recs)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, f.Index())
	assert.Equal(t, []Key{{"a"}, {"b"}, {"c"}}, f.Keys())
	assert.True(t, f.Cell(1, "a").IsAbsent())
	assert.True(t, f.Cell(0, "c").IsAbsent())
	assert.Equal(t, "3", f.Cell(1, "b").String())
}

func TestFrameFromRecords_RejectsNonObjects(t *testing.T) {
	_, err := FrameFromRecords(document.MustParse(`[{"a":1},[1]]`).Items())

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 1, shapeErr.Row)
	assert.Equal(t, document.KindArray, shapeErr.Got)
	assert.True(t, errors.Is(err, ErrMalformedShape))
}

func TestFrameFromRows(t *testing.T) {
	rows := document.MustParse(`[[1,2,3],[4,5]]`).Items()

	f, err := FrameFromRows([]string{"t", "o", "c"}, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "5", f.Cell(1, "o").String())
	assert.True(t, f.Cell(1, "c").IsAbsent())

	_, err = FrameFromRows([]string{"t"}, rows)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFrame_SetIndexAndTranspose(t *testing.T) {
	recs := document.MustParse(`[{"id":"aave","tvl":10},{"id":"uni","tvl":20}]`).Items()

	f, err := FrameFromRecords(recs)
	require.NoError(t, err)

	indexed, err := f.SetIndex("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"aave", "uni"}, indexed.Index())
	assert.Equal(t, []Key{{"tvl"}}, indexed.Keys())

	tr, err := indexed.Transpose()
	require.NoError(t, err)
	assert.Equal(t, []string{"tvl"}, tr.Index())
	assert.Equal(t, "20", tr.Cell(0, "uni").String())

	_, err = f.SetIndex("missing")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFrame_TransposeRequiresSingleLevel(t *testing.T) {
	f := NewFrame([]string{"0"})
	require.NoError(t, f.AddColumn(Key{"a", "b"}, []document.Value{document.Int(1)}))

	_, err := f.Transpose()
	assert.ErrorIs(t, err, ErrNotSingleLevel)
}

func TestFrame_AddColumnLength(t *testing.T) {
	f := NewFrame([]string{"0", "1"})

	err := f.AddColumn(Key{"a"}, []document.Value{document.Int(1)})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	require.NoError(t, f.AddColumn(Key{"a"}, []document.Value{document.Int(1), document.Int(2)}))
	require.NoError(t, f.AddColumn(Key{"a"}, []document.Value{document.Int(3), document.Int(4)}))
	assert.Equal(t, 1, f.Width())
	assert.Equal(t, "4", f.Cell(1, "a").String())
}

func TestConcatFrames_AlignsOnLabels(t *testing.T) {
	left := NewFrame([]string{"a", "b"})
	require.NoError(t, left.AddColumn(Key{"v"}, []document.Value{document.Int(1), document.Int(2)}))

	right := NewFrame([]string{"b", "c"})
	require.NoError(t, right.AddColumn(Key{"v"}, []document.Value{document.Int(3), document.Int(4)}))

	out, err := ConcatFrames([]string{"L", "R"}, []*Frame{left, right})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, out.Index())
	assert.Equal(t, []string{"L", "R"}, out.Groups())
	assert.True(t, out.Cell(2, "L", "v").IsAbsent())
	assert.Equal(t, "3", out.Cell(1, "R", "v").String())

	_, err = ConcatFrames([]string{"L"}, []*Frame{left, right})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFrame_WithSuffix(t *testing.T) {
	f := NewFrame([]string{"0"})
	require.NoError(t, f.AddColumn(Key{"aave", "ethereum", "USDC"}, []document.Value{document.Int(1)}))

	out := f.WithSuffix("_usd")

	assert.Equal(t, []Key{{"aave", "ethereum", "USDC_usd"}}, out.Keys())
	assert.Equal(t, []Key{{"aave", "ethereum", "USDC"}}, f.Keys())
}

func TestFrameFromFlat(t *testing.T) {
	a := Flatten(document.MustParse(`{"x":{"y":1}}`), "", DefaultSeparator)
	b := Flatten(document.MustParse(`{"z":2}`), "", DefaultSeparator)

	f, err := FrameFromFlat([]string{"first", "second"}, []FlatRecord{a, b})
	require.NoError(t, err)

	assert.Equal(t, []Key{{"x_y"}, {"z"}}, f.Keys())
	assert.True(t, f.Cell(0, "z").IsAbsent())

	_, err = FrameFromFlat([]string{"only"}, []FlatRecord{a, b})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
