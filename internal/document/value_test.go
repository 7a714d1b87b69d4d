package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KeepsObjectOrder(t *testing.T) {
	v, err := Parse([]byte(`{"zeta":1,"alpha":{"b":true,"a":null},"mid":[1,"two",{"x":3}]}`))
	require.NoError(t, err)

	assert.Equal(t, KindObject, v.Kind())
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, v.Keys())

	alpha, ok := v.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, alpha.Keys())

	mid, ok := v.Get("mid")
	require.True(t, ok)
	assert.Equal(t, 3, mid.Len())

	third, ok := mid.Index(2)
	require.True(t, ok)
	assert.Equal(t, KindObject, third.Kind())
}

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
		text  string
	}{
		{name: "number", input: `12.50`, kind: KindNumber, text: "12.50"},
		{name: "string", input: `"a\"bé"`, kind: KindString, text: `a"bé`},
		{name: "bool", input: `true`, kind: KindBool, text: "true"},
		{name: "null", input: `null`, kind: KindNull, text: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.String())
		})
	}
}

func TestParse_EmptyContainers(t *testing.T) {
	obj, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, KindObject, obj.Kind())
	assert.Equal(t, 0, obj.Len())

	arr, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, KindArray, arr.Kind())
	assert.Equal(t, 0, arr.Len())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(``))
	require.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Parse([]byte(`{"a":`))
	require.ErrorIs(t, err, ErrInvalidJSON)

	for _, body := range []string{
		`{"a":1} trailing`,
		`[1,2]]`,
		`{"a":1}{"b":2}`,
		"\"ab\xffcd\"",
		"{\"k\xfe\":1}",
	} {
		_, err = Parse([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidJSON, "body %q", body)
	}
}

func TestParse_SurroundingWhitespace(t *testing.T) {
	v, err := Parse([]byte(" \n{\"a\":[1,2]}\r\n\t "))
	require.NoError(t, err)
	assert.Equal(t, KindObject, v.Kind())

	v, err = Parse([]byte(`"x" `))
	require.NoError(t, err)
	assert.Equal(t, "x", v.String())
}

func TestValue_NumberConversions(t *testing.T) {
	f, ok := Number("1633046400").Float64()
	require.True(t, ok)
	assert.InDelta(t, 1633046400.0, f, 0)

	i, ok := Number("42").Int64()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = Number("4.2").Int64()
	assert.False(t, ok)

	_, ok = String("42").Float64()
	assert.False(t, ok)
}

func TestObject_RepeatedKeyKeepsFirstPosition(t *testing.T) {
	v := Object(F("a", Int(1)), F("b", Int(2)), F("a", Int(3)))

	assert.Equal(t, []string{"a", "b"}, v.Keys())

	a, _ := v.Get("a")
	assert.Equal(t, "3", a.String())
}

func TestValue_AccessorsReturnCopies(t *testing.T) {
	v := Array(Int(1), Int(2))

	items := v.Items()
	items[0] = String("changed")

	first, _ := v.Index(0)
	assert.Equal(t, KindNumber, first.Kind())
}

func TestValue_MarshalJSONKeepsOrder(t *testing.T) {
	v := MustParse(`{"b":1,"a":[true,null,"x"],"c":{"z":1.5,"y":"q"}}`)

	data, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":[true,null,"x"],"c":{"z":1.5,"y":"q"}}`, string(data))
	assert.Equal(t, `{"b":1,"a":[true,null,"x"],"c":{"z":1.5,"y":"q"}}`, string(data))

	absent, err := Value{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(absent))
}

func TestValue_Path(t *testing.T) {
	v := MustParse(`{"data":{"market_data":{"price_usd":101.5}}}`)

	price, ok := v.Path("data", "market_data", "price_usd")
	require.True(t, ok)
	assert.Equal(t, "101.5", price.String())

	_, ok = v.Path("data", "missing")
	assert.False(t, ok)
}

func TestValue_Equal(t *testing.T) {
	a := MustParse(`{"k":[1,{"x":"y"}]}`)
	b := MustParse(`{"k":[1,{"x":"y"}]}`)
	c := MustParse(`{"k":[1,{"x":"z"}]}`)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Null().Equal(Value{}))
}
