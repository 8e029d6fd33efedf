package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_MatchesTextualForm(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"text", Text("foo"), "foo"},
		{"empty text", Text(""), ""},
		{"binary", Binary([]byte{0x62, 0x61, 0x72}), "bar"},
		{"integer", Integer(5), "5"},
		{"negative integer", Integer(-42), "-42"},
		{"float", Float(3.14), "3.14"},
		{"whole float", Float(2), "2"},
		{"large float", Float(1e21), "1e+21"},
		{"positive infinity", Float(math.Inf(1)), "inf"},
		{"negative infinity", Float(math.Inf(-1)), "-inf"},
		{"nan", Float(math.NaN()), "nan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.v.Encode()))
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindText, Text("x").Kind())
	assert.Equal(t, KindBinary, Binary("x").Kind())
	assert.Equal(t, KindInteger, Integer(1).Kind())
	assert.Equal(t, KindFloat, Float(1).Kind())
	assert.Equal(t, "int", KindInteger.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"text":    KindText,
		"str":     KindText,
		" STRING": KindText,
		"bytes":   KindBinary,
		"binary":  KindBinary,
		"int":     KindInteger,
		"integer": KindInteger,
		"float":   KindFloat,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("decimal")
	assert.ErrorIs(t, err, ErrKind)
}

func TestDecode_RoundTripsEveryKind(t *testing.T) {
	values := []Value{
		Text("héllo"),
		Binary([]byte{0x00, 0xff, 0x10}),
		Integer(math.MaxInt64),
		Integer(math.MinInt64),
		Float(0.1),
		Float(-1.5e-7),
	}

	for _, v := range values {
		got, err := Decode(v.Kind(), v.Encode())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecodeFloat_NonFinite(t *testing.T) {
	f, err := DecodeFloat(Float(math.Inf(-1)).Encode())
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(f), -1))

	f, err = DecodeFloat([]byte("nan"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(f)))
}

func TestDecodeInteger(t *testing.T) {
	n, err := DecodeInteger([]byte(" 17\n"))
	require.NoError(t, err)
	assert.Equal(t, Integer(17), n)

	_, err = DecodeInteger([]byte("3.5"))
	assert.Error(t, err)

	_, err = DecodeInteger([]byte("foo"))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	v, err := Parse(KindInteger, "12")
	require.NoError(t, err)
	assert.Equal(t, Integer(12), v)

	v, err = Parse(KindBinary, "raw")
	require.NoError(t, err)
	assert.Equal(t, Binary("raw"), v)

	_, err = Parse(KindFloat, "abc")
	assert.Error(t, err)

	_, err = Parse(Kind(42), "x")
	assert.ErrorIs(t, err, ErrKind)
}
