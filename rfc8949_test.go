package cbor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hex-byte scenarios straight from RFC 8949 appendix A / the worked
// examples: each is checked both ways (decode the wire form, re-encode the
// decoded value and expect the same canonical bytes back).
func TestRFC8949WorkedExamples(t *testing.T) {
	bigNeg64, ok := new(big.Int).SetString("-18446744073709551616", 10)
	require.True(t, ok)
	bigPos64, ok := new(big.Int).SetString("18446744073709551616", 10)
	require.True(t, ok)

	tests := []struct {
		name string
		wire []byte
		want any
	}{
		{"uint 0", []byte{0x00}, int64(0)},
		{"uint 23", []byte{0x17}, int64(23)},
		{"uint 24", []byte{0x18, 0x18}, int64(24)},
		{"uint 1000", []byte{0x19, 0x03, 0xE8}, int64(1000)},
		{"negint -1", []byte{0x20}, int64(-1)},
		{"negint -2^64", []byte{0x3B, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, bigNeg64},
		{"empty byte string", []byte{0x40}, []byte{}},
		{"byte string 01020304", []byte{0x44, 0x01, 0x02, 0x03, 0x04}, []byte{0x01, 0x02, 0x03, 0x04}},
		{"empty text string", []byte{0x60}, ""},
		{"text string IETF", []byte{0x64, 'I', 'E', 'T', 'F'}, "IETF"},
		{"text string u-umlaut", []byte{0x62, 0xC3, 0xBC}, "ü"},
		{"array 1 2 3", []byte{0x83, 0x01, 0x02, 0x03}, []any{int64(1), int64(2), int64(3)}},
		{"half +0.0", []byte{0xF9, 0x00, 0x00}, float64(0)},
		{"double 1.1", []byte{0xFB, 0x3F, 0xF1, 0x99, 0x99, 0x99, 0x99, 0x99, 0x9A}, 1.1},
		{"bignum 2^64", []byte{0xC2, 0x49, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, bigPos64},
	}

	for _, tt := range tests {
		d := NewDecoder(tt.wire)
		got, err := d.Decode()
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)

		w := NewEncoder()
		require.NoError(t, w.Encode(got), tt.name)
		assert.Equal(t, tt.wire, w.Bytes(), tt.name)
	}
}

func TestRFC8949HalfPrecisionNaNBitPattern(t *testing.T) {
	d := NewDecoder([]byte{0xF9, 0x7E, 0x00})
	got, err := d.Decode()
	require.NoError(t, err)
	f, ok := got.(float64)
	require.True(t, ok)
	assert.True(t, f != f, "expected NaN")
}

func TestRFC8949NestedArrayWithStreamingInner(t *testing.T) {
	// [_ 1, [2, 3], [_ ]] -- a streaming outer array holding a
	// definite-length inner array and an empty streaming inner array.
	wire := []byte{
		0x9F,
		0x01,
		0x82, 0x02, 0x03,
		0x9F, 0xFF,
		0xFF,
	}
	d := NewDecoder(wire, WithDecoderConformanceMode(ConformanceLax))
	got, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), []any{int64(2), int64(3)}, []any{}}, got)
}

func TestRFC8949CanonicalMapExample(t *testing.T) {
	wire := []byte{0xA2, 0x01, 0x02, 0x03, 0x04}
	d := NewDecoder(wire)
	v, err := d.Decode()
	require.NoError(t, err)
	m := v.(*Map)

	w := NewEncoder()
	require.NoError(t, w.Encode(m))
	assert.Equal(t, wire, w.Bytes())
}

func TestRFC8949DecimalFractionExample(t *testing.T) {
	// 4([-2, 27315]) = 273.15
	wire := []byte{0xC4, 0x82, 0x21, 0x19, 0x6A, 0xB3}
	d := NewDecoder(wire)
	v, err := d.Decode()
	require.NoError(t, err)
	dec, ok := v.(Decimal)
	require.True(t, ok)
	assert.Equal(t, "273.15", dec.String())
}
