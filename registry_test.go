package cbor

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeStringTagRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	w := NewEncoder()
	require.NoError(t, w.Encode(now))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.True(t, now.Equal(got))
}

func TestUnixTimeTagDecode(t *testing.T) {
	w := NewEncoder()
	require.NoError(t, w.WriteUnixTime(time.Unix(1000000, 0)))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, int64(1000000), got.Unix())
}

func TestDecimalFractionRoundTrip(t *testing.T) {
	// 273.15 as mantissa 27315, scale 2 (wire exponent -2).
	dec := NewDecimal(big.NewInt(27315), 2)
	w := NewEncoder()
	require.NoError(t, w.Encode(dec))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	got, ok := v.(Decimal)
	require.True(t, ok)
	assert.Equal(t, "273.15", got.String())
}

func TestRationalRoundTrip(t *testing.T) {
	r := Rational{Numerator: big.NewInt(3), Denominator: big.NewInt(4)}
	w := NewEncoder()
	require.NoError(t, w.Encode(r))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	rat, ok := v.(*big.Rat)
	require.True(t, ok)
	assert.Equal(t, big.NewRat(3, 4), rat)
}

func TestTaggedLiteralRoundTrip(t *testing.T) {
	tl := TaggedLiteral{Tag: "point", Form: []any{int64(1), int64(2)}}
	w := NewEncoder()
	require.NoError(t, w.Encode(tl))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, tl, v)
}

func TestSymbolAndKeywordRoundTrip(t *testing.T) {
	sym := Symbol{Namespace: "ns", Name: "foo"}
	w := NewEncoder()
	require.NoError(t, w.Encode(sym))
	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, sym, v)

	kw := Keyword{Name: "bar"}
	w2 := NewEncoder()
	require.NoError(t, w2.Encode(kw))
	d2 := NewDecoder(w2.Bytes())
	v2, err := d2.Decode()
	require.NoError(t, err)
	assert.Equal(t, kw, v2)
}

func TestRegisterCustomTagHandler(t *testing.T) {
	type point struct{ X, Y int64 }

	reg := NewRegistry()
	reg.Register(Tag(9000), point{},
		func(inner any) (any, error) {
			pair := inner.([]any)
			return point{X: pair[0].(int64), Y: pair[1].(int64)}, nil
		},
		func(value any) (Tag, any, error) {
			p := value.(point)
			return Tag(9000), []any{p.X, p.Y}, nil
		},
	)

	w := NewEncoder(WithEncoderRegistry(reg))
	require.NoError(t, w.Encode(point{X: 1, Y: 2}))

	d := NewDecoder(w.Bytes(), WithDecoderRegistry(reg))
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, v)
}

func TestUnknownValueHookOverride(t *testing.T) {
	type weird struct{ X int }
	reg := NewRegistry()
	reg.SetUnknownValueHook(func(value any) (any, error) {
		return "fallback", nil
	})
	w := NewEncoder(WithEncoderRegistry(reg))
	require.NoError(t, w.Encode(weird{X: 1}))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestValuesEqualForBignumsAndRationals(t *testing.T) {
	a := big.NewInt(10)
	b := new(big.Int).Add(big.NewInt(4), big.NewInt(6))
	assert.True(t, valuesEqual(a, b))

	r1 := big.NewRat(1, 2)
	r2 := big.NewRat(2, 4)
	assert.True(t, valuesEqual(r1, r2))

	assert.False(t, valuesEqual(a, "not a bignum"))
}

func TestBigIntOrNativeNarrows(t *testing.T) {
	assert.Equal(t, int64(5), bigIntOrNative(big.NewInt(5)))

	huge, _ := new(big.Int).SetString("18446744073709551616", 10)
	assert.Equal(t, huge, bigIntOrNative(huge))
}
