package cbor

import (
	"bytes"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadUnsignedIntegers(t *testing.T) {
	tests := []uint64{0, 1, 23, 24, 255, 256, 65535, 65536, math.MaxUint32, math.MaxUint32 + 1, math.MaxUint64}
	for _, value := range tests {
		w := NewEncoder()
		require.NoError(t, w.WriteUint64(value))

		r := NewDecoder(w.Bytes())
		got, err := r.ReadUint64()
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestWriteReadSignedIntegers(t *testing.T) {
	tests := []int64{0, 1, -1, -24, -25, -256, -257, math.MaxInt64, math.MinInt64}
	for _, value := range tests {
		w := NewEncoder()
		require.NoError(t, w.WriteInt64(value))

		r := NewDecoder(w.Bytes())
		got, err := r.ReadInt64()
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestWriteReadBigInt(t *testing.T) {
	big64, ok := new(big.Int).SetString("18446744073709551616", 10) // 2^64
	require.True(t, ok)
	negBig, ok := new(big.Int).SetString("-18446744073709551617", 10) // -2^64-1
	require.True(t, ok)

	tests := []*big.Int{big.NewInt(0), big.NewInt(-1), big64, negBig}
	for _, value := range tests {
		w := NewEncoder()
		require.NoError(t, w.WriteBigInt(value))

		r := NewDecoder(w.Bytes())
		got, err := r.ReadBigInt()
		require.NoError(t, err)
		assert.Equal(t, 0, value.Cmp(got), "want %s got %s", value, got)
	}
}

func TestWriteReadByteString(t *testing.T) {
	tests := [][]byte{{}, {0x01}, []byte("hello"), bytes.Repeat([]byte{0xAB}, 1000)}
	for _, value := range tests {
		w := NewEncoder()
		require.NoError(t, w.WriteByteString(value))

		r := NewDecoder(w.Bytes())
		got, err := r.ReadByteString()
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestWriteReadTextString(t *testing.T) {
	tests := []string{"", "hello", "café", "\U0001F30D"}
	for _, value := range tests {
		w := NewEncoder()
		require.NoError(t, w.WriteTextString(value))

		r := NewDecoder(w.Bytes())
		got, err := r.ReadTextString()
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestIndefiniteLengthByteString(t *testing.T) {
	w := NewEncoder(WithEncoderConformanceMode(ConformanceLax))
	require.NoError(t, w.WriteStartIndefiniteLengthByteString())
	require.NoError(t, w.WriteByteStringChunk([]byte("ab")))
	require.NoError(t, w.WriteByteStringChunk([]byte("cd")))
	require.NoError(t, w.WriteEndIndefiniteLengthByteString())

	r := NewDecoder(w.Bytes())
	got, err := r.ReadByteString()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)
}

func TestIndefiniteLengthChunkMajorTypeMismatch(t *testing.T) {
	// A streaming byte string whose second chunk is a text string is
	// illegal.
	data := []byte{
		encodeInitialByte(MajorTypeByteString, byte(AdditionalInfoIndefiniteLength)),
		encodeInitialByte(MajorTypeByteString, 1), 'a',
		encodeInitialByte(MajorTypeTextString, 1), 'b',
		breakByte,
	}
	r := NewDecoder(data, WithDecoderConformanceMode(ConformanceLax))
	_, err := r.ReadByteString()
	require.Error(t, err)
	var ce *CborError
	if assertAsCborError(t, err, &ce) {
		assert.Equal(t, KindIllegalChunk, ce.Kind())
	}
}

func assertAsCborError(t *testing.T, err error, target **CborError) bool {
	t.Helper()
	if ce, ok := err.(*CborError); ok {
		*target = ce
		return true
	}
	t.Errorf("expected *CborError, got %T: %v", err, err)
	return false
}

func TestReservedAdditionalInfo(t *testing.T) {
	for ai := byte(28); ai <= 30; ai++ {
		data := []byte{encodeInitialByte(MajorTypeUnsignedInteger, ai)}
		r := NewDecoder(data)
		_, err := r.PeekState()
		require.Error(t, err)
		ke, ok := err.(*KindError)
		require.True(t, ok, "got %T", err)
		assert.Equal(t, KindReservedLength, ke.Kind())
	}
}

func TestArrayRoundTrip(t *testing.T) {
	w := NewEncoder()
	require.NoError(t, w.WriteStartArray(3))
	require.NoError(t, w.WriteInt64(1))
	require.NoError(t, w.WriteInt64(2))
	require.NoError(t, w.WriteInt64(3))
	require.NoError(t, w.WriteEndArray())

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, v)
}

func TestMapRoundTripAndDuplicateKeyAborts(t *testing.T) {
	// {1: 2, 3: 4}
	data := []byte{0xA2, 0x01, 0x02, 0x03, 0x04}
	d := NewDecoder(data)
	v, err := d.Decode()
	require.NoError(t, err)
	m, ok := v.(*Map)
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())
	val, found := m.Get(int64(1))
	require.True(t, found)
	assert.Equal(t, int64(2), val)

	// {1: 2, 1: 3} duplicate key, strict-keys default true aborts.
	dup := []byte{0xA2, 0x01, 0x02, 0x01, 0x03}
	_, err = NewDecoder(dup).Decode()
	require.Error(t, err)
	ce, ok := err.(*CborError)
	require.True(t, ok)
	assert.Equal(t, KindDuplicateMapKey, ce.Kind())
}

func TestMapDuplicateKeyWithLenientHandler(t *testing.T) {
	dup := []byte{0xA2, 0x01, 0x02, 0x01, 0x03}
	d := NewDecoder(dup, WithDecoderErrorHandler(func(kind ErrorKind, message string) (any, bool) {
		return int64(99), false
	}))
	v, err := d.Decode()
	require.NoError(t, err)
	m := v.(*Map)
	assert.Equal(t, 1, m.Len())
	val, _ := m.Get(int64(1))
	assert.Equal(t, int64(99), val)
}

func TestTagDispatchThroughRegistry(t *testing.T) {
	w := NewEncoder()
	bi, _ := new(big.Int).SetString("18446744073709551616", 10)
	require.NoError(t, w.WriteBigInt(bi))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	got, ok := v.(*big.Int)
	require.True(t, ok)
	assert.Equal(t, 0, bi.Cmp(got))
}

func TestUnknownTagPassesThroughAsTaggedValue(t *testing.T) {
	w := NewEncoder()
	require.NoError(t, w.WriteTag(Tag(1000)))
	require.NoError(t, w.WriteTextString("hi"))

	d := NewDecoder(w.Bytes())
	v, err := d.Decode()
	require.NoError(t, err)
	tv, ok := v.(TaggedValue)
	require.True(t, ok)
	assert.Equal(t, Tag(1000), tv.Tag)
	assert.Equal(t, "hi", tv.Inner)
}

func TestEOFSentinel(t *testing.T) {
	d := NewDecoder(nil, WithDecoderEOFSentinel(Undefined))
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, Undefined, v)
}

func TestEOFWithoutSentinelAborts(t *testing.T) {
	d := NewDecoder(nil)
	_, err := d.Decode()
	require.Error(t, err)
}

func TestDecodeDeepValueTreeMatchesExpectedShape(t *testing.T) {
	// [1, {2: "x", 3: ["y", "z"]}] decoded through the public API, compared
	// structurally rather than via a hand-rolled walk.
	inner := NewMap(2)
	inner.Append(int64(2), "x")
	inner.Append(int64(3), []any{"y", "z"})
	want := []any{int64(1), inner}

	w := NewEncoder()
	require.NoError(t, w.Encode(want))

	d := NewDecoder(w.Bytes())
	got, err := d.Decode()
	require.NoError(t, err)

	diff := cmp.Diff(want, got,
		cmp.Comparer(func(a, b *Map) bool {
			return cmp.Diff(a.Entries(), b.Entries()) == ""
		}),
	)
	assert.Empty(t, diff)
}

func TestDecodeAllSequence(t *testing.T) {
	w1 := NewEncoder()
	require.NoError(t, w1.WriteInt64(1))
	w2 := NewEncoder()
	require.NoError(t, w2.WriteInt64(2))

	data := append(w1.BytesCopy(), w2.BytesCopy()...)
	d := NewDecoder(data)
	values, err := d.DecodeAll()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, values)
}
