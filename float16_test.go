package cbor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat16RoundTrip(t *testing.T) {
	tests := []float32{0, 1, -1, 1.5, 65504, -65504, 0.00006103515625}
	for _, f := range tests {
		bits := float32ToFloat16Bits(f)
		got := float16BitsToFloat32(bits)
		assert.Equal(t, f, got, "f=%v", f)
	}
}

func TestFloat16SpecialValues(t *testing.T) {
	assert.True(t, math.IsInf(float64(float16BitsToFloat32(0x7C00)), 1))
	assert.True(t, math.IsInf(float64(float16BitsToFloat32(0xFC00)), -1))
	assert.True(t, math.IsNaN(float64(float16BitsToFloat32(0x7E00))))
}

func TestFloat16BitsFromFloat64Exact(t *testing.T) {
	bits, ok := float16BitsFromFloat64Exact(1.5)
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), float16BitsToFloat32(bits))

	_, ok = float16BitsFromFloat64Exact(1.1)
	assert.False(t, ok, "1.1 is not exactly representable in binary16")
}
