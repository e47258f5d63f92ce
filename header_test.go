package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeInitialByte(t *testing.T) {
	for mt := MajorType(0); mt <= MajorTypeSimpleOrFloat; mt++ {
		for ai := byte(0); ai <= 31; ai++ {
			b := encodeInitialByte(mt, ai)
			gotMt, gotAi := decodeInitialByte(b)
			assert.Equal(t, mt, gotMt)
			assert.Equal(t, ai, gotAi)
		}
	}
}

func TestAdditionalInfoIsReserved(t *testing.T) {
	for ai := byte(0); ai <= 31; ai++ {
		reserved := ai >= 28 && ai <= 30
		assert.Equal(t, reserved, AdditionalInfo(ai).isReserved(), "ai=%d", ai)
	}
}

func TestArgumentWidth(t *testing.T) {
	tests := []struct {
		value uint64
		width int
	}{
		{0, 0},
		{23, 0},
		{24, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 4},
		{4294967295, 4},
		{4294967296, 8},
		{18446744073709551615, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.width, argumentWidth(tt.value), "value=%d", tt.value)
	}
}

func TestMajorTypeString(t *testing.T) {
	assert.Equal(t, "UnsignedInteger", MajorTypeUnsignedInteger.String())
	assert.Equal(t, "Tag", MajorTypeTag.String())
	assert.Equal(t, "Unknown", MajorType(99).String())
}
