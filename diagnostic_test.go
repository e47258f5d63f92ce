package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnoseScalarsAndContainers(t *testing.T) {
	tests := []struct {
		name string
		wire []byte
		want string
	}{
		{"uint", []byte{0x18, 0x18}, "24"},
		{"negint", []byte{0x20}, "-1"},
		{"text", []byte{0x64, 'I', 'E', 'T', 'F'}, `"IETF"`},
		{"bytes", []byte{0x44, 0x01, 0x02, 0x03, 0x04}, "h'01020304'"},
		{"array", []byte{0x83, 0x01, 0x02, 0x03}, "[1, 2, 3]"},
		{"map", []byte{0xA2, 0x01, 0x02, 0x03, 0x04}, "{1: 2, 3: 4}"},
	}
	for _, tt := range tests {
		got, err := Diagnose(tt.wire)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestDiagnoseTaggedValue(t *testing.T) {
	w := NewEncoder()
	require.NoError(t, w.Encode(TaggedValue{Tag: 1000, Inner: int64(5)}))
	got, err := Diagnose(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "1000(5)", got)
}
