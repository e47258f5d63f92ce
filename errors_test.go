package cbor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindErrorSatisfiesErrorAndKind(t *testing.T) {
	var err error = ErrReservedLength
	assert.Equal(t, KindReservedLength, err.(*KindError).Kind())
	assert.Contains(t, err.Error(), "reserved")
}

func TestCborErrorWrapsAndUnwraps(t *testing.T) {
	wrapped := NewCborError(ErrDuplicateKey, 12, "extra context")
	assert.ErrorIs(t, wrapped, ErrDuplicateKey)
	assert.True(t, errors.Is(wrapped, ErrDuplicateKey))
	assert.Equal(t, KindDuplicateMapKey, wrapped.Kind())
	assert.Contains(t, wrapped.Error(), "extra context")
	assert.Contains(t, wrapped.Error(), "12")
}

func TestCborErrorKindEmptyForPlainError(t *testing.T) {
	wrapped := NewCborError(errors.New("boom"), 0, "")
	assert.Equal(t, ErrorKind(""), wrapped.Kind())
}

func TestDefaultErrorHandlerAlwaysAborts(t *testing.T) {
	_, abort := defaultErrorHandler(KindDuplicateMapKey, "dup")
	assert.True(t, abort)
}

func TestTypeMismatchErrorMessage(t *testing.T) {
	err := &TypeMismatchError{Expected: StateTextString, Actual: StateByteString}
	assert.Equal(t, "cbor: expected TextString but got ByteString", err.Error())
}
