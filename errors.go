package cbor

import (
	"fmt"
)

// ErrorKind discriminates the recoverable and fatal error conditions the
// decoder and encoder can raise. It lets an injected ErrorHandler switch on
// a stable, programmatically matchable keyword instead of chaining
// errors.Is comparisons.
type ErrorKind string

const (
	KindReservedLength         ErrorKind = "reserved-length"
	KindReservedSimple         ErrorKind = "reserved-simple"
	KindIllegalChunk           ErrorKind = "illegal-chunk"
	KindIllegalStream          ErrorKind = "illegal-stream"
	KindDefiniteLengthRequired ErrorKind = "definite-length-required"
	KindUnexpectedBreak        ErrorKind = "unexpected-break"
	KindDuplicateMapKey        ErrorKind = "duplicate-map-key"
	KindMissingMapValue        ErrorKind = "missing-map-value"
	KindUnderflow              ErrorKind = "underflow"
	KindInvalidUTF8            ErrorKind = "invalid-utf8"
	KindUnrepresentableInteger ErrorKind = "unrepresentable-integer"
	KindUnknownTag             ErrorKind = "unknown-tag" // informational, never fatal by default
	KindUnknownValue           ErrorKind = "unknown-value"
)

// KindError is a sentinel error that also carries its stable ErrorKind, so
// that both errors.Is-style matching and kind-switch matching work against
// the same value.
type KindError struct {
	kind ErrorKind
	msg  string
}

func (e *KindError) Error() string   { return e.msg }
func (e *KindError) Kind() ErrorKind { return e.kind }

// Common CBOR errors. Each carries the ErrorKind the error plane (§4.6/§7)
// dispatches on.
var (
	// ErrUnexpectedEndOfData is returned when the data ends unexpectedly.
	ErrUnexpectedEndOfData = &KindError{KindUnderflow, "cbor: unexpected end of data"}

	// ErrInvalidCbor is returned when the CBOR data is malformed.
	ErrInvalidCbor = &KindError{KindIllegalStream, "cbor: invalid CBOR data"}

	// ErrInvalidMajorType is returned when an unexpected major type is encountered.
	ErrInvalidMajorType = &KindError{KindIllegalStream, "cbor: invalid major type"}

	// ErrInvalidSimpleValue is returned when an invalid simple value is encountered.
	ErrInvalidSimpleValue = &KindError{KindReservedSimple, "cbor: invalid simple value"}

	// ErrInvalidUtf8 is returned when a text string contains invalid UTF-8.
	ErrInvalidUtf8 = &KindError{KindInvalidUTF8, "cbor: invalid UTF-8 in text string"}

	// ErrOverflow is returned when a value overflows the target type.
	ErrOverflow = &KindError{KindUnrepresentableInteger, "cbor: integer overflow"}

	// ErrUnexpectedBreak is returned when a break byte is encountered unexpectedly.
	ErrUnexpectedBreak = &KindError{KindUnexpectedBreak, "cbor: unexpected break"}

	// ErrNonCanonical is returned in strict/canonical mode when encoding is non-canonical.
	ErrNonCanonical = &KindError{KindIllegalStream, "cbor: non-canonical encoding"}

	// ErrNotAtEnd is returned when there is remaining data after the root value.
	ErrNotAtEnd = &KindError{KindIllegalStream, "cbor: unexpected data after root value"}

	// ErrInvalidState is returned when an operation is attempted in an invalid state.
	ErrInvalidState = &KindError{KindIllegalStream, "cbor: invalid reader state for this operation"}

	// ErrDuplicateKey is returned when a duplicate key is found in a map (in strict mode).
	ErrDuplicateKey = &KindError{KindDuplicateMapKey, "cbor: duplicate key in map"}

	// ErrUnsortedKeys describes map keys that are not in canonical order. The
	// decoder does not check key order and never returns it.
	ErrUnsortedKeys = &KindError{KindIllegalStream, "cbor: map keys are not sorted"}

	// ErrIndefiniteLengthNotAllowed is returned when indefinite length is used in canonical mode.
	ErrIndefiniteLengthNotAllowed = &KindError{KindDefiniteLengthRequired, "cbor: indefinite length not allowed in canonical mode"}

	// ErrBufferTooSmall describes a buffer too small for the operation. No
	// operation in this package returns it; short input is reported as
	// ErrUnexpectedEndOfData.
	ErrBufferTooSmall = &KindError{KindUnderflow, "cbor: buffer too small"}

	// ErrNestingDepthExceeded is returned when the maximum nesting depth is exceeded.
	ErrNestingDepthExceeded = &KindError{KindIllegalStream, "cbor: maximum nesting depth exceeded"}

	// ErrMissingBreak is returned when an indefinite-length item is not terminated.
	ErrMissingBreak = &KindError{KindIllegalStream, "cbor: missing break for indefinite-length item"}

	// ErrIncompleteContainer is returned when a container has fewer items than expected.
	ErrIncompleteContainer = &KindError{KindMissingMapValue, "cbor: incomplete container"}

	// ErrExtraItems is returned when a container has more items than expected.
	ErrExtraItems = &KindError{KindIllegalStream, "cbor: extra items in container"}

	// ErrReservedLength is returned when additional info 28, 29, or 30 is read.
	ErrReservedLength = &KindError{KindReservedLength, "cbor: reserved additional-info value (28-30)"}

	// ErrIllegalChunk is returned when a streaming-string chunk's major type
	// does not match the container's declared element type.
	ErrIllegalChunk = &KindError{KindIllegalChunk, "cbor: streaming chunk has wrong major type"}

	// ErrIllegalStream is returned for ill-formed streaming constructs, such
	// as an indefinite-length tag.
	ErrIllegalStream = &KindError{KindIllegalStream, "cbor: ill-formed indefinite-length construct"}

	// ErrUnrepresentableInteger describes an integer argument that exceeds
	// 2^64-1 with no tag handler to widen it. The encoder never returns it:
	// WriteBigInt writes such integers as bignum tags 2/3.
	ErrUnrepresentableInteger = &KindError{KindUnrepresentableInteger, "cbor: integer not representable without a bignum tag handler"}

	// ErrUnknownValue is returned when the encoder has no shape dispatch and
	// no registered write handler for a value.
	ErrUnknownValue = &KindError{KindUnknownValue, "cbor: no encoder registered for value type"}
)

// CborError provides detailed error information: the offset at which
// decoding failed and an optional human-readable message, wrapping the
// underlying sentinel.
type CborError struct {
	Err     error
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *CborError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cbor error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("cbor error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *CborError) Unwrap() error {
	return e.Err
}

// Kind returns the ErrorKind of the wrapped error, if it carries one.
func (e *CborError) Kind() ErrorKind {
	if k, ok := e.Err.(interface{ Kind() ErrorKind }); ok {
		return k.Kind()
	}
	return ""
}

// NewCborError creates a new CborError.
func NewCborError(err error, offset int, message string) *CborError {
	return &CborError{Err: err, Offset: offset, Message: message}
}

// TypeMismatchError is returned when the expected reader state doesn't match
// the actual one. This is a programmer-facing error from the low-level
// typed Read* API, distinct from the error-plane kinds a caller can
// intercept with an ErrorHandler.
type TypeMismatchError struct {
	Expected ReaderState
	Actual   ReaderState
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cbor: expected %s but got %s", e.Expected, e.Actual)
}

// ErrorHandler decides, for a recoverable malformed-input condition
// encountered mid-decode, whether to abort the whole Decode call or to
// substitute a replacement value and continue reading immediately after the
// offending construct. The default handler always aborts.
//
// The decoder consults the handler only for duplicate map keys
// (KindDuplicateMapKey), where a replacement becomes the value stored under
// the existing key. Every other error kind aborts the decode without
// calling the handler.
type ErrorHandler func(kind ErrorKind, message string) (replacement any, abort bool)

// defaultErrorHandler aborts on every error kind.
func defaultErrorHandler(_ ErrorKind, _ string) (any, bool) {
	return nil, true
}
