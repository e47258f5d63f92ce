package cbor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"
	"unicode/utf8"
)

// Decoder provides low-level typed reads over a CBOR byte slice, plus the
// high-level Decode/DecodeAll entry points that build native Go values.
// It is a cursor over an in-memory buffer with a lookahead "state"
// describing what kind of item comes next, so callers can branch before
// committing to a typed Read call.
type Decoder struct {
	data                    []byte
	offset                  int
	conformanceMode         ConformanceMode
	nestingStack            []readerNestingInfo
	maxNestingDepth         int
	cachedState             ReaderState
	stateComputed           bool
	allowMultipleRootValues bool

	registry      *Registry
	errorHandler  ErrorHandler
	strictKeys    bool
	eofSentinel   any
	hasEOFValue   bool
}

type readerNestingInfo struct {
	majorType      MajorType
	definiteLength int64 // -1 for indefinite
	itemsRead      int64
	isMap          bool
	keyRead        bool
	isIndefinite   bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithDecoderConformanceMode sets the conformance mode for the decoder.
func WithDecoderConformanceMode(mode ConformanceMode) DecoderOption {
	return func(d *Decoder) { d.conformanceMode = mode }
}

// WithDecoderMaxNestingDepth sets the maximum container nesting depth.
func WithDecoderMaxNestingDepth(depth int) DecoderOption {
	return func(d *Decoder) { d.maxNestingDepth = depth }
}

// WithDecoderAllowMultipleRootValues allows Decode to leave trailing bytes
// unconsumed instead of treating them as an error.
func WithDecoderAllowMultipleRootValues(allow bool) DecoderOption {
	return func(d *Decoder) { d.allowMultipleRootValues = allow }
}

// WithDecoderRegistry sets the tag registry consulted for major-6 values.
func WithDecoderRegistry(reg *Registry) DecoderOption {
	return func(d *Decoder) { d.registry = reg }
}

// WithDecoderErrorHandler installs an injectable error handler, replacing
// the default which aborts on every error kind.
func WithDecoderErrorHandler(h ErrorHandler) DecoderOption {
	return func(d *Decoder) { d.errorHandler = h }
}

// WithDecoderStrictKeys controls whether duplicate map keys are rejected
// (default true).
func WithDecoderStrictKeys(strict bool) DecoderOption {
	return func(d *Decoder) { d.strictKeys = strict }
}

// WithDecoderEOFSentinel sets the value Decode returns when the source is
// empty before any byte is read. Without this option an empty source
// aborts with underflow.
func WithDecoderEOFSentinel(sentinel any) DecoderOption {
	return func(d *Decoder) {
		d.eofSentinel = sentinel
		d.hasEOFValue = true
	}
}

// NewDecoder creates a Decoder over data.
func NewDecoder(data []byte, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		data:            data,
		conformanceMode: ConformanceLax,
		nestingStack:    make([]readerNestingInfo, 0, 16),
		maxNestingDepth: 64,
		registry:        NewRegistry(),
		errorHandler:    defaultErrorHandler,
		strictKeys:      true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BytesRemaining returns the number of bytes remaining to be read.
func (d *Decoder) BytesRemaining() int { return len(d.data) - d.offset }

// CurrentOffset returns the current position in the data.
func (d *Decoder) CurrentOffset() int { return d.offset }

// NestingDepth returns the current nesting depth.
func (d *Decoder) NestingDepth() int { return len(d.nestingStack) }

func (d *Decoder) invalidateState() { d.stateComputed = false }

// PeekState returns the current state without advancing the decoder.
func (d *Decoder) PeekState() (ReaderState, error) {
	if d.stateComputed {
		return d.cachedState, nil
	}
	state, err := d.computeState()
	if err != nil {
		return StateUndefined, err
	}
	d.cachedState = state
	d.stateComputed = true
	return state, nil
}

func (d *Decoder) computeState() (ReaderState, error) {
	if len(d.nestingStack) > 0 {
		info := &d.nestingStack[len(d.nestingStack)-1]
		if !info.isIndefinite && info.itemsRead >= info.definiteLength {
			if info.isMap {
				return StateEndMap, nil
			}
			return StateEndArray, nil
		}
	}

	if d.offset >= len(d.data) {
		if len(d.nestingStack) > 0 {
			return StateUndefined, ErrUnexpectedEndOfData
		}
		return StateFinished, nil
	}

	initialByte := d.data[d.offset]

	if initialByte == breakByte {
		if len(d.nestingStack) == 0 {
			return StateUndefined, ErrUnexpectedBreak
		}
		info := &d.nestingStack[len(d.nestingStack)-1]
		if !info.isIndefinite {
			return StateUndefined, ErrUnexpectedBreak
		}
		switch info.majorType {
		case MajorTypeArray:
			return StateEndArray, nil
		case MajorTypeMap:
			if info.keyRead {
				return StateUndefined, ErrIncompleteContainer
			}
			return StateEndMap, nil
		case MajorTypeByteString:
			return StateEndIndefiniteLengthByteString, nil
		case MajorTypeTextString:
			return StateEndIndefiniteLengthTextString, nil
		}
	}

	mt, ai := decodeInitialByte(initialByte)

	// Spec §4.1 step 2: additional-info 28-30 is reserved regardless of
	// major type, and is checked before any major-type-specific dispatch.
	if AdditionalInfo(ai).isReserved() {
		return StateUndefined, ErrReservedLength
	}

	switch mt {
	case MajorTypeUnsignedInteger:
		return StateUnsignedInteger, nil
	case MajorTypeNegativeInteger:
		return StateNegativeInteger, nil
	case MajorTypeByteString:
		if ai == byte(AdditionalInfoIndefiniteLength) {
			return StateStartIndefiniteLengthByteString, nil
		}
		return StateByteString, nil
	case MajorTypeTextString:
		if ai == byte(AdditionalInfoIndefiniteLength) {
			return StateStartIndefiniteLengthTextString, nil
		}
		return StateTextString, nil
	case MajorTypeArray:
		return StateStartArray, nil
	case MajorTypeMap:
		return StateStartMap, nil
	case MajorTypeTag:
		if ai == byte(AdditionalInfoIndefiniteLength) {
			return StateUndefined, ErrIllegalStream
		}
		return StateTag, nil
	case MajorTypeSimpleOrFloat:
		switch ai {
		case byte(SimpleValueFalse), byte(SimpleValueTrue):
			return StateBoolean, nil
		case byte(SimpleValueNull):
			return StateNull, nil
		case byte(SimpleValueUndefined):
			return StateUndefinedValue, nil
		case 24:
			return StateSimpleValue, nil
		case 25:
			return StateHalfPrecisionFloat, nil
		case 26:
			return StateSinglePrecisionFloat, nil
		case 27:
			return StateDoublePrecisionFloat, nil
		default:
			if ai < 24 {
				return StateSimpleValue, nil
			}
			return StateUndefined, ErrInvalidSimpleValue
		}
	}

	return StateUndefined, ErrInvalidMajorType
}

// readArgumentValue reads the argument that follows an initial byte of
// major type mt.
func (d *Decoder) readArgumentValue(mt MajorType) (uint64, error) {
	if d.offset >= len(d.data) {
		return 0, ErrUnexpectedEndOfData
	}

	initialByte := d.data[d.offset]
	actualMt, ai := decodeInitialByte(initialByte)
	if actualMt != mt {
		return 0, NewCborError(ErrInvalidMajorType, d.offset, fmt.Sprintf("expected major type %s, got %s", mt, actualMt))
	}
	d.offset++

	switch {
	case ai < 24:
		return uint64(ai), nil
	case ai == 24:
		if d.offset >= len(d.data) {
			return 0, ErrUnexpectedEndOfData
		}
		val := d.data[d.offset]
		d.offset++
		if d.conformanceMode >= ConformanceStrict && val < 24 {
			return 0, ErrNonCanonical
		}
		return uint64(val), nil
	case ai == 25:
		if d.offset+2 > len(d.data) {
			return 0, ErrUnexpectedEndOfData
		}
		val := binary.BigEndian.Uint16(d.data[d.offset:])
		d.offset += 2
		if d.conformanceMode >= ConformanceStrict && val <= 0xFF {
			return 0, ErrNonCanonical
		}
		return uint64(val), nil
	case ai == 26:
		if d.offset+4 > len(d.data) {
			return 0, ErrUnexpectedEndOfData
		}
		val := binary.BigEndian.Uint32(d.data[d.offset:])
		d.offset += 4
		if d.conformanceMode >= ConformanceStrict && val <= 0xFFFF {
			return 0, ErrNonCanonical
		}
		return uint64(val), nil
	case ai == 27:
		if d.offset+8 > len(d.data) {
			return 0, ErrUnexpectedEndOfData
		}
		val := binary.BigEndian.Uint64(d.data[d.offset:])
		d.offset += 8
		if d.conformanceMode >= ConformanceStrict && val <= 0xFFFFFFFF {
			return 0, ErrNonCanonical
		}
		return uint64(val), nil
	case ai == 31:
		return 0, nil
	default:
		return 0, ErrReservedLength
	}
}

func (d *Decoder) advanceContainer() {
	if len(d.nestingStack) == 0 {
		return
	}
	info := &d.nestingStack[len(d.nestingStack)-1]
	if info.isMap {
		if info.keyRead {
			info.keyRead = false
			info.itemsRead++
		} else {
			info.keyRead = true
		}
	} else {
		info.itemsRead++
	}
	d.invalidateState()
}

// ReadUint64 reads an unsigned 64-bit integer.
func (d *Decoder) ReadUint64() (uint64, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateUnsignedInteger {
		return 0, &TypeMismatchError{Expected: StateUnsignedInteger, Actual: state}
	}
	d.invalidateState()
	val, err := d.readArgumentValue(MajorTypeUnsignedInteger)
	if err != nil {
		return 0, err
	}
	d.advanceContainer()
	return val, nil
}

// ReadInt64 reads a signed 64-bit integer. Returns ErrOverflow if the
// decoded magnitude does not fit; callers that need the full range should
// use the high-level Decode, which returns uint64 for unsigned values above
// math.MaxInt64 and *big.Int for negative values below math.MinInt64.
func (d *Decoder) ReadInt64() (int64, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	d.invalidateState()

	switch state {
	case StateUnsignedInteger:
		val, err := d.readArgumentValue(MajorTypeUnsignedInteger)
		if err != nil {
			return 0, err
		}
		if val > math.MaxInt64 {
			return 0, ErrOverflow
		}
		d.advanceContainer()
		return int64(val), nil

	case StateNegativeInteger:
		val, err := d.readArgumentValue(MajorTypeNegativeInteger)
		if err != nil {
			return 0, err
		}
		if val > math.MaxInt64 {
			return 0, ErrOverflow
		}
		d.advanceContainer()
		return -1 - int64(val), nil

	default:
		return 0, &TypeMismatchError{Expected: StateUnsignedInteger, Actual: state}
	}
}

// ReadBigInt reads an integer as a big.Int, widening major-0/1 arguments
// that overflow int64/uint64 and resolving bignum tags 2/3.
func (d *Decoder) ReadBigInt() (*big.Int, error) {
	state, err := d.PeekState()
	if err != nil {
		return nil, err
	}

	switch state {
	case StateUnsignedInteger:
		d.invalidateState()
		raw, err := d.readArgumentValue(MajorTypeUnsignedInteger)
		if err != nil {
			return nil, err
		}
		d.advanceContainer()
		return new(big.Int).SetUint64(raw), nil

	case StateNegativeInteger:
		d.invalidateState()
		raw, err := d.readArgumentValue(MajorTypeNegativeInteger)
		if err != nil {
			return nil, err
		}
		d.advanceContainer()
		result := new(big.Int).SetUint64(raw)
		result.Add(result, big.NewInt(1))
		result.Neg(result)
		return result, nil

	case StateTag:
		tag, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagUnsignedBignum:
			data, err := d.ReadByteString()
			if err != nil {
				return nil, err
			}
			return new(big.Int).SetBytes(data), nil
		case TagNegativeBignum:
			data, err := d.ReadByteString()
			if err != nil {
				return nil, err
			}
			result := new(big.Int).SetBytes(data)
			result.Add(result, big.NewInt(1))
			result.Neg(result)
			return result, nil
		default:
			return nil, &TypeMismatchError{Expected: StateUnsignedInteger, Actual: StateTag}
		}

	default:
		return nil, &TypeMismatchError{Expected: StateUnsignedInteger, Actual: state}
	}
}

// ReadByteString reads a byte string, transparently concatenating a
// streaming (indefinite-length) byte string's chunks.
func (d *Decoder) ReadByteString() ([]byte, error) {
	state, err := d.PeekState()
	if err != nil {
		return nil, err
	}
	if state == StateStartIndefiniteLengthByteString {
		return d.readIndefiniteByteString()
	}
	if state != StateByteString {
		return nil, &TypeMismatchError{Expected: StateByteString, Actual: state}
	}

	d.invalidateState()
	length, err := d.readArgumentValue(MajorTypeByteString)
	if err != nil {
		return nil, err
	}
	if d.offset+int(length) > len(d.data) {
		return nil, ErrUnexpectedEndOfData
	}
	result := make([]byte, length)
	copy(result, d.data[d.offset:d.offset+int(length)])
	d.offset += int(length)
	d.advanceContainer()
	return result, nil
}

func (d *Decoder) readIndefiniteByteString() ([]byte, error) {
	if d.conformanceMode >= ConformanceCanonical {
		return nil, ErrIndefiniteLengthNotAllowed
	}
	d.offset++
	d.invalidateState()

	var result bytes.Buffer
	for {
		if d.offset >= len(d.data) {
			return nil, ErrUnexpectedEndOfData
		}
		if d.data[d.offset] == breakByte {
			d.offset++
			break
		}
		mt, _ := decodeInitialByte(d.data[d.offset])
		if mt != MajorTypeByteString {
			return nil, NewCborError(ErrIllegalChunk, d.offset, fmt.Sprintf("chunk of major type %s in a streaming byte string", mt))
		}
		length, err := d.readArgumentValue(MajorTypeByteString)
		if err != nil {
			return nil, err
		}
		if d.offset+int(length) > len(d.data) {
			return nil, ErrUnexpectedEndOfData
		}
		result.Write(d.data[d.offset : d.offset+int(length)])
		d.offset += int(length)
	}
	d.advanceContainer()
	return result.Bytes(), nil
}

// ReadTextString reads a UTF-8 text string, transparently concatenating a
// streaming (indefinite-length) text string's chunks.
func (d *Decoder) ReadTextString() (string, error) {
	state, err := d.PeekState()
	if err != nil {
		return "", err
	}
	if state == StateStartIndefiniteLengthTextString {
		return d.readIndefiniteTextString()
	}
	if state != StateTextString {
		return "", &TypeMismatchError{Expected: StateTextString, Actual: state}
	}

	d.invalidateState()
	length, err := d.readArgumentValue(MajorTypeTextString)
	if err != nil {
		return "", err
	}
	if d.offset+int(length) > len(d.data) {
		return "", ErrUnexpectedEndOfData
	}
	strBytes := d.data[d.offset : d.offset+int(length)]
	if !utf8.Valid(strBytes) {
		return "", ErrInvalidUtf8
	}
	result := string(strBytes)
	d.offset += int(length)
	d.advanceContainer()
	return result, nil
}

func (d *Decoder) readIndefiniteTextString() (string, error) {
	if d.conformanceMode >= ConformanceCanonical {
		return "", ErrIndefiniteLengthNotAllowed
	}
	d.offset++
	d.invalidateState()

	var result bytes.Buffer
	for {
		if d.offset >= len(d.data) {
			return "", ErrUnexpectedEndOfData
		}
		if d.data[d.offset] == breakByte {
			d.offset++
			break
		}
		mt, _ := decodeInitialByte(d.data[d.offset])
		if mt != MajorTypeTextString {
			return "", NewCborError(ErrIllegalChunk, d.offset, fmt.Sprintf("chunk of major type %s in a streaming text string", mt))
		}
		length, err := d.readArgumentValue(MajorTypeTextString)
		if err != nil {
			return "", err
		}
		if d.offset+int(length) > len(d.data) {
			return "", ErrUnexpectedEndOfData
		}
		chunk := d.data[d.offset : d.offset+int(length)]
		if !utf8.Valid(chunk) {
			return "", ErrInvalidUtf8
		}
		result.Write(chunk)
		d.offset += int(length)
	}
	d.advanceContainer()
	return result.String(), nil
}

// ReadStartArray reads the start of an array and returns its length, or -1
// for an indefinite-length array.
func (d *Decoder) ReadStartArray() (int, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateStartArray {
		return 0, &TypeMismatchError{Expected: StateStartArray, Actual: state}
	}
	if len(d.nestingStack) >= d.maxNestingDepth {
		return 0, ErrNestingDepthExceeded
	}
	d.invalidateState()

	if d.data[d.offset] == encodeInitialByte(MajorTypeArray, byte(AdditionalInfoIndefiniteLength)) {
		if d.conformanceMode >= ConformanceCanonical {
			return 0, ErrIndefiniteLengthNotAllowed
		}
		d.offset++
		d.nestingStack = append(d.nestingStack, readerNestingInfo{majorType: MajorTypeArray, definiteLength: -1, isIndefinite: true})
		return -1, nil
	}

	length, err := d.readArgumentValue(MajorTypeArray)
	if err != nil {
		return 0, err
	}
	d.nestingStack = append(d.nestingStack, readerNestingInfo{majorType: MajorTypeArray, definiteLength: int64(length)})
	return int(length), nil
}

// ReadEndArray reads the end of an array.
func (d *Decoder) ReadEndArray() error {
	state, err := d.PeekState()
	if err != nil {
		return err
	}
	if state != StateEndArray {
		return &TypeMismatchError{Expected: StateEndArray, Actual: state}
	}
	if len(d.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &d.nestingStack[len(d.nestingStack)-1]
	if info.majorType != MajorTypeArray {
		return ErrInvalidState
	}
	if info.isIndefinite {
		if d.data[d.offset] != breakByte {
			return ErrMissingBreak
		}
		d.offset++
	}
	d.nestingStack = d.nestingStack[:len(d.nestingStack)-1]
	d.invalidateState()
	d.advanceContainer()
	return nil
}

// ReadStartMap reads the start of a map and returns its pair count, or -1
// for an indefinite-length map.
func (d *Decoder) ReadStartMap() (int, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateStartMap {
		return 0, &TypeMismatchError{Expected: StateStartMap, Actual: state}
	}
	if len(d.nestingStack) >= d.maxNestingDepth {
		return 0, ErrNestingDepthExceeded
	}
	d.invalidateState()

	if d.data[d.offset] == encodeInitialByte(MajorTypeMap, byte(AdditionalInfoIndefiniteLength)) {
		if d.conformanceMode >= ConformanceCanonical {
			return 0, ErrIndefiniteLengthNotAllowed
		}
		d.offset++
		d.nestingStack = append(d.nestingStack, readerNestingInfo{majorType: MajorTypeMap, definiteLength: -1, isMap: true, isIndefinite: true})
		return -1, nil
	}

	length, err := d.readArgumentValue(MajorTypeMap)
	if err != nil {
		return 0, err
	}
	d.nestingStack = append(d.nestingStack, readerNestingInfo{majorType: MajorTypeMap, definiteLength: int64(length), isMap: true})
	return int(length), nil
}

// ReadEndMap reads the end of a map.
func (d *Decoder) ReadEndMap() error {
	state, err := d.PeekState()
	if err != nil {
		return err
	}
	if state != StateEndMap {
		return &TypeMismatchError{Expected: StateEndMap, Actual: state}
	}
	if len(d.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &d.nestingStack[len(d.nestingStack)-1]
	if info.majorType != MajorTypeMap {
		return ErrInvalidState
	}
	if info.isIndefinite {
		if d.data[d.offset] != breakByte {
			return ErrMissingBreak
		}
		d.offset++
	}
	d.nestingStack = d.nestingStack[:len(d.nestingStack)-1]
	d.invalidateState()
	d.advanceContainer()
	return nil
}

// ReadTag reads a semantic tag (major type 6).
func (d *Decoder) ReadTag() (Tag, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateTag {
		return 0, &TypeMismatchError{Expected: StateTag, Actual: state}
	}
	d.invalidateState()
	val, err := d.readArgumentValue(MajorTypeTag)
	if err != nil {
		return 0, err
	}
	// The tagged inner value advances the container, not the tag itself.
	return Tag(val), nil
}

// ReadBoolean reads a boolean value.
func (d *Decoder) ReadBoolean() (bool, error) {
	state, err := d.PeekState()
	if err != nil {
		return false, err
	}
	if state != StateBoolean {
		return false, &TypeMismatchError{Expected: StateBoolean, Actual: state}
	}
	d.invalidateState()
	_, ai := decodeInitialByte(d.data[d.offset])
	d.offset++
	d.advanceContainer()
	return ai == byte(SimpleValueTrue), nil
}

// ReadNull reads a null value.
func (d *Decoder) ReadNull() error {
	state, err := d.PeekState()
	if err != nil {
		return err
	}
	if state != StateNull {
		return &TypeMismatchError{Expected: StateNull, Actual: state}
	}
	d.invalidateState()
	d.offset++
	d.advanceContainer()
	return nil
}

// ReadUndefined reads an undefined value.
func (d *Decoder) ReadUndefined() error {
	state, err := d.PeekState()
	if err != nil {
		return err
	}
	if state != StateUndefinedValue {
		return &TypeMismatchError{Expected: StateUndefinedValue, Actual: state}
	}
	d.invalidateState()
	d.offset++
	d.advanceContainer()
	return nil
}

// ReadSimpleValue reads an opaque simple-value code. A code read via the
// 1-byte (additional-info 24) form must not fall in [0,31] regardless of
// conformance mode — that range is permanently reserved for the
// directly-encoded simple values, not merely non-canonical.
func (d *Decoder) ReadSimpleValue() (SimpleValue, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	switch state {
	case StateSimpleValue, StateBoolean, StateNull, StateUndefinedValue:
	default:
		return 0, &TypeMismatchError{Expected: StateSimpleValue, Actual: state}
	}

	d.invalidateState()
	_, ai := decodeInitialByte(d.data[d.offset])
	d.offset++

	var value SimpleValue
	if ai == 24 {
		if d.offset >= len(d.data) {
			return 0, ErrUnexpectedEndOfData
		}
		value = SimpleValue(d.data[d.offset])
		d.offset++
		if value < 32 {
			return 0, ErrInvalidSimpleValue
		}
	} else {
		value = SimpleValue(ai)
	}

	d.advanceContainer()
	return value, nil
}

// ReadFloat16 reads a half-precision floating-point number.
func (d *Decoder) ReadFloat16() (float32, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateHalfPrecisionFloat {
		return 0, &TypeMismatchError{Expected: StateHalfPrecisionFloat, Actual: state}
	}
	d.invalidateState()
	d.offset++
	if d.offset+2 > len(d.data) {
		return 0, ErrUnexpectedEndOfData
	}
	bits := binary.BigEndian.Uint16(d.data[d.offset:])
	d.offset += 2
	d.advanceContainer()
	return float16BitsToFloat32(bits), nil
}

// ReadFloat32 reads a single-precision floating-point number.
func (d *Decoder) ReadFloat32() (float32, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateSinglePrecisionFloat {
		return 0, &TypeMismatchError{Expected: StateSinglePrecisionFloat, Actual: state}
	}
	d.invalidateState()
	d.offset++
	if d.offset+4 > len(d.data) {
		return 0, ErrUnexpectedEndOfData
	}
	bits := binary.BigEndian.Uint32(d.data[d.offset:])
	d.offset += 4
	d.advanceContainer()
	return math.Float32frombits(bits), nil
}

// ReadFloat64 reads a double-precision floating-point number.
func (d *Decoder) ReadFloat64() (float64, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	if state != StateDoublePrecisionFloat {
		return 0, &TypeMismatchError{Expected: StateDoublePrecisionFloat, Actual: state}
	}
	d.invalidateState()
	d.offset++
	if d.offset+8 > len(d.data) {
		return 0, ErrUnexpectedEndOfData
	}
	bits := binary.BigEndian.Uint64(d.data[d.offset:])
	d.offset += 8
	d.advanceContainer()
	return math.Float64frombits(bits), nil
}

// ReadFloat reads a floating-point number of any width and widens it to
// float64.
func (d *Decoder) ReadFloat() (float64, error) {
	state, err := d.PeekState()
	if err != nil {
		return 0, err
	}
	switch state {
	case StateHalfPrecisionFloat:
		f, err := d.ReadFloat16()
		return float64(f), err
	case StateSinglePrecisionFloat:
		f, err := d.ReadFloat32()
		return float64(f), err
	case StateDoublePrecisionFloat:
		return d.ReadFloat64()
	default:
		return 0, &TypeMismatchError{Expected: StateDoublePrecisionFloat, Actual: state}
	}
}

// ReadDateTimeString reads a date/time string (tag 0) directly, bypassing
// the tag registry.
func (d *Decoder) ReadDateTimeString() (time.Time, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return time.Time{}, err
	}
	if tag != TagDateTimeString {
		return time.Time{}, NewCborError(ErrInvalidCbor, d.offset, "expected datetime string tag")
	}
	str, err := d.ReadTextString()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, str)
}

// ReadUnixTime reads an epoch-based date/time (tag 1) directly, bypassing
// the tag registry.
func (d *Decoder) ReadUnixTime() (time.Time, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return time.Time{}, err
	}
	if tag != TagUnixTime {
		return time.Time{}, NewCborError(ErrInvalidCbor, d.offset, "expected unix time tag")
	}

	state, err := d.PeekState()
	if err != nil {
		return time.Time{}, err
	}
	switch state {
	case StateUnsignedInteger, StateNegativeInteger:
		secs, err := d.ReadInt64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(secs, 0), nil
	case StateHalfPrecisionFloat, StateSinglePrecisionFloat, StateDoublePrecisionFloat:
		f, err := d.ReadFloat()
		if err != nil {
			return time.Time{}, err
		}
		secs := int64(f)
		nsecs := int64((f - float64(secs)) * 1e9)
		return time.Unix(secs, nsecs), nil
	default:
		return time.Time{}, &TypeMismatchError{Expected: StateUnsignedInteger, Actual: state}
	}
}

// SkipValue skips the current value, including nested values.
func (d *Decoder) SkipValue() error {
	state, err := d.PeekState()
	if err != nil {
		return err
	}
	switch state {
	case StateUnsignedInteger:
		_, err = d.ReadUint64()
		return err
	case StateNegativeInteger:
		_, err = d.ReadInt64()
		return err
	case StateByteString, StateStartIndefiniteLengthByteString:
		_, err = d.ReadByteString()
		return err
	case StateTextString, StateStartIndefiniteLengthTextString:
		_, err = d.ReadTextString()
		return err
	case StateStartArray:
		return d.skipArray()
	case StateStartMap:
		return d.skipMap()
	case StateTag:
		_, err = d.ReadTag()
		if err != nil {
			return err
		}
		return d.SkipValue()
	case StateBoolean:
		_, err = d.ReadBoolean()
		return err
	case StateNull:
		return d.ReadNull()
	case StateUndefinedValue:
		return d.ReadUndefined()
	case StateSimpleValue:
		_, err = d.ReadSimpleValue()
		return err
	case StateHalfPrecisionFloat:
		_, err = d.ReadFloat16()
		return err
	case StateSinglePrecisionFloat:
		_, err = d.ReadFloat32()
		return err
	case StateDoublePrecisionFloat:
		_, err = d.ReadFloat64()
		return err
	default:
		return ErrInvalidState
	}
}

func (d *Decoder) skipArray() error {
	length, err := d.ReadStartArray()
	if err != nil {
		return err
	}
	if length == -1 {
		for {
			state, err := d.PeekState()
			if err != nil {
				return err
			}
			if state == StateEndArray {
				break
			}
			if err := d.SkipValue(); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < length; i++ {
			if err := d.SkipValue(); err != nil {
				return err
			}
		}
	}
	return d.ReadEndArray()
}

func (d *Decoder) skipMap() error {
	length, err := d.ReadStartMap()
	if err != nil {
		return err
	}
	if length == -1 {
		for {
			state, err := d.PeekState()
			if err != nil {
				return err
			}
			if state == StateEndMap {
				break
			}
			if err := d.SkipValue(); err != nil {
				return err
			}
			if err := d.SkipValue(); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < length; i++ {
			if err := d.SkipValue(); err != nil {
				return err
			}
			if err := d.SkipValue(); err != nil {
				return err
			}
		}
	}
	return d.ReadEndMap()
}

// ReadEncodedValue reads a single complete CBOR value as raw, undecoded
// bytes (the form carried by tag 24, "encoded CBOR data item"; no tag 24
// read handler is registered by default).
func (d *Decoder) ReadEncodedValue() ([]byte, error) {
	start := d.offset
	if err := d.SkipValue(); err != nil {
		return nil, err
	}
	result := make([]byte, d.offset-start)
	copy(result, d.data[start:d.offset])
	return result, nil
}

// Decode reads exactly one top-level CBOR value and builds its native Go
// representation. If the source is empty before any byte is read, Decode
// returns the configured EOF sentinel, or aborts with underflow if none
// was configured.
func (d *Decoder) Decode() (any, error) {
	if d.offset == 0 && len(d.data) == 0 {
		if d.hasEOFValue {
			return d.eofSentinel, nil
		}
		return nil, NewCborError(ErrUnexpectedEndOfData, 0, "empty source")
	}

	value, err := d.decodeValue()
	if err != nil {
		return nil, err
	}

	if !d.allowMultipleRootValues && d.offset != len(d.data) {
		return nil, NewCborError(ErrNotAtEnd, d.offset, "")
	}
	return value, nil
}

// DecodeAll reads every top-level CBOR value in the source in turn (a CBOR
// sequence per RFC 8742), stopping at the first error.
func (d *Decoder) DecodeAll() ([]any, error) {
	var values []any
	for d.offset < len(d.data) {
		value, err := d.decodeValue()
		if err != nil {
			return values, err
		}
		values = append(values, value)
	}
	return values, nil
}

// decodeValue is the single recursive dispatch point: it inspects the
// lookahead state and builds the corresponding native Go value.
func (d *Decoder) decodeValue() (any, error) {
	state, err := d.PeekState()
	if err != nil {
		return nil, err
	}

	switch state {
	case StateUnsignedInteger:
		return d.decodeUnsignedInteger()
	case StateNegativeInteger:
		return d.decodeNegativeInteger()
	case StateByteString, StateStartIndefiniteLengthByteString:
		return d.ReadByteString()
	case StateTextString, StateStartIndefiniteLengthTextString:
		return d.ReadTextString()
	case StateStartArray:
		return d.decodeArray()
	case StateStartMap:
		return d.decodeMap()
	case StateTag:
		return d.decodeTag()
	case StateBoolean:
		return d.ReadBoolean()
	case StateNull:
		if err := d.ReadNull(); err != nil {
			return nil, err
		}
		return Null, nil
	case StateUndefinedValue:
		if err := d.ReadUndefined(); err != nil {
			return nil, err
		}
		return Undefined, nil
	case StateSimpleValue:
		sv, err := d.ReadSimpleValue()
		if err != nil {
			return nil, err
		}
		return Simple(sv), nil
	case StateHalfPrecisionFloat, StateSinglePrecisionFloat, StateDoublePrecisionFloat:
		return d.ReadFloat()
	default:
		return nil, NewCborError(ErrInvalidState, d.offset, fmt.Sprintf("cannot decode a value in state %s", state))
	}
}

// decodeUnsignedInteger decodes major type 0. The native Go carrier is
// int64 when the argument fits, uint64 for the rest of the unsigned range
// it spans, and *big.Int is never produced here: major type 0's argument
// is always a uint64, so it always fits uint64.
func (d *Decoder) decodeUnsignedInteger() (any, error) {
	val, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}
	if val <= math.MaxInt64 {
		return int64(val), nil
	}
	return val, nil
}

// decodeNegativeInteger decodes major type 1, promoting to *big.Int when
// -1-argument underflows int64.
func (d *Decoder) decodeNegativeInteger() (any, error) {
	state, err := d.PeekState()
	if err != nil {
		return nil, err
	}
	if state != StateNegativeInteger {
		return nil, &TypeMismatchError{Expected: StateNegativeInteger, Actual: state}
	}
	d.invalidateState()
	raw, err := d.readArgumentValue(MajorTypeNegativeInteger)
	if err != nil {
		return nil, err
	}
	d.advanceContainer()

	if raw <= math.MaxInt64 {
		return -1 - int64(raw), nil
	}
	n := new(big.Int).SetUint64(raw)
	n.Add(n, big.NewInt(1))
	n.Neg(n)
	return n, nil
}

func (d *Decoder) decodeArray() (any, error) {
	length, err := d.ReadStartArray()
	if err != nil {
		return nil, err
	}
	items := []any{}
	for {
		state, err := d.PeekState()
		if err != nil {
			return nil, err
		}
		if state == StateEndArray {
			break
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	_ = length
	if err := d.ReadEndArray(); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *Decoder) decodeMap() (any, error) {
	length, err := d.ReadStartMap()
	if err != nil {
		return nil, err
	}
	capacity := length
	if capacity < 0 {
		capacity = 0
	}
	m := NewMap(capacity)

	for {
		state, err := d.PeekState()
		if err != nil {
			return nil, err
		}
		if state == StateEndMap {
			break
		}
		key, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}

		if d.strictKeys {
			if _, dup := m.Get(key); dup {
				replacement, abort := d.errorHandler(KindDuplicateMapKey, fmt.Sprintf("duplicate map key %v", key))
				if abort {
					return nil, NewCborError(ErrDuplicateKey, d.offset, fmt.Sprintf("duplicate key %v", key))
				}
				m.set(key, replacement)
				continue
			}
		}
		m.Append(key, value)
	}

	if err := d.ReadEndMap(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Decoder) decodeTag() (any, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}
	inner, err := d.decodeValue()
	if err != nil {
		return nil, err
	}
	return d.registry.dispatchTag(tag, inner)
}
