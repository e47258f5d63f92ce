package cbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"
)

// Encoder provides low-level typed writes that append to an in-memory
// buffer, plus the high-level Encode entry point that dispatches on a
// native Go value's shape.
type Encoder struct {
	buffer                  []byte
	conformanceMode         ConformanceMode
	nestingStack            []nestingInfo
	maxNestingDepth         int
	currentOffset           int
	allowMultipleRootValues bool
	rootValueWritten        bool

	registry *Registry
}

type nestingInfo struct {
	majorType      MajorType
	definiteLength int64 // -1 for indefinite
	itemsWritten   int64
	isMap          bool
	keyWritten     bool
	isIndefinite   bool
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncoderConformanceMode sets the conformance mode; ConformanceCanonical
// is the default.
func WithEncoderConformanceMode(mode ConformanceMode) EncoderOption {
	return func(w *Encoder) { w.conformanceMode = mode }
}

// WithEncoderInitialCapacity sets the initial buffer capacity.
func WithEncoderInitialCapacity(capacity int) EncoderOption {
	return func(w *Encoder) { w.buffer = make([]byte, 0, capacity) }
}

// WithEncoderMaxNestingDepth sets the maximum container nesting depth.
func WithEncoderMaxNestingDepth(depth int) EncoderOption {
	return func(w *Encoder) { w.maxNestingDepth = depth }
}

// WithEncoderAllowMultipleRootValues records whether more than one top-level
// value may be written into the same Encoder. The Encoder does not check
// the flag: it accepts any number of top-level values whether or not it is
// set.
func WithEncoderAllowMultipleRootValues(allow bool) EncoderOption {
	return func(w *Encoder) { w.allowMultipleRootValues = allow }
}

// WithEncoderRegistry sets the tag registry consulted for domain types with
// no built-in shape.
func WithEncoderRegistry(reg *Registry) EncoderOption {
	return func(w *Encoder) { w.registry = reg }
}

// NewEncoder creates an Encoder with the specified options. The default
// conformance mode is ConformanceCanonical.
func NewEncoder(opts ...EncoderOption) *Encoder {
	w := &Encoder{
		buffer:          make([]byte, 0, 256),
		conformanceMode: ConformanceCanonical,
		nestingStack:    make([]nestingInfo, 0, 16),
		maxNestingDepth: 64,
		registry:        NewRegistry(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reset clears the Encoder for reuse.
func (w *Encoder) Reset() {
	w.buffer = w.buffer[:0]
	w.nestingStack = w.nestingStack[:0]
	w.currentOffset = 0
	w.rootValueWritten = false
}

// Bytes returns the encoded CBOR data. The returned slice aliases the
// Encoder's internal buffer and must not be mutated.
func (w *Encoder) Bytes() []byte { return w.buffer }

// BytesCopy returns a copy of the encoded CBOR data.
func (w *Encoder) BytesCopy() []byte {
	result := make([]byte, len(w.buffer))
	copy(result, w.buffer)
	return result
}

// Len returns the current length of the encoded data.
func (w *Encoder) Len() int { return len(w.buffer) }

// NestingDepth returns the current nesting depth.
func (w *Encoder) NestingDepth() int { return len(w.nestingStack) }

func (w *Encoder) checkNestingDepth() error {
	if len(w.nestingStack) >= w.maxNestingDepth {
		return ErrNestingDepthExceeded
	}
	return nil
}

func (w *Encoder) advanceContainer() {
	if len(w.nestingStack) == 0 {
		w.rootValueWritten = true
		return
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.isMap {
		if info.keyWritten {
			info.keyWritten = false
			info.itemsWritten++
		} else {
			info.keyWritten = true
		}
	} else {
		info.itemsWritten++
	}
}

// writeMinimalInitialByte writes the initial byte using the narrowest
// argument width that fits value; this is the only initial-byte writer,
// since canonical encoding is the default and lax mode never needs a wider
// form.
func (w *Encoder) writeMinimalInitialByte(mt MajorType, value uint64) {
	switch argumentWidth(value) {
	case 0:
		w.buffer = append(w.buffer, encodeInitialByte(mt, byte(value)))
	case 1:
		w.buffer = append(w.buffer, encodeInitialByte(mt, byte(AdditionalInfo8Bit)), byte(value))
	case 2:
		w.buffer = append(w.buffer, encodeInitialByte(mt, byte(AdditionalInfo16Bit)))
		w.buffer = binary.BigEndian.AppendUint16(w.buffer, uint16(value))
	case 4:
		w.buffer = append(w.buffer, encodeInitialByte(mt, byte(AdditionalInfo32Bit)))
		w.buffer = binary.BigEndian.AppendUint32(w.buffer, uint32(value))
	default:
		w.buffer = append(w.buffer, encodeInitialByte(mt, byte(AdditionalInfo64Bit)))
		w.buffer = binary.BigEndian.AppendUint64(w.buffer, value)
	}
	w.currentOffset = len(w.buffer)
}

// WriteInt64 writes a signed 64-bit integer.
func (w *Encoder) WriteInt64(value int64) error {
	if value >= 0 {
		w.writeMinimalInitialByte(MajorTypeUnsignedInteger, uint64(value))
	} else {
		w.writeMinimalInitialByte(MajorTypeNegativeInteger, uint64(-1-value))
	}
	w.advanceContainer()
	return nil
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Encoder) WriteUint64(value uint64) error {
	w.writeMinimalInitialByte(MajorTypeUnsignedInteger, value)
	w.advanceContainer()
	return nil
}

// WriteBigInt writes an arbitrary-precision integer, falling back to the
// native major 0/1 form when it fits and to bignum tags 2/3 otherwise.
func (w *Encoder) WriteBigInt(value *big.Int) error {
	if value == nil {
		return w.WriteNull()
	}
	if value.IsInt64() {
		return w.WriteInt64(value.Int64())
	}
	if value.IsUint64() {
		return w.WriteUint64(value.Uint64())
	}
	if value.Sign() < 0 {
		// Major type 1's argument is -1-value, which can fit uint64 even
		// when value itself is outside both IsInt64 and IsUint64 (e.g.
		// -2^64): narrow to native form before falling back to tag 3.
		argument := new(big.Int).Neg(value)
		argument.Sub(argument, big.NewInt(1))
		if argument.IsUint64() {
			w.writeMinimalInitialByte(MajorTypeNegativeInteger, argument.Uint64())
			w.advanceContainer()
			return nil
		}
	}

	var tag Tag
	var magnitude *big.Int
	if value.Sign() >= 0 {
		tag = TagUnsignedBignum
		magnitude = value
	} else {
		tag = TagNegativeBignum
		magnitude = new(big.Int).Neg(value)
		magnitude.Sub(magnitude, big.NewInt(1))
	}
	if err := w.WriteTag(tag); err != nil {
		return err
	}
	return w.WriteByteString(magnitude.Bytes())
}

// WriteByteString writes a byte string.
func (w *Encoder) WriteByteString(value []byte) error {
	w.writeMinimalInitialByte(MajorTypeByteString, uint64(len(value)))
	w.buffer = append(w.buffer, value...)
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteTextString writes a UTF-8 text string.
func (w *Encoder) WriteTextString(value string) error {
	w.writeMinimalInitialByte(MajorTypeTextString, uint64(len(value)))
	w.buffer = append(w.buffer, value...)
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteStartArray writes the beginning of a definite-length array.
func (w *Encoder) WriteStartArray(length int) error {
	if err := w.checkNestingDepth(); err != nil {
		return err
	}
	w.writeMinimalInitialByte(MajorTypeArray, uint64(length))
	w.nestingStack = append(w.nestingStack, nestingInfo{majorType: MajorTypeArray, definiteLength: int64(length)})
	return nil
}

// WriteEndArray writes the end of an array.
func (w *Encoder) WriteEndArray() error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeArray {
		return ErrInvalidState
	}
	if info.isIndefinite {
		w.buffer = append(w.buffer, breakByte)
		w.currentOffset = len(w.buffer)
	} else if info.itemsWritten != info.definiteLength {
		if info.itemsWritten < info.definiteLength {
			return ErrIncompleteContainer
		}
		return ErrExtraItems
	}
	w.nestingStack = w.nestingStack[:len(w.nestingStack)-1]
	w.advanceContainer()
	return nil
}

// WriteStartMap writes the beginning of a definite-length map of length
// key/value pairs.
func (w *Encoder) WriteStartMap(length int) error {
	if err := w.checkNestingDepth(); err != nil {
		return err
	}
	w.writeMinimalInitialByte(MajorTypeMap, uint64(length))
	w.nestingStack = append(w.nestingStack, nestingInfo{majorType: MajorTypeMap, definiteLength: int64(length), isMap: true})
	return nil
}

// WriteEndMap writes the end of a map.
func (w *Encoder) WriteEndMap() error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeMap {
		return ErrInvalidState
	}
	if info.keyWritten {
		return ErrIncompleteContainer
	}
	if info.isIndefinite {
		w.buffer = append(w.buffer, breakByte)
		w.currentOffset = len(w.buffer)
	} else if info.itemsWritten != info.definiteLength {
		if info.itemsWritten < info.definiteLength {
			return ErrIncompleteContainer
		}
		return ErrExtraItems
	}
	w.nestingStack = w.nestingStack[:len(w.nestingStack)-1]
	w.advanceContainer()
	return nil
}

// WriteTag writes a semantic tag.
func (w *Encoder) WriteTag(tag Tag) error {
	w.writeMinimalInitialByte(MajorTypeTag, uint64(tag))
	return nil
}

// WriteBoolean writes a boolean value.
func (w *Encoder) WriteBoolean(value bool) error {
	if value {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueTrue)))
	} else {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueFalse)))
	}
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteNull writes a null value.
func (w *Encoder) WriteNull() error {
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueNull)))
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteUndefined writes an undefined value.
func (w *Encoder) WriteUndefined() error {
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueUndefined)))
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteSimpleValue writes an opaque simple-value code.
func (w *Encoder) WriteSimpleValue(value SimpleValue) error {
	if value < 32 {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(value)))
	} else {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo8Bit)), byte(value))
	}
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteFloat16 writes a half-precision floating-point number without
// checking for lossless round-trip; callers wanting the exact-only rule
// should use WriteFloat.
func (w *Encoder) WriteFloat16(value float32) error {
	bits := float32ToFloat16Bits(value)
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, 25))
	w.buffer = binary.BigEndian.AppendUint16(w.buffer, bits)
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteFloat32 writes a single-precision floating-point number.
func (w *Encoder) WriteFloat32(value float32) error {
	bits := math.Float32bits(value)
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, 26))
	w.buffer = binary.BigEndian.AppendUint32(w.buffer, bits)
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteFloat64 writes a double-precision floating-point number.
func (w *Encoder) WriteFloat64(value float64) error {
	bits := math.Float64bits(value)
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, 27))
	w.buffer = binary.BigEndian.AppendUint64(w.buffer, bits)
	w.currentOffset = len(w.buffer)
	w.advanceContainer()
	return nil
}

// WriteFloat writes value using the narrowest of the three IEEE-754 widths
// that represents it exactly, emitting a canonical quiet NaN for any NaN
// payload.
func (w *Encoder) WriteFloat(value float64) error {
	if math.IsNaN(value) {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, 25))
		w.buffer = binary.BigEndian.AppendUint16(w.buffer, float16NaNBits)
		w.currentOffset = len(w.buffer)
		w.advanceContainer()
		return nil
	}
	if bits, ok := float16BitsFromFloat64Exact(value); ok {
		w.buffer = append(w.buffer, encodeInitialByte(MajorTypeSimpleOrFloat, 25))
		w.buffer = binary.BigEndian.AppendUint16(w.buffer, bits)
		w.currentOffset = len(w.buffer)
		w.advanceContainer()
		return nil
	}
	if f32 := float32(value); float64(f32) == value {
		return w.WriteFloat32(f32)
	}
	return w.WriteFloat64(value)
}

// WriteStartIndefiniteLengthByteString writes the start of a streaming byte
// string.
func (w *Encoder) WriteStartIndefiniteLengthByteString() error {
	if w.conformanceMode >= ConformanceCanonical {
		return ErrIndefiniteLengthNotAllowed
	}
	if err := w.checkNestingDepth(); err != nil {
		return err
	}
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeByteString, byte(AdditionalInfoIndefiniteLength)))
	w.currentOffset = len(w.buffer)
	w.nestingStack = append(w.nestingStack, nestingInfo{majorType: MajorTypeByteString, definiteLength: -1, isIndefinite: true})
	return nil
}

// WriteByteStringChunk writes one chunk of a streaming byte string.
func (w *Encoder) WriteByteStringChunk(value []byte) error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeByteString || !info.isIndefinite {
		return ErrInvalidState
	}
	w.writeMinimalInitialByte(MajorTypeByteString, uint64(len(value)))
	w.buffer = append(w.buffer, value...)
	w.currentOffset = len(w.buffer)
	return nil
}

// WriteEndIndefiniteLengthByteString writes the break that ends a streaming
// byte string.
func (w *Encoder) WriteEndIndefiniteLengthByteString() error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeByteString || !info.isIndefinite {
		return ErrInvalidState
	}
	w.buffer = append(w.buffer, breakByte)
	w.currentOffset = len(w.buffer)
	w.nestingStack = w.nestingStack[:len(w.nestingStack)-1]
	w.advanceContainer()
	return nil
}

// WriteStartIndefiniteLengthTextString writes the start of a streaming text
// string.
func (w *Encoder) WriteStartIndefiniteLengthTextString() error {
	if w.conformanceMode >= ConformanceCanonical {
		return ErrIndefiniteLengthNotAllowed
	}
	if err := w.checkNestingDepth(); err != nil {
		return err
	}
	w.buffer = append(w.buffer, encodeInitialByte(MajorTypeTextString, byte(AdditionalInfoIndefiniteLength)))
	w.currentOffset = len(w.buffer)
	w.nestingStack = append(w.nestingStack, nestingInfo{majorType: MajorTypeTextString, definiteLength: -1, isIndefinite: true})
	return nil
}

// WriteTextStringChunk writes one chunk of a streaming text string.
func (w *Encoder) WriteTextStringChunk(value string) error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeTextString || !info.isIndefinite {
		return ErrInvalidState
	}
	w.writeMinimalInitialByte(MajorTypeTextString, uint64(len(value)))
	w.buffer = append(w.buffer, value...)
	w.currentOffset = len(w.buffer)
	return nil
}

// WriteEndIndefiniteLengthTextString writes the break that ends a streaming
// text string.
func (w *Encoder) WriteEndIndefiniteLengthTextString() error {
	if len(w.nestingStack) == 0 {
		return ErrInvalidState
	}
	info := &w.nestingStack[len(w.nestingStack)-1]
	if info.majorType != MajorTypeTextString || !info.isIndefinite {
		return ErrInvalidState
	}
	w.buffer = append(w.buffer, breakByte)
	w.currentOffset = len(w.buffer)
	w.nestingStack = w.nestingStack[:len(w.nestingStack)-1]
	w.advanceContainer()
	return nil
}

// WriteDateTimeString writes a date/time string with tag 0.
func (w *Encoder) WriteDateTimeString(t time.Time) error {
	if err := w.WriteTag(TagDateTimeString); err != nil {
		return err
	}
	return w.WriteTextString(t.Format(time.RFC3339Nano))
}

// WriteUnixTime writes an epoch-based date/time with tag 1.
func (w *Encoder) WriteUnixTime(t time.Time) error {
	if err := w.WriteTag(TagUnixTime); err != nil {
		return err
	}
	if t.Nanosecond() != 0 {
		seconds := float64(t.Unix()) + float64(t.Nanosecond())/1e9
		return w.WriteFloat64(seconds)
	}
	return w.WriteInt64(t.Unix())
}

// WriteURI writes a URI with tag 32.
func (w *Encoder) WriteURI(uri string) error {
	if err := w.WriteTag(TagURI); err != nil {
		return err
	}
	return w.WriteTextString(uri)
}

// WriteEncodedCborData writes pre-encoded CBOR bytes with tag 24.
func (w *Encoder) WriteEncodedCborData(data []byte) error {
	if err := w.WriteTag(TagEncodedCborData); err != nil {
		return err
	}
	return w.WriteByteString(data)
}

// WriteSelfDescribedCbor writes the self-described-CBOR tag (55799).
func (w *Encoder) WriteSelfDescribedCbor() error {
	return w.WriteTag(TagSelfDescribedCbor)
}

// WriteRaw appends raw bytes directly to the buffer, bypassing all framing.
func (w *Encoder) WriteRaw(data []byte) error {
	w.buffer = append(w.buffer, data...)
	w.currentOffset = len(w.buffer)
	return nil
}

// Encode appends the CBOR encoding of value to the Encoder's buffer
// (canonical in ConformanceCanonical mode and above, the default; in lower
// modes map entries keep their insertion order), recursively dispatching
// on its shape: null, boolean, byte
// string, text string, floating-point, integer, ordered sequence,
// key-value mapping, tagged value, or an unknown type handed to the tag
// registry.
func (w *Encoder) Encode(value any) error {
	switch v := value.(type) {
	case nil:
		return w.WriteNull()
	case nullValue:
		return w.WriteNull()
	case undefinedValue:
		return w.WriteUndefined()
	case bool:
		return w.WriteBoolean(v)
	case int:
		return w.WriteInt64(int64(v))
	case int8:
		return w.WriteInt64(int64(v))
	case int16:
		return w.WriteInt64(int64(v))
	case int32:
		return w.WriteInt64(int64(v))
	case int64:
		return w.WriteInt64(v)
	case uint:
		return w.WriteUint64(uint64(v))
	case uint8:
		return w.WriteUint64(uint64(v))
	case uint16:
		return w.WriteUint64(uint64(v))
	case uint32:
		return w.WriteUint64(uint64(v))
	case uint64:
		return w.WriteUint64(v)
	case float32:
		return w.WriteFloat(float64(v))
	case float64:
		return w.WriteFloat(v)
	case string:
		return w.WriteTextString(v)
	case []byte:
		return w.WriteByteString(v)
	case Simple:
		return w.WriteSimpleValue(SimpleValue(v))
	case *big.Int:
		return w.WriteBigInt(v)
	case TaggedValue:
		if err := w.WriteTag(v.Tag); err != nil {
			return err
		}
		return w.Encode(v.Inner)
	case []any:
		return w.encodeArray(v)
	case *Map:
		return w.encodeMap(v)
	case map[string]any:
		return w.encodeStringMap(v)
	default:
		return w.encodeViaRegistryOrFail(value)
	}
}

func (w *Encoder) encodeArray(items []any) error {
	if err := w.WriteStartArray(len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := w.Encode(item); err != nil {
			return err
		}
	}
	return w.WriteEndArray()
}

// encodeMap writes an ordered Map. In ConformanceCanonical mode and above
// the entries are written in canonical key order: keys sorted by ascending
// encoded length, then lexicographic byte order of their own canonical
// encoding. In lower modes they are written in insertion order.
func (w *Encoder) encodeMap(m *Map) error {
	entries := m.Entries()
	if err := w.WriteStartMap(len(entries)); err != nil {
		return err
	}
	if w.conformanceMode >= ConformanceCanonical {
		encoded, err := encodeEntriesForSort(w.registry, entries)
		if err != nil {
			return err
		}
		for _, e := range encoded {
			if err := w.WriteRaw(e.keyBytes); err != nil {
				return err
			}
			if err := w.Encode(e.value); err != nil {
				return err
			}
		}
	} else {
		for _, e := range entries {
			if err := w.Encode(e.Key); err != nil {
				return err
			}
			if err := w.Encode(e.Value); err != nil {
				return err
			}
		}
	}
	return w.WriteEndMap()
}

func (w *Encoder) encodeStringMap(m map[string]any) error {
	ordered := NewMap(len(m))
	for k, v := range m {
		ordered.Append(k, v)
	}
	return w.encodeMap(ordered)
}

type sortedEntry struct {
	keyBytes []byte
	value    any
}

// encodeEntriesForSort pre-encodes every key with its own Encoder so the
// entries can be reordered into RFC 7049 §3.9 canonical map order before
// being appended to the outer buffer.
func encodeEntriesForSort(reg *Registry, entries []MapEntry) ([]sortedEntry, error) {
	result := make([]sortedEntry, len(entries))
	for i, e := range entries {
		keyEncoder := NewEncoder(WithEncoderConformanceMode(ConformanceCanonical), WithEncoderRegistry(reg))
		if err := keyEncoder.Encode(e.Key); err != nil {
			return nil, err
		}
		result[i] = sortedEntry{keyBytes: keyEncoder.BytesCopy(), value: e.Value}
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].keyBytes, result[j].keyBytes
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return result, nil
}

// encodeViaRegistryOrFail handles the "unknown" shape: consult the tag
// registry keyed by value's concrete Go type, and re-enter Encode with the
// handler's inner value after writing its tag.
func (w *Encoder) encodeViaRegistryOrFail(value any) error {
	tag, inner, handled, err := w.registry.dispatchValue(value)
	if err != nil {
		return err
	}
	if handled {
		if err := w.WriteTag(tag); err != nil {
			return err
		}
		return w.Encode(inner)
	}

	replacement, hookErr := w.registry.unknownValueHook(value)
	if hookErr != nil {
		return NewCborError(ErrUnknownValue, w.currentOffset, fmt.Sprintf("no encoder for %T", value))
	}
	return w.Encode(replacement)
}
