package cbor

import "fmt"

// ReaderState represents the current state of the Decoder: which kind of
// item is next, reified as a peekable state so callers can branch before
// committing to a Read* call.
type ReaderState int

const (
	// StateUndefined means the reader state is undefined.
	StateUndefined ReaderState = iota
	// StateUnsignedInteger means an unsigned integer is next.
	StateUnsignedInteger
	// StateNegativeInteger means a negative integer is next.
	StateNegativeInteger
	// StateByteString means a byte string is next.
	StateByteString
	// StateTextString means a text string is next.
	StateTextString
	// StateStartArray means the start of an array is next.
	StateStartArray
	// StateEndArray means the end of an array is next.
	StateEndArray
	// StateStartMap means the start of a map is next.
	StateStartMap
	// StateEndMap means the end of a map is next.
	StateEndMap
	// StateTag means a semantic tag is next.
	StateTag
	// StateSimpleValue means a simple value is next.
	StateSimpleValue
	// StateHalfPrecisionFloat means a half-precision float is next.
	StateHalfPrecisionFloat
	// StateSinglePrecisionFloat means a single-precision float is next.
	StateSinglePrecisionFloat
	// StateDoublePrecisionFloat means a double-precision float is next.
	StateDoublePrecisionFloat
	// StateNull means a null value is next.
	StateNull
	// StateBoolean means a boolean value is next.
	StateBoolean
	// StateUndefinedValue means an undefined value is next.
	StateUndefinedValue
	// StateStartIndefiniteLengthByteString means the start of an indefinite-length byte string.
	StateStartIndefiniteLengthByteString
	// StateEndIndefiniteLengthByteString means the end of an indefinite-length byte string.
	StateEndIndefiniteLengthByteString
	// StateStartIndefiniteLengthTextString means the start of an indefinite-length text string.
	StateStartIndefiniteLengthTextString
	// StateEndIndefiniteLengthTextString means the end of an indefinite-length text string.
	StateEndIndefiniteLengthTextString
	// StateFinished means all CBOR data has been read.
	StateFinished
)

// String returns the string representation of the reader state.
func (s ReaderState) String() string {
	switch s {
	case StateUndefined:
		return "Undefined"
	case StateUnsignedInteger:
		return "UnsignedInteger"
	case StateNegativeInteger:
		return "NegativeInteger"
	case StateByteString:
		return "ByteString"
	case StateTextString:
		return "TextString"
	case StateStartArray:
		return "StartArray"
	case StateEndArray:
		return "EndArray"
	case StateStartMap:
		return "StartMap"
	case StateEndMap:
		return "EndMap"
	case StateTag:
		return "Tag"
	case StateSimpleValue:
		return "SimpleValue"
	case StateHalfPrecisionFloat:
		return "HalfPrecisionFloat"
	case StateSinglePrecisionFloat:
		return "SinglePrecisionFloat"
	case StateDoublePrecisionFloat:
		return "DoublePrecisionFloat"
	case StateNull:
		return "Null"
	case StateBoolean:
		return "Boolean"
	case StateUndefinedValue:
		return "Undefined"
	case StateStartIndefiniteLengthByteString:
		return "StartIndefiniteLengthByteString"
	case StateEndIndefiniteLengthByteString:
		return "EndIndefiniteLengthByteString"
	case StateStartIndefiniteLengthTextString:
		return "StartIndefiniteLengthTextString"
	case StateEndIndefiniteLengthTextString:
		return "EndIndefiniteLengthTextString"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// ConformanceMode specifies the conformance mode for CBOR operations.
type ConformanceMode int

const (
	// ConformanceLax allows non-conforming CBOR data.
	ConformanceLax ConformanceMode = iota
	// ConformanceStrict requires strict conformance to RFC 8949.
	ConformanceStrict
	// ConformanceCanonical requires canonical CBOR encoding (RFC 8949 §4.2.1).
	ConformanceCanonical
	// ConformanceCtap2Canonical requires CTAP2 canonical CBOR encoding.
	ConformanceCtap2Canonical
)

// Tag identifies a CBOR semantic tag (the non-negative integer prefix of
// major type 6).
type Tag uint64

// Well-known tags: RFC 8949's built-ins plus the domain tags this module
// gives a native Go representation.
const (
	TagDateTimeString    Tag = 0
	TagUnixTime          Tag = 1
	TagUnsignedBignum    Tag = 2
	TagNegativeBignum    Tag = 3
	TagDecimalFraction   Tag = 4
	TagBigFloat          Tag = 5 // recognized but never produces a domain value; no bigfloat type is provided.
	TagExpectedBase64URL Tag = 21
	TagExpectedBase64    Tag = 22
	TagExpectedBase16    Tag = 23
	TagEncodedCborData   Tag = 24
	TagURI               Tag = 32
	TagBase64URL         Tag = 33
	TagBase64            Tag = 34
	TagRegularExpression Tag = 35
	TagMIMEMessage       Tag = 36
	TagGenericObject     Tag = 27
	TagRational          Tag = 30
	TagIdentifier        Tag = 39
	TagSelfDescribedCbor Tag = 55799
)

// TaggedValue is the generic passthrough record produced when the decoder
// encounters a tag with no registered read handler, and consumed by the
// encoder re-entry path for any value that already carries an explicit
// tag.
type TaggedValue struct {
	Tag   Tag
	Inner any
}

func (t TaggedValue) String() string {
	return fmt.Sprintf("%d(%v)", t.Tag, t.Inner)
}

// Simple is an opaque simple-value code (major type 7, additional info in
// [0,19] or [32,255]) that isn't one of the four reserved singletons
// (false/true/null/undefined).
type Simple byte

func (s Simple) String() string {
	return fmt.Sprintf("simple(%d)", byte(s))
}

// nullValue and undefinedValue are distinct singleton types so that decoded
// CBOR null and undefined round-trip distinguishably instead of collapsing
// to a single Go nil.
type nullValue struct{}

func (nullValue) String() string { return "null" }

type undefinedValue struct{}

func (undefinedValue) String() string { return "undefined" }

var (
	// Null is the decoded/encoded form of CBOR's null simple value.
	Null = nullValue{}
	// Undefined is the decoded/encoded form of CBOR's undefined simple value.
	Undefined = undefinedValue{}
)

// MapEntry is one key/value pair of a decoded Map, in wire order.
type MapEntry struct {
	Key   any
	Value any
}

// Map is the ordered-pairs representation of a CBOR map: decoding never
// uses a native Go map, because CBOR map keys may be of non-comparable
// native types (byte strings, arrays). Insertion order is preserved for
// round-trip; canonical encoding re-sorts.
type Map struct {
	entries []MapEntry
}

// NewMap creates an empty Map with room for at least capacity entries.
func NewMap(capacity int) *Map {
	return &Map{entries: make([]MapEntry, 0, capacity)}
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the map's entries in their current order. The returned
// slice aliases the Map's internal storage and must not be mutated.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Append adds a key/value pair without checking for duplicates; used by the
// decoder, which performs its own duplicate-key policy.
func (m *Map) Append(key, value any) {
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Get performs a linear scan for a key compared via cbor-equality (see
// valuesEqual in registry.go) and returns its value.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, e := range m.entries {
		if valuesEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// set overwrites the value of an existing entry matching key. Used by the
// decoder's duplicate-key error handler, which may substitute a
// replacement value for a duplicate without aborting the whole decode.
func (m *Map) set(key, value any) {
	for i := range m.entries {
		if valuesEqual(m.entries[i].Key, key) {
			m.entries[i].Value = value
			return
		}
	}
	m.Append(key, value)
}
