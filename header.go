// Package cbor provides CBOR (Concise Binary Object Representation) encoding
// and decoding as defined in RFC 8949. This implementation is a Go port of
// clj-cbor, a Clojure CBOR library, and keeps the reader/writer state-machine
// shape of System.Formats.Cbor-style codecs: a pair of low-level stream
// primitives (Decoder/Encoder) plus a pluggable tag registry that converts
// between native domain values and their tagged CBOR representation.
package cbor

// MajorType represents the CBOR major type (3-bit value in the initial byte).
type MajorType byte

const (
	// MajorTypeUnsignedInteger represents unsigned integer (major type 0).
	MajorTypeUnsignedInteger MajorType = 0
	// MajorTypeNegativeInteger represents negative integer (major type 1).
	MajorTypeNegativeInteger MajorType = 1
	// MajorTypeByteString represents byte string (major type 2).
	MajorTypeByteString MajorType = 2
	// MajorTypeTextString represents UTF-8 text string (major type 3).
	MajorTypeTextString MajorType = 3
	// MajorTypeArray represents array of data items (major type 4).
	MajorTypeArray MajorType = 4
	// MajorTypeMap represents map of pairs of data items (major type 5).
	MajorTypeMap MajorType = 5
	// MajorTypeTag represents tagged data item (major type 6).
	MajorTypeTag MajorType = 6
	// MajorTypeSimpleOrFloat represents simple values and floats (major type 7).
	MajorTypeSimpleOrFloat MajorType = 7
)

// String returns the string representation of the major type.
func (mt MajorType) String() string {
	switch mt {
	case MajorTypeUnsignedInteger:
		return "UnsignedInteger"
	case MajorTypeNegativeInteger:
		return "NegativeInteger"
	case MajorTypeByteString:
		return "ByteString"
	case MajorTypeTextString:
		return "TextString"
	case MajorTypeArray:
		return "Array"
	case MajorTypeMap:
		return "Map"
	case MajorTypeTag:
		return "Tag"
	case MajorTypeSimpleOrFloat:
		return "SimpleOrFloat"
	default:
		return "Unknown"
	}
}

// AdditionalInfo represents the additional information in the initial byte.
type AdditionalInfo byte

const (
	// AdditionalInfoDirect means the value is encoded directly in the additional info (0-23).
	AdditionalInfoDirect AdditionalInfo = 0
	// AdditionalInfo8Bit means the following byte contains the value.
	AdditionalInfo8Bit AdditionalInfo = 24
	// AdditionalInfo16Bit means the following 2 bytes contain the value.
	AdditionalInfo16Bit AdditionalInfo = 25
	// AdditionalInfo32Bit means the following 4 bytes contain the value.
	AdditionalInfo32Bit AdditionalInfo = 26
	// AdditionalInfo64Bit means the following 8 bytes contain the value.
	AdditionalInfo64Bit AdditionalInfo = 27
	// additionalInfoReservedLow/High bracket the three reserved info codes (28, 29, 30).
	additionalInfoReservedLow  AdditionalInfo = 28
	additionalInfoReservedHigh AdditionalInfo = 30
	// AdditionalInfoIndefiniteLength means indefinite length (used for strings, arrays, maps),
	// or the break marker when paired with MajorTypeSimpleOrFloat.
	AdditionalInfoIndefiniteLength AdditionalInfo = 31
)

// isReserved reports whether ai is one of the three reserved info codes
// (28, 29, 30) that the decoder must reject with a reserved-length error.
func (ai AdditionalInfo) isReserved() bool {
	return ai >= additionalInfoReservedLow && ai <= additionalInfoReservedHigh
}

// SimpleValue represents CBOR simple values under major type 7.
type SimpleValue byte

const (
	// SimpleValueFalse represents the boolean value false.
	SimpleValueFalse SimpleValue = 20
	// SimpleValueTrue represents the boolean value true.
	SimpleValueTrue SimpleValue = 21
	// SimpleValueNull represents a null value.
	SimpleValueNull SimpleValue = 22
	// SimpleValueUndefined represents an undefined value.
	SimpleValueUndefined SimpleValue = 23
)

// breakByte terminates indefinite-length items (header byte 0xFF: major type
// 7, additional info 31).
const breakByte byte = 0xFF

// encodeInitialByte packs a major type and additional-info value into the
// one-byte CBOR header.
func encodeInitialByte(mt MajorType, ai byte) byte {
	return byte(mt)<<5 | (ai & 0x1F)
}

// decodeInitialByte splits a CBOR header byte into its major type and
// additional-info fields.
func decodeInitialByte(b byte) (MajorType, byte) {
	return MajorType(b >> 5), b & 0x1F
}

// argumentWidth returns the number of bytes (0, 1, 2, 4, or 8) the canonical
// encoding of value needs beyond the initial byte — the narrowest argument
// width that can hold it.
func argumentWidth(value uint64) int {
	switch {
	case value < 24:
		return 0
	case value <= 0xFF:
		return 1
	case value <= 0xFFFF:
		return 2
	case value <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}
