package cbor

import (
	"fmt"
	"math/big"
	"reflect"
	"time"
)

// ReadHandler converts a tag's already-decoded inner value into a domain
// value — the read side of a tag registration.
type ReadHandler func(inner any) (any, error)

// WriteHandler converts a domain value into the tag and inner value that
// should be re-entered into the encoder. The tag is returned by the handler
// itself (not fixed at registration time) because some built-ins choose
// between two tags depending on the value, e.g. *big.Int picks tag 2 or 3
// from its sign.
type WriteHandler func(value any) (tag Tag, inner any, err error)

// Registry is the bidirectional tag <-> (read handler, write handler) map.
// It is read-only once built (values are never mutated after Register
// calls at setup time by convention), so a single Registry may be shared
// across concurrent Decoder/Encoder operations.
type Registry struct {
	readHandlers  map[Tag]ReadHandler
	writeHandlers map[reflect.Type]WriteHandler

	// unknownTagHook runs when a decoded tag has no registered read
	// handler. Default: pass through a TaggedValue record.
	unknownTagHook func(tag Tag, inner any) (any, error)

	// unknownValueHook runs when an encoded value matches no built-in shape
	// and no registered write handler. Default: abort with ErrUnknownValue.
	unknownValueHook func(value any) (any, error)
}

// NewRegistry builds a Registry with the built-in handlers pre-registered:
// tags 0, 1, 2, 3, 4, 21, 22, 23, 27, 30, 39, 55799.
func NewRegistry() *Registry {
	reg := &Registry{
		readHandlers:  make(map[Tag]ReadHandler),
		writeHandlers: make(map[reflect.Type]WriteHandler),
		unknownTagHook: func(tag Tag, inner any) (any, error) {
			return TaggedValue{Tag: tag, Inner: inner}, nil
		},
		unknownValueHook: func(value any) (any, error) {
			return nil, ErrUnknownValue
		},
	}
	registerBuiltins(reg)
	return reg
}

// RegisterReader registers (or replaces) the read handler for tag.
func (reg *Registry) RegisterReader(tag Tag, read ReadHandler) {
	reg.readHandlers[tag] = read
}

// RegisterWriter registers (or replaces) the write handler used when the
// encoder is given a value of exactly the type of sample.
func (reg *Registry) RegisterWriter(sample any, write WriteHandler) {
	reg.writeHandlers[reflect.TypeOf(sample)] = write
}

// Register registers both directions for a tag/type pair in one call.
func (reg *Registry) Register(tag Tag, sample any, read ReadHandler, write WriteHandler) {
	reg.RegisterReader(tag, read)
	if write != nil {
		reg.RegisterWriter(sample, write)
	}
}

// SetUnknownTagHook overrides the default unknown-tag passthrough.
func (reg *Registry) SetUnknownTagHook(hook func(tag Tag, inner any) (any, error)) {
	reg.unknownTagHook = hook
}

// SetUnknownValueHook overrides the default unknown-value abort.
func (reg *Registry) SetUnknownValueHook(hook func(value any) (any, error)) {
	reg.unknownValueHook = hook
}

// dispatchTag resolves a decoded tag + inner value to a domain value,
// consulting the unknown-tag hook when no handler is registered.
func (reg *Registry) dispatchTag(tag Tag, inner any) (any, error) {
	if h, ok := reg.readHandlers[tag]; ok {
		return h(inner)
	}
	return reg.unknownTagHook(tag, inner)
}

// dispatchValue looks up a write handler for value's concrete type. handled
// is false when no handler is registered (the caller then falls through to
// the unknown-value hook).
func (reg *Registry) dispatchValue(value any) (tag Tag, inner any, handled bool, err error) {
	h, ok := reg.writeHandlers[reflect.TypeOf(value)]
	if !ok {
		return 0, nil, false, nil
	}
	tag, inner, err = h(value)
	return tag, inner, true, err
}

// registerBuiltins installs the handlers for the well-known tags.
func registerBuiltins(reg *Registry) {
	timeType := reflect.TypeOf(time.Time{})

	// Tag 0: RFC 3339 date/time string.
	reg.readHandlers[TagDateTimeString] = func(inner any) (any, error) {
		s, ok := inner.(string)
		if !ok {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 0 requires a text-string inner value")
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	reg.writeHandlers[timeType] = func(value any) (Tag, any, error) {
		t := value.(time.Time)
		return TagDateTimeString, t.Format(time.RFC3339Nano), nil
	}

	// Tag 1: epoch-based date/time. Read-only by default; time.Time always
	// encodes via tag 0. Callers who want epoch encoding use
	// Encoder.WriteUnixTime directly.
	reg.readHandlers[TagUnixTime] = func(inner any) (any, error) {
		switch v := inner.(type) {
		case int64:
			return time.Unix(v, 0), nil
		case uint64:
			return time.Unix(int64(v), 0), nil
		case float64:
			secs := int64(v)
			nsecs := int64((v - float64(secs)) * 1e9)
			return time.Unix(secs, nsecs), nil
		case *big.Int:
			return time.Unix(v.Int64(), 0), nil
		default:
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 1 requires a numeric inner value")
		}
	}

	// Tags 2/3: positive/negative bignum.
	reg.readHandlers[TagUnsignedBignum] = func(inner any) (any, error) {
		b, ok := inner.([]byte)
		if !ok {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 2 requires a byte-string inner value")
		}
		return new(big.Int).SetBytes(b), nil
	}
	reg.readHandlers[TagNegativeBignum] = func(inner any) (any, error) {
		b, ok := inner.([]byte)
		if !ok {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 3 requires a byte-string inner value")
		}
		n := new(big.Int).SetBytes(b)
		return n.Neg(n.Add(n, big.NewInt(1))), nil
	}
	reg.writeHandlers[reflect.TypeOf(&big.Int{})] = func(value any) (Tag, any, error) {
		n := value.(*big.Int)
		if n.Sign() >= 0 {
			return TagUnsignedBignum, n.Bytes(), nil
		}
		magnitude := new(big.Int).Neg(n)
		magnitude.Sub(magnitude, big.NewInt(1))
		return TagNegativeBignum, magnitude.Bytes(), nil
	}

	// Tag 4: decimal fraction.
	reg.readHandlers[TagDecimalFraction] = func(inner any) (any, error) {
		pair, ok := inner.([]any)
		if !ok || len(pair) != 2 {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 4 requires a 2-element array")
		}
		exp, err := asInt64(pair[0])
		if err != nil {
			return nil, err
		}
		mantissa, err := asBigInt(pair[1])
		if err != nil {
			return nil, err
		}
		return newDecimalFromWire(exp, mantissa), nil
	}
	reg.writeHandlers[reflect.TypeOf(Decimal{})] = func(value any) (Tag, any, error) {
		d := value.(Decimal)
		return TagDecimalFraction, []any{d.wireExponent(), bigIntOrNative(d.Mantissa)}, nil
	}

	// Tag 21/22/23: expected base64url/base64/base16 conversion hints.
	// Spec §4.5 SUPPLEMENTED FEATURES: no native domain type needs this, so
	// the handler passes the inner byte string through unchanged rather
	// than falling into the generic unknown-tag hook.
	passthrough := func(inner any) (any, error) { return inner, nil }
	reg.readHandlers[TagExpectedBase64URL] = passthrough
	reg.readHandlers[TagExpectedBase64] = passthrough
	reg.readHandlers[TagExpectedBase16] = passthrough

	// Tag 27: generic tagged literal, [tag-name, form].
	reg.readHandlers[TagGenericObject] = func(inner any) (any, error) {
		pair, ok := inner.([]any)
		if !ok || len(pair) != 2 {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 27 requires a 2-element array")
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 27's first element must be a string")
		}
		return TaggedLiteral{Tag: name, Form: pair[1]}, nil
	}
	reg.writeHandlers[reflect.TypeOf(TaggedLiteral{})] = func(value any) (Tag, any, error) {
		tl := value.(TaggedLiteral)
		return TagGenericObject, []any{tl.Tag, tl.Form}, nil
	}

	// Tag 30: rational number, [numerator, denominator].
	reg.readHandlers[TagRational] = func(inner any) (any, error) {
		pair, ok := inner.([]any)
		if !ok || len(pair) != 2 {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 30 requires a 2-element array")
		}
		num, err := asBigInt(pair[0])
		if err != nil {
			return nil, err
		}
		den, err := asBigInt(pair[1])
		if err != nil {
			return nil, err
		}
		if den.Sign() == 0 {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 30 denominator must be non-zero")
		}
		return new(big.Rat).SetFrac(num, den), nil
	}
	ratWriter := func(value any) (Tag, any, error) {
		r := value.(*big.Rat)
		return TagRational, []any{bigIntOrNative(r.Num()), bigIntOrNative(r.Denom())}, nil
	}
	reg.writeHandlers[reflect.TypeOf(&big.Rat{})] = ratWriter
	reg.writeHandlers[reflect.TypeOf(Rational{})] = func(value any) (Tag, any, error) {
		r := value.(Rational)
		return TagRational, []any{bigIntOrNative(r.Numerator), bigIntOrNative(r.Denominator)}, nil
	}

	// Tag 39: symbol/keyword identifier.
	reg.readHandlers[TagIdentifier] = func(inner any) (any, error) {
		s, ok := inner.(string)
		if !ok {
			return nil, NewCborError(ErrInvalidCbor, 0, "tag 39 requires a text-string inner value")
		}
		return ParseIdentifier(s), nil
	}
	reg.writeHandlers[reflect.TypeOf(Symbol{})] = func(value any) (Tag, any, error) {
		return TagIdentifier, value.(Symbol).identifier(), nil
	}
	reg.writeHandlers[reflect.TypeOf(Keyword{})] = func(value any) (Tag, any, error) {
		return TagIdentifier, value.(Keyword).identifier(), nil
	}

	// Tag 55799: self-described CBOR. Read side is a transparent wrapper.
	reg.readHandlers[TagSelfDescribedCbor] = passthrough
}

// TaggedLiteral is the domain carrier for CBOR tag 27 (generic object /
// tagged literal), clj-cbor's reader form for `#tag-name value`.
type TaggedLiteral struct {
	Tag  string
	Form any
}

func (t TaggedLiteral) String() string {
	return fmt.Sprintf("#%s %v", t.Tag, t.Form)
}

// asInt64 coerces a decoded numeric value to int64, used by tag handlers
// that expect a small exponent or count.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > 1<<62 {
			return 0, ErrOverflow
		}
		return int64(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, ErrOverflow
		}
		return n.Int64(), nil
	default:
		return 0, NewCborError(ErrInvalidCbor, 0, "expected an integer")
	}
}

// asBigInt coerces a decoded numeric value to *big.Int.
func asBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case *big.Int:
		return n, nil
	default:
		return nil, NewCborError(ErrInvalidCbor, 0, "expected an integer")
	}
}

// bigIntOrNative narrows a *big.Int back to a native int64/uint64 when it
// fits, so that re-encoding it picks the compact native-integer shape
// instead of looping back through the bignum tag handler.
func bigIntOrNative(n *big.Int) any {
	if n.IsInt64() {
		return n.Int64()
	}
	if n.IsUint64() {
		return n.Uint64()
	}
	return n
}

// valuesEqual compares two decoded CBOR domain values for the unique-map-key
// check and for Map.Get. It special-cases the arbitrary-precision numeric
// carriers (which reflect.DeepEqual would
// otherwise compare by internal representation rather than value) and
// falls back to reflect.DeepEqual for everything else, which is exact for
// the remaining domain types (bool, string, []byte, []any, *Map, Tag,
// Symbol, Keyword, nullValue, undefinedValue).
func valuesEqual(a, b any) bool {
	if bigA, ok := a.(*big.Int); ok {
		bigB, ok := b.(*big.Int)
		return ok && bigA.Cmp(bigB) == 0
	}
	if ratA, ok := a.(*big.Rat); ok {
		ratB, ok := b.(*big.Rat)
		return ok && ratA.Cmp(ratB) == 0
	}
	return reflect.DeepEqual(a, b)
}
