package cbor

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Diagnose renders a single CBOR data item as RFC 8949 Appendix G extended
// diagnostic notation (EDN), e.g. {1: 2, 3: "x"} or h'01020304'. It is a
// read-only debugging aid built on top of Decode, not a reversible
// encoding; cmd/cbordump is its only caller in this module.
func Diagnose(data []byte) (string, error) {
	d := NewDecoder(data, WithDecoderConformanceMode(ConformanceLax))
	value, err := d.Decode()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeDiagnostic(&b, value)
	return b.String(), nil
}

func writeDiagnostic(b *strings.Builder, value any) {
	switch v := value.(type) {
	case nullValue:
		b.WriteString("null")
	case undefinedValue:
		b.WriteString("undefined")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case *big.Int:
		b.WriteString(v.String())
	case float64:
		writeDiagnosticFloat(b, v)
	case string:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v, `"`, `\"`))
		b.WriteByte('"')
	case []byte:
		b.WriteString("h'")
		b.WriteString(hex.EncodeToString(v))
		b.WriteByte('\'')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			writeDiagnostic(b, item)
		}
		b.WriteByte(']')
	case *Map:
		b.WriteByte('{')
		for i, entry := range v.Entries() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeDiagnostic(b, entry.Key)
			b.WriteString(": ")
			writeDiagnostic(b, entry.Value)
		}
		b.WriteByte('}')
	case Simple:
		fmt.Fprintf(b, "simple(%d)", byte(v))
	case TaggedValue:
		fmt.Fprintf(b, "%d(", v.Tag)
		writeDiagnostic(b, v.Inner)
		b.WriteByte(')')
	case Decimal:
		b.WriteString(v.String())
	case Rational:
		fmt.Fprintf(b, "%s/%s", v.Numerator, v.Denominator)
	case Symbol:
		b.WriteString(v.identifier())
	case Keyword:
		b.WriteString(v.identifier())
	case fmt.Stringer:
		b.WriteString(v.String())
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func writeDiagnosticFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN")
	case math.IsInf(f, 1):
		b.WriteString("Infinity")
	case math.IsInf(f, -1):
		b.WriteString("-Infinity")
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}
