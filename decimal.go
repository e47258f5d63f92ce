package cbor

import (
	"math/big"
	"strings"
)

// Decimal is the domain carrier for CBOR tag 4 (decimal fraction): a
// 2-element array [exponent, mantissa] with base-10 scale and an
// arbitrary-precision mantissa. Value = Mantissa * 10^-Scale.
//
// RFC 8949 encodes the wire exponent directly (value = mantissa *
// 10^exponent); the common unscaled-value convention (as used by
// arbitrary-precision decimal types generally) instead stores a
// non-negative scale where value = mantissa * 10^-scale. Encoding emits
// wireExponent = -Scale and decoding computes Scale = -wireExponent, which
// is exactly what newDecimalFromWire/wireExponent below do.
type Decimal struct {
	Mantissa *big.Int
	Scale    int
}

// NewDecimal builds a Decimal from a mantissa and a base-10 scale (value =
// mantissa * 10^-scale).
func NewDecimal(mantissa *big.Int, scale int) Decimal {
	return Decimal{Mantissa: mantissa, Scale: scale}
}

// newDecimalFromWire builds a Decimal from the raw [exponent, mantissa]
// pair read off the wire.
func newDecimalFromWire(wireExponent int64, mantissa *big.Int) Decimal {
	return Decimal{Mantissa: mantissa, Scale: int(-wireExponent)}
}

// wireExponent returns the CBOR wire exponent for this Decimal's scale.
func (d Decimal) wireExponent() int64 {
	return -int64(d.Scale)
}

// Rat returns the exact rational value of the decimal.
func (d Decimal) Rat() *big.Rat {
	num := new(big.Int).Set(d.Mantissa)
	if d.Scale == 0 {
		return new(big.Rat).SetInt(num)
	}
	if d.Scale > 0 {
		den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
		return new(big.Rat).SetFrac(num, den)
	}
	mul := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-d.Scale)), nil)
	num.Mul(num, mul)
	return new(big.Rat).SetInt(num)
}

// String renders the decimal in plain fixed-point notation, e.g. "273.15".
func (d Decimal) String() string {
	neg := d.Mantissa.Sign() < 0
	digits := new(big.Int).Abs(d.Mantissa).String()

	if d.Scale <= 0 {
		var b strings.Builder
		if neg {
			b.WriteByte('-')
		}
		b.WriteString(digits)
		for i := 0; i < -d.Scale; i++ {
			b.WriteByte('0')
		}
		return b.String()
	}

	for len(digits) <= d.Scale {
		digits = "0" + digits
	}
	whole := digits[:len(digits)-d.Scale]
	frac := digits[len(digits)-d.Scale:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(whole)
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Rational is the domain carrier for CBOR tag 30: a 2-element array
// [numerator, denominator]. It is a thin wrapper around math/big.Rat so
// the tag-registry handler has a stable Go type to register against
// (big.Rat itself is used directly by the registry; Rational exists for
// callers who want the wire-shape field names).
type Rational struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// Rat converts to a math/big.Rat.
func (r Rational) Rat() *big.Rat {
	return new(big.Rat).SetFrac(r.Numerator, r.Denominator)
}

// RationalFromRat builds a Rational from a math/big.Rat.
func RationalFromRat(r *big.Rat) Rational {
	return Rational{Numerator: new(big.Int).Set(r.Num()), Denominator: new(big.Int).Set(r.Denom())}
}
