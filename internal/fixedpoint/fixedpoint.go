// Package fixedpoint implements the integer price/volume representation
// used everywhere on the hot path. Floating point only exists at the
// boundaries where this package is asked to convert to or from it.
package fixedpoint

import "github.com/shopspring/decimal"

// Scale is the fixed-point denominator: a Price of 1 represents 1/Scale
// of a unit of currency.
const Scale = 10_000

// Price is a price scaled by Scale, e.g. 45.50 is represented as 455000.
type Price int64

// Volume is a quantity in instrument-native units (no scaling).
type Volume uint64

// Quantity is a signed, fixed-point quantity in native units scaled by
// Scale — used for position and hedge exposure, where negative means
// short. Distinct from Price: same representation, different domain.
type Quantity int64

// FromFloatQty converts a float64 quantity into fixed-point representation.
func FromFloatQty(v float64) Quantity {
	return Quantity(v * float64(Scale))
}

// ToFloatQty converts a fixed-point quantity back to float64.
func ToFloatQty(q Quantity) float64 {
	return float64(q) / float64(Scale)
}

// Abs returns the absolute value of a Quantity.
func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// FromFloat converts a float64 price into fixed-point representation.
// Only safe to call at system boundaries (config, display, tests).
func FromFloat(v float64) Price {
	return Price(v * float64(Scale))
}

// ToFloat converts a fixed-point price back to float64.
func ToFloat(p Price) float64 {
	return float64(p) / float64(Scale)
}

// FromDecimal converts a decimal.Decimal into fixed-point representation.
// Used at config boundaries where the caller supplies a price or ratio as
// a decimal string rather than a raw float, avoiding the float64
// precision loss this package exists to contain in the first place.
func FromDecimal(d decimal.Decimal) Price {
	scaled := d.Mul(decimal.NewFromInt(Scale))
	return Price(scaled.IntPart())
}

// ToDecimal converts a fixed-point price into a decimal.Decimal, for
// display or logging at the boundary.
func ToDecimal(p Price) decimal.Decimal {
	return decimal.New(int64(p), 0).Div(decimal.NewFromInt(Scale))
}

// Abs returns the absolute value of a Price.
func (p Price) Abs() Price {
	if p < 0 {
		return -p
	}
	return p
}

// MulRatio multiplies a Price by a ratio expressed as a fixed-point
// Price (scaled by Scale), returning a fixed-point Price. Intermediate
// arithmetic widens to int64 products divided back down by Scale.
func MulRatio(value Price, ratio Price) Price {
	return Price((int64(value) * int64(ratio)) / Scale)
}
