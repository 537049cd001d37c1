package fixedpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFloatRoundTrip(t *testing.T) {
	cases := []float64{0, 45.50, -10_000.1234, 0.0001, 123456.7890}

	for _, v := range cases {
		got := ToFloat(FromFloat(v))
		assert.LessOrEqualf(t, abs(got-v), 1.0/Scale, "round trip for %v drifted to %v", v, got)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.NewFromFloat(45.50)
	p := FromDecimal(d)
	assert.Equal(t, Price(455000), p)
	assert.True(t, ToDecimal(p).Equal(decimal.NewFromFloat(45.50)))
}

func TestMulRatio(t *testing.T) {
	// -10,000 * 1.125 = -11,250
	position := FromFloat(-10_000)
	ratio := FromFloat(1.125)
	target := MulRatio(position, ratio)
	assert.InDelta(t, -11_250.0, ToFloat(target), 0.01)
}

func TestAbs(t *testing.T) {
	assert.Equal(t, Price(10), Price(-10).Abs())
	assert.Equal(t, Price(10), Price(10).Abs())
	assert.Equal(t, Quantity(10), Quantity(-10).Abs())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
