package mathutil

import "math"

// FixedFracBits is the number of fractional bits in a Fixed.
const FixedFracBits = 24

// Fixed is a signed 8.24 fixed-point number on an int32 base.
//
// The representable range is [-128, 128) with a resolution of 2^-24.
// Conversions from float saturate at the range limits.
type Fixed int32

const (
	fixedOne Fixed = 1 << FixedFracBits

	// FixedMaxWhole is the largest integer part a Fixed can hold.
	FixedMaxWhole = 1<<(31-FixedFracBits) - 1
)

// FixedFromInt converts an integer in [-128, 127].
func FixedFromInt(i int) Fixed {
	return Fixed(int32(i) << FixedFracBits)
}

// FixedFromFloat converts f, truncating toward zero and saturating at the
// representable range.
func FixedFromFloat(f float64) Fixed {
	v := f * float64(fixedOne)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return Fixed(int32(v))
}

// Int returns the integer part, rounding toward negative infinity.
func (f Fixed) Int() int {
	return int(int32(f) >> FixedFracBits)
}

// Frac returns the fractional bits as a value in [0, 1).
func (f Fixed) Frac() float64 {
	return float64(int32(f)&int32(fixedOne-1)) / float64(fixedOne)
}

// Float converts back to floating point.
func (f Fixed) Float() float64 {
	return float64(f) / float64(fixedOne)
}
