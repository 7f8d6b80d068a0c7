package mathutil

import "math"

// Sincos returns the sine and cosine of an angle in radians.
type Sincos interface {
	Sincos(rad float64) (sin, cos float64)
}

// Exact uses the math package.
type Exact struct{}

func (Exact) Sincos(rad float64) (float64, float64) {
	return math.Sincos(rad)
}

// Table is a quarter-wave sine lookup table. The angle is rounded to the
// nearest of 4*n samples per turn and folded into the first quadrant, so the
// result is an approximation whose accuracy is set by n.
type Table struct {
	n      int
	invInc float64
	halfIn float64
	sine   []float64 // [0, π/2], n+1 samples
}

// DefaultTable uses SinePer90Deg samples per quadrant.
var DefaultTable = NewTable(SinePer90Deg)

// NewTable builds a table with n samples per 90°. n < 1 is treated as 1.
func NewTable(n int) *Table {
	if n < 1 {
		n = 1
	}
	inc := HalfPi / float64(n)
	return &Table{
		n:      n,
		invInc: 1 / inc,
		halfIn: inc / 2,
		sine:   GenerateSineTable(n),
	}
}

// Samples returns the number of samples per quadrant.
func (t *Table) Samples() int { return t.n }

// Sincos looks up both values with the same rounding. Non-finite angles
// yield NaN.
func (t *Table) Sincos(rad float64) (float64, float64) {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return math.NaN(), math.NaN()
	}
	idx := int((ClampRadians(rad) + t.halfIn) * t.invInc)
	return t.lookup(idx), t.lookup(idx + t.n)
}

// lookup folds a sample index over the full turn.
func (t *Table) lookup(idx int) float64 {
	idx %= t.n * 4
	if idx <= t.n*2 {
		return t.half(idx)
	}
	return -t.half(idx - t.n*2)
}

// half covers [0, π] by mirroring the quadrant table around π/2.
func (t *Table) half(idx int) float64 {
	if idx > t.n {
		idx = 2*t.n - idx
	}
	return t.sine[idx]
}
