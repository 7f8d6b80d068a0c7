package mathutil

// Size is a non-uniform 2D extent or scale factor.
type Size struct {
	W, H float64
}

// Uniform returns a Size with both components set to s.
func Uniform(s float64) Size {
	return Size{W: s, H: s}
}

// Vec returns the size as a vector.
func (s Size) Vec() Vec2 {
	return Vec2{s.W, s.H}
}

// Rect is an integer rectangle in texel space: origin plus extent.
type Rect struct {
	X, Y, W, H int
}

func R(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Empty reports whether the rectangle covers no texels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Size returns the extent as floats.
func (r Rect) Size() Size {
	return Size{float64(r.W), float64(r.H)}
}

// Center returns the rounded middle of the rectangle relative to its origin,
// the default pivot for a sprite.
func (r Rect) Center() Vec2 {
	return Vec2{float64((r.W + 1) / 2), float64((r.H + 1) / 2)}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundUp rounds n up to a multiple of align. align <= 1 returns n.
func RoundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
