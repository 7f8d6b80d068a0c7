package mathutil

import "math"

// RotateCCW rotates p counter-clockwise using a precomputed cos/sin pair.
func RotateCCW(cosTheta, sinTheta float64, p Vec2) Vec2 {
	return Vec2{
		p.X*cosTheta - p.Y*sinTheta,
		p.X*sinTheta + p.Y*cosTheta,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// ClampRadians wraps an angle into [0, 2π).
func ClampRadians(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		a = 0
	}
	return a
}
