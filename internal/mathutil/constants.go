package mathutil

import "math"

const (
	HalfPi = math.Pi / 2
	TwoPi  = 2 * math.Pi

	// SinePer90Deg is the default trig table resolution: samples per quadrant.
	// 400 samples gives a step of 0.225°, worst-case error about 2e-3.
	SinePer90Deg = 400
)
