package raster

import (
	"image"
	"math"

	"pd-sprite-renderer/internal/logging"
	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/texture"
)

// Quad corner order.
const (
	leftBottom = iota
	rightBottom
	leftTop
	rightTop
)

// quadEdges are the bottom, left, top and right edges as corner pairs.
var quadEdges = [4][2]int{
	{leftBottom, rightBottom},
	{leftBottom, leftTop},
	{leftTop, rightTop},
	{rightBottom, rightTop},
}

// BlitTransformed draws the src rectangle of tex scaled about srcCenter,
// rotated counter-clockwise by angle radians and translated so srcCenter
// lands on dst. srcCenter is relative to the rectangle's origin.
//
// Each covered scanline is sampled at its pixel centre: the span between the
// leftmost and rightmost quad edge crossings is filled by stepping through
// texture space in 8.24 fixed point. Transparent texels leave the frame
// untouched.
//
// Empty rectangles, non-positive scales and non-finite angles draw nothing.
// Source rectangles that fall outside the texture, or are wider or taller
// than mathutil.FixedMaxWhole texels, are refused and counted in
// Stats.Rejected.
//
// HOT PATH: no allocations per call.
func (c *Context) BlitTransformed(dst mathutil.Vec2, scale mathutil.Size, angle float64, src mathutil.Rect, srcCenter mathutil.Vec2, tex texture.Source) {
	if src.Empty() || !(scale.W > 0) || !(scale.H > 0) || tex == nil ||
		math.IsNaN(angle) || math.IsInf(angle, 0) {
		return
	}
	c.Stats.Blits++
	if !fits(src, tex) || src.W > mathutil.FixedMaxWhole || src.H > mathutil.FixedMaxWhole {
		c.Stats.Rejected++
		logging.Logger().Debug("blit refused", "src", src, "max", mathutil.FixedMaxWhole)
		return
	}

	trig := c.Trig
	if trig == nil {
		trig = mathutil.DefaultTable
	}
	sin, cos := trig.Sincos(angle)
	size := src.Size()
	quad := [4]mathutil.Vec2{
		leftBottom:  {X: 0, Y: 0},
		rightBottom: {X: size.W, Y: 0},
		leftTop:     {X: 0, Y: size.H},
		rightTop:    {X: size.W, Y: size.H},
	}
	for i, p := range quad {
		p = p.Sub(srcCenter).Mul(scale.Vec())
		quad[i] = mathutil.RotateCCW(cos, sin, p).Add(dst)
	}
	if c.Debug != nil {
		c.Debug.Outline(quad[:]...)
	}

	minY, maxY := quad[0].Y, quad[0].Y
	for _, p := range quad[1:] {
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	fb := c.Frame
	yBegin := clampRound(minY, 0, fb.Height)
	yEnd := clampRound(maxY, 0, fb.Height)

	inv := inverseMap{
		dst:    dst,
		center: srcCenter,
		sin:    sin,
		cos:    cos,
		invW:   1 / scale.W,
		invH:   1 / scale.H,
	}

	degenerate := 0
	for y := yBegin; y < yEnd; y++ {
		c.Stats.Scanlines++
		sy := float64(y) + 0.5

		left, right, ok := scanlineSpan(&quad, sy)
		if !ok {
			degenerate++
			continue
		}
		xBegin := clampRound(left, 0, fb.Width)
		xEnd := clampRound(right, 0, fb.Width)
		if xBegin >= xEnd {
			continue
		}

		// Texture coordinates at both crossings, interpolated per column.
		s0 := inv.apply(mathutil.V2(left, sy))
		s1 := inv.apply(mathutil.V2(right, sy))
		step := s1.Sub(s0).Scale(1 / (right - left))
		start := s0.Add(step.Scale(float64(xBegin) + 0.5 - left))

		c.span(y, xBegin, xEnd,
			mathutil.FixedFromFloat(start.X), mathutil.FixedFromFloat(start.Y),
			mathutil.FixedFromFloat(step.X), mathutil.FixedFromFloat(step.Y),
			src, tex)
	}

	if degenerate > 0 {
		c.Stats.DegenerateScanlines += degenerate
		logging.Logger().Debug("scanlines without a span", "count", degenerate, "dst", dst, "angle", angle)
	}
}

// span writes columns [x0, x1) of logical row y. u and v are texture
// coordinates relative to src at the centre of column x0.
func (c *Context) span(y, x0, x1 int, u, v, du, dv mathutil.Fixed, src mathutil.Rect, tex texture.Source) {
	fb := c.Frame
	maxU, maxV := src.W-1, src.H-1

	switch t := tex.(type) {
	case *texture.Alpha:
		for x := x0; x < x1; x++ {
			tx := mathutil.Clamp(u.Int(), 0, maxU) + src.X
			ty := mathutil.Clamp(v.Int(), 0, maxV) + src.Y
			fb.WritePixel(x, y, texture.Texel(texture.FetchIndex(t.Pix, t.Pitch, tx, ty)))
			u += du
			v += dv
		}
	case *texture.Mask:
		for x := x0; x < x1; x++ {
			tx := mathutil.Clamp(u.Int(), 0, maxU) + src.X
			ty := mathutil.Clamp(v.Int(), 0, maxV) + src.Y
			fb.WritePixel(x, y, texture.Texel(texture.FetchMaskIndex(t.Pix, t.Pitch, tx, ty)))
			u += du
			v += dv
		}
	default:
		for x := x0; x < x1; x++ {
			tx := mathutil.Clamp(u.Int(), 0, maxU) + src.X
			ty := mathutil.Clamp(v.Int(), 0, maxV) + src.Y
			fb.WritePixel(x, y, tex.Fetch(tx, ty))
			u += du
			v += dv
		}
	}

	c.Stats.Spans++
	c.Stats.Pixels += x1 - x0
}

// scanlineSpan intersects the horizontal line at y with the quad's edges and
// returns the leftmost and rightmost crossing. Horizontal edges are skipped.
// A line through a vertex crosses both adjacent edges at the same point, so
// more than two crossings are normal; fewer than two means no span.
func scanlineSpan(quad *[4]mathutil.Vec2, y float64) (left, right float64, ok bool) {
	left, right = math.Inf(1), math.Inf(-1)
	hits := 0
	for _, e := range quadEdges {
		x, hit := crossing(quad[e[0]], quad[e[1]], y)
		if !hit {
			continue
		}
		hits++
		left, right = math.Min(left, x), math.Max(right, x)
	}
	return left, right, hits >= 2
}

// crossing returns where the segment a-b meets the horizontal line at y.
func crossing(a, b mathutil.Vec2, y float64) (float64, bool) {
	if a.Y == b.Y {
		return 0, false
	}
	t := (y - a.Y) / (b.Y - a.Y)
	if !(t >= 0 && t <= 1) {
		return 0, false
	}
	x := a.X + t*(b.X-a.X)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// inverseMap takes a screen point back into source rectangle space: undo
// the translation, rotate clockwise by the blit angle, divide by the scale.
type inverseMap struct {
	dst, center mathutil.Vec2
	sin, cos    float64
	invW, invH  float64
}

func (m inverseMap) apply(p mathutil.Vec2) mathutil.Vec2 {
	q := p.Sub(m.dst)
	return mathutil.Vec2{
		X: (q.X*m.cos+q.Y*m.sin)*m.invW + m.center.X,
		Y: (-q.X*m.sin+q.Y*m.cos)*m.invH + m.center.Y,
	}
}

// BlitRectangle copies the src rectangle of tex unscaled and unrotated so
// that srcCenter lands on dst, clipping against the frame.
func (c *Context) BlitRectangle(dst image.Point, src mathutil.Rect, srcCenter image.Point, tex texture.Source) {
	if src.Empty() || tex == nil {
		return
	}
	c.Stats.Blits++
	if !fits(src, tex) {
		c.Stats.Rejected++
		logging.Logger().Debug("blit refused", "src", src)
		return
	}

	lb := dst.Sub(srcCenter)
	if c.Debug != nil {
		c.Debug.Outline(
			mathutil.V2(float64(lb.X), float64(lb.Y)),
			mathutil.V2(float64(lb.X+src.W), float64(lb.Y+src.H)),
		)
	}

	fb := c.Frame
	x0, x1 := max(lb.X, 0), min(lb.X+src.W, fb.Width)
	y0, y1 := max(lb.Y, 0), min(lb.Y+src.H, fb.Height)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	for y := y0; y < y1; y++ {
		ty := src.Y + y - lb.Y
		for x := x0; x < x1; x++ {
			fb.WritePixel(x, y, tex.Fetch(src.X+x-lb.X, ty))
		}
	}
	c.Stats.Scanlines += y1 - y0
	c.Stats.Spans += y1 - y0
	c.Stats.Pixels += (x1 - x0) * (y1 - y0)
}

// clampRound rounds v to the nearest integer within [lo, hi]. NaN maps to lo.
func clampRound(v float64, lo, hi int) int {
	if !(v >= float64(lo)) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return mathutil.Clamp(int(math.Round(v)), lo, hi)
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
