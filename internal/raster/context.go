// Package raster draws compressed sprite textures into a 1 bit per pixel
// framebuffer.
//
// All drawing goes through a Context, which bundles the target buffer, the
// optional debug overlay and the trig implementation used for rotation.
// A Context has a single writer; render one frame at a time.
package raster

import (
	"image"

	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/texture"
)

// Display receives finished frames, like the platform LCD driver. start and
// end are memory rows, end exclusive.
type Display interface {
	MarkUpdatedRows(fb *FrameBuffer, start, end int) error
}

// Stats counts rasterizer work since the last ResetStats.
type Stats struct {
	Blits     int // draw calls that passed the empty-geometry check
	Rejected  int // draw calls refused because the source rect does not fit
	Scanlines int
	Spans     int
	Pixels    int

	// DegenerateScanlines counts scanlines inside a quad's vertical range
	// that crossed fewer than two of its edges. Only float edge cases at
	// the quad's extreme vertices cause this.
	DegenerateScanlines int
}

// Context is the render state for one frame target.
type Context struct {
	Frame *FrameBuffer
	Debug *Overlay // nil disables debug drawing
	Trig  mathutil.Sincos
	Stats Stats
}

// NewContext returns a context drawing into frame. A nil trig uses the
// default lookup table.
func NewContext(frame *FrameBuffer, trig mathutil.Sincos) *Context {
	if trig == nil {
		trig = mathutil.DefaultTable
	}
	return &Context{Frame: frame, Trig: trig}
}

// ResetStats zeroes the counters.
func (c *Context) ResetStats() {
	c.Stats = Stats{}
}

// Present hands the whole frame to d, compositing the
// debug overlay first when one is attached.
func (c *Context) Present(d Display) error {
	if c.Debug != nil {
		if err := c.Debug.CompositeOnto(c.Frame); err != nil {
			return err
		}
	}
	return d.MarkUpdatedRows(c.Frame, 0, c.Frame.Height)
}

// DrawBitmap draws the src rectangle of tex so that srcCenter lands on dst,
// scaled and then rotated counter-clockwise by angle radians. Unrotated,
// unscaled draws at whole-pixel positions take the axis-aligned path.
func (c *Context) DrawBitmap(tex texture.Source, src mathutil.Rect, dst mathutil.Vec2, angle float64, scale mathutil.Size, srcCenter mathutil.Vec2) {
	if mathutil.ClampRadians(angle) == 0 && scale == mathutil.Uniform(1) && whole(dst) && whole(srcCenter) {
		c.BlitRectangle(
			image.Pt(int(dst.X), int(dst.Y)),
			src,
			image.Pt(int(srcCenter.X), int(srcCenter.Y)),
			tex,
		)
		return
	}
	c.BlitTransformed(dst, scale, angle, src, srcCenter, tex)
}

func whole(v mathutil.Vec2) bool {
	return v.X == float64(int(v.X)) && v.Y == float64(int(v.Y))
}

// fits reports whether src lies inside tex.
func fits(src mathutil.Rect, tex texture.Source) bool {
	w, h := tex.Size()
	return src.X >= 0 && src.Y >= 0 && src.X+src.W <= w && src.Y+src.H <= h
}
