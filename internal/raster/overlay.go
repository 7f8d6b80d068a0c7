package raster

import (
	"math"

	"pd-sprite-renderer/internal/mathutil"
)

// Overlay is a debug layer drawn on top of the frame. It is purely additive:
// drawing only ever sets bits, and the whole layer is wiped with Clear.
type Overlay struct {
	fb *FrameBuffer
}

// NewOverlay creates an overlay matching the geometry of frame.
func NewOverlay(frame *FrameBuffer) *Overlay {
	return &Overlay{fb: &FrameBuffer{
		Width:  frame.Width,
		Height: frame.Height,
		Stride: frame.Stride,
		Pix:    make([]byte, frame.Stride*frame.Height),
	}}
}

// Buffer returns the overlay's pixels.
func (o *Overlay) Buffer() *FrameBuffer { return o.fb }

// Clear wipes the overlay.
func (o *Overlay) Clear() { o.fb.Clear() }

// Outline draws the axis-aligned box around the given corners, clipped.
func (o *Overlay) Outline(corners ...mathutil.Vec2) {
	if len(corners) == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	if math.IsInf(minX, 0) || math.IsInf(maxX, 0) || math.IsInf(minY, 0) || math.IsInf(maxY, 0) ||
		math.IsNaN(minX+maxX+minY+maxY) {
		return
	}
	// Clamp one pixel beyond each edge so off-screen sides stay invisible.
	w, h := float64(o.fb.Width), float64(o.fb.Height)
	x0, x1 := int(clampF(math.Floor(minX), -1, w)), int(clampF(math.Ceil(maxX)-1, -1, w))
	y0, y1 := int(clampF(math.Floor(minY), -1, h)), int(clampF(math.Ceil(maxY)-1, -1, h))

	for x := x0; x <= x1; x++ {
		o.fb.SetPixel(x, y0)
		o.fb.SetPixel(x, y1)
	}
	for y := y0; y <= y1; y++ {
		o.fb.SetPixel(x0, y)
		o.fb.SetPixel(x1, y)
	}
}

// Text draws a label with its top-left corner at logical (x, y).
func (o *Overlay) Text(x, y int, s string) {
	o.fb.Text(x, y, s)
}

// CompositeOnto ORs the overlay over frame.
func (o *Overlay) CompositeOnto(frame *FrameBuffer) error {
	return frame.Composite(o.fb)
}
