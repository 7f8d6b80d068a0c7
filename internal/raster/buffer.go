package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/texture"
)

// Handheld LCD geometry.
const (
	DisplayWidth  = 400
	DisplayHeight = 240
	DisplayStride = 52 // 50 bytes of pixels + 2 bytes padding per row
)

var errGeometry = errors.New("raster: invalid framebuffer geometry")

// FrameBuffer is a 1 bit per pixel display buffer, MSB first within each byte.
//
// Logical coordinates have x to the right and y up. Memory row 0 holds the
// top of the screen, so logical row y lives in memory row Height-1-y.
type FrameBuffer struct {
	Width  int
	Height int
	Stride int
	Pix    []byte // len >= Stride*Height
}

// NewFrameBuffer allocates a cleared buffer. A zero stride means the
// tightest byte-aligned row.
func NewFrameBuffer(w, h, stride int) (*FrameBuffer, error) {
	if stride == 0 {
		stride = (w + 7) / 8
	}
	if w <= 0 || h <= 0 || stride < (w+7)/8 {
		return nil, fmt.Errorf("%dx%d stride %d: %w", w, h, stride, errGeometry)
	}
	return &FrameBuffer{Width: w, Height: h, Stride: stride, Pix: make([]byte, stride*h)}, nil
}

// NewFrameBufferFrom wraps existing memory, typically arena memory or a
// platform display buffer.
func NewFrameBufferFrom(pix []byte, w, h, stride int) (*FrameBuffer, error) {
	if w <= 0 || h <= 0 || stride < (w+7)/8 || len(pix) < stride*h {
		return nil, fmt.Errorf("%dx%d stride %d over %d bytes: %w", w, h, stride, len(pix), errGeometry)
	}
	return &FrameBuffer{Width: w, Height: h, Stride: stride, Pix: pix[:stride*h]}, nil
}

// WritePixel stores a texel at logical (x, y). Transparent texels are
// skipped; otherwise the pixel is set when the color bit is 1 and cleared
// when it is 0. Coordinates must be inside the buffer.
func (fb *FrameBuffer) WritePixel(x, y int, t texture.Texel) {
	if t.Transparent() {
		return
	}
	i := (fb.Height-1-y)*fb.Stride + x>>3
	mask := byte(0x80) >> (x & 7)
	if t.Lit() {
		fb.Pix[i] |= mask
	} else {
		fb.Pix[i] &^= mask
	}
}

// Pixel reports whether logical (x, y) is set. Out of range reads false.
func (fb *FrameBuffer) Pixel(x, y int) bool {
	if !fb.contains(x, y) {
		return false
	}
	return fb.Pix[(fb.Height-1-y)*fb.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// SetPixel sets logical (x, y), ignoring coordinates outside the buffer.
func (fb *FrameBuffer) SetPixel(x, y int) {
	if fb.contains(x, y) {
		fb.Pix[(fb.Height-1-y)*fb.Stride+x>>3] |= 0x80 >> (x & 7)
	}
}

func (fb *FrameBuffer) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.Width && y < fb.Height
}

// Clear zeroes the whole buffer, padding included.
func (fb *FrameBuffer) Clear() {
	clear(fb.Pix)
}

// Fill sets every pixel to on.
func (fb *FrameBuffer) Fill(on bool) {
	var v byte
	if on {
		v = 0xff
	}
	for i := range fb.Pix {
		fb.Pix[i] = v
	}
}

// FillRect sets or clears a logical rectangle, clipped to the buffer.
func (fb *FrameBuffer) FillRect(r mathutil.Rect, on bool) {
	x0, x1 := mathutil.Clamp(r.X, 0, fb.Width), mathutil.Clamp(r.X+r.W, 0, fb.Width)
	y0, y1 := mathutil.Clamp(r.Y, 0, fb.Height), mathutil.Clamp(r.Y+r.H, 0, fb.Height)
	t := texture.Texel(0)
	if on {
		t = texture.TexelColor
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			fb.WritePixel(x, y, t)
		}
	}
}

// Composite ORs src over fb. Both buffers must have the same size.
func (fb *FrameBuffer) Composite(src *FrameBuffer) error {
	if src.Width != fb.Width || src.Height != fb.Height {
		return fmt.Errorf("composite %dx%d over %dx%d: %w", src.Width, src.Height, fb.Width, fb.Height, errGeometry)
	}
	n := (fb.Width + 7) / 8
	for y := 0; y < fb.Height; y++ {
		dst := fb.Pix[y*fb.Stride : y*fb.Stride+n]
		row := src.Pix[y*src.Stride : y*src.Stride+n]
		for i := range dst {
			dst[i] |= row[i]
		}
	}
	return nil
}

// Display palette: a set bit is a light pixel.
var (
	Light = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	Dark  = color.NRGBA{0x00, 0x00, 0x00, 0xff}
)

// ToImage converts the buffer to an opaque NRGBA image, top row first.
func (fb *FrameBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for r := 0; r < fb.Height; r++ {
		row := fb.Pix[r*fb.Stride:]
		out := img.Pix[r*img.Stride:]
		for x := 0; x < fb.Width; x++ {
			c := Dark
			if row[x>>3]&(0x80>>(x&7)) != 0 {
				c = Light
			}
			out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}

// bitImage exposes a FrameBuffer as a draw.Image in image coordinates
// (y down), so the x/image font and draw packages can render into it.
type bitImage struct {
	fb *FrameBuffer
}

func (b bitImage) ColorModel() color.Model { return color.GrayModel }

func (b bitImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.fb.Width, b.fb.Height)
}

func (b bitImage) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(b.Bounds())) {
		return color.Gray{}
	}
	if b.fb.Pix[y*b.fb.Stride+x>>3]&(0x80>>(x&7)) != 0 {
		return color.Gray{0xff}
	}
	return color.Gray{}
}

func (b bitImage) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(b.Bounds())) {
		return
	}
	i := y*b.fb.Stride + x>>3
	mask := byte(0x80) >> (x & 7)
	if color.GrayModel.Convert(c).(color.Gray).Y >= 0x80 {
		b.fb.Pix[i] |= mask
	} else {
		b.fb.Pix[i] &^= mask
	}
}
