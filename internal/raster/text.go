package raster

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Glyph metrics of the built-in 7x13 face.
const (
	GlyphWidth  = 7
	GlyphHeight = 13
)

// Text draws s with its top-left corner at logical (x, y), so the glyphs
// extend downwards towards smaller y. Only lit pixels are written.
func (fb *FrameBuffer) Text(x, y int, s string) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  bitImage{fb},
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(x, fb.Height-1-y+face.Ascent),
	}
	d.DrawString(s)
}

// TextWidth returns the advance of s in pixels.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
