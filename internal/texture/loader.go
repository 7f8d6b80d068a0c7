package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// LoadOptions controls how a full-color image is reduced to texel indices.
type LoadOptions struct {
	// Dither uses Floyd-Steinberg error diffusion for the color bit instead of
	// a plain luminance threshold.
	Dither bool
	// Threshold is the 8-bit luminance at or above which a texel is lit.
	// Zero means 128.
	Threshold uint8
	// AlphaCutoff is the alpha below which a texel is transparent. Zero means 128.
	AlphaCutoff uint8
}

// Indexed is an uncompressed index image, one byte per texel, bottom-up.
type Indexed struct {
	Pix    []byte
	Width  int
	Height int
}

// Painter copies the image into a buffer of the same size.
func (ix *Indexed) Painter() Painter {
	return func(buf []byte, width, height int) {
		for y := 0; y < height && y < ix.Height; y++ {
			n := min(width, ix.Width)
			copy(buf[y*width:y*width+n], ix.Pix[y*ix.Width:y*ix.Width+n])
		}
	}
}

var monochrome = color.Palette{color.Black, color.White}

// LoadIndexed reads a PNG, JPEG, GIF, BMP or TGA file and quantizes it.
func LoadIndexed(path string, opts LoadOptions) (*Indexed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	return Quantize(img, opts), nil
}

// Quantize reduces img to texel indices: bit 0x2 where alpha is under the
// cutoff, bit 0x1 where the pixel is light. Rows are flipped so the bottom
// image row becomes row 0.
func Quantize(img image.Image, opts LoadOptions) *Indexed {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = 128
	}
	cutoff := opts.AlphaCutoff
	if cutoff == 0 {
		cutoff = 128
	}

	src := toNRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var lit *image.Paletted
	if opts.Dither {
		lit = image.NewPaletted(b, monochrome)
		draw.FloydSteinberg.Draw(lit, b, src, b.Min)
	}

	ix := &Indexed{Pix: make([]byte, w*h), Width: w, Height: h}
	for y := 0; y < h; y++ {
		out := ix.Pix[(h-1-y)*w : (h-y)*w]
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			var v byte
			if src.Pix[i+3] < cutoff {
				v |= byte(TexelTransparent)
			}
			if lit != nil {
				if lit.ColorIndexAt(b.Min.X+x, b.Min.Y+y) == 1 {
					v |= byte(TexelColor)
				}
			} else if luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2]) >= threshold {
				v |= byte(TexelColor)
			}
			out[x] = v
		}
	}
	return ix
}

// luma is the Rec. 601 weighted brightness.
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
