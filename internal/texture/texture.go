// Package texture compresses indexed sprite images into 1- or 2-bit-per-texel
// rows and decodes single texels back out for the rasterizer.
//
// Textures are stored bottom-up: row 0 is the bottom image row.
package texture

import (
	"fmt"

	"pd-sprite-renderer/internal/arena"
)

// PixelAlign is the address alignment of compressed pixel data, 16 memory words.
const PixelAlign = 32

// Source is a decodable texture.
type Source interface {
	Size() (width, height int)
	Format() Format
	Fetch(x, y int) Texel
}

// Painter fills an uncompressed index image, one byte per texel with a pitch
// equal to width and row 0 at the bottom. Values are 0-3; bit 0x2 marks
// transparency and bit 0x1 the color.
type Painter func(buf []byte, width, height int)

// Alpha is an immutable 2-bit-per-texel texture with transparency.
type Alpha struct {
	Pix    []byte
	Pitch  int
	Width  int
	Height int
}

// Mask is an immutable 1-bit-per-texel opaque texture.
type Mask struct {
	Pix    []byte
	Pitch  int
	Width  int
	Height int
}

var (
	_ Source = (*Alpha)(nil)
	_ Source = (*Mask)(nil)
)

// NewAlpha wraps already compressed 2bpp rows.
func NewAlpha(pix []byte, pitch, width, height int) (*Alpha, error) {
	if err := checkBuffer(pix, pitch, width, height, FormatAlpha); err != nil {
		return nil, err
	}
	return &Alpha{Pix: pix, Pitch: pitch, Width: width, Height: height}, nil
}

// NewMask wraps already compressed 1bpp rows.
func NewMask(pix []byte, pitch, width, height int) (*Mask, error) {
	if err := checkBuffer(pix, pitch, width, height, FormatMask); err != nil {
		return nil, err
	}
	return &Mask{Pix: pix, Pitch: pitch, Width: width, Height: height}, nil
}

func checkBuffer(pix []byte, pitch, width, height int, f Format) error {
	if width <= 0 || height <= 0 || pitch < LinePitch(width, f, 1) || len(pix) < pitch*height {
		return fmt.Errorf("texture: %v %dx%d pitch %d over %d bytes: %w", f, width, height, pitch, len(pix), errDims)
	}
	return nil
}

func (t *Alpha) Size() (int, int) { return t.Width, t.Height }
func (t *Alpha) Format() Format   { return FormatAlpha }

// Fetch decodes the texel at (x, y). Coordinates must be in range.
func (t *Alpha) Fetch(x, y int) Texel {
	return Texel(FetchIndex(t.Pix, t.Pitch, x, y))
}

func (t *Mask) Size() (int, int) { return t.Width, t.Height }
func (t *Mask) Format() Format   { return FormatMask }

// Fetch decodes the texel at (x, y). A mask texel is never transparent.
func (t *Mask) Fetch(x, y int) Texel {
	return Texel(FetchMaskIndex(t.Pix, t.Pitch, x, y))
}

// Build paints and compresses a texture. The uncompressed image is taken
// from scratch (typically the per-frame arena) and the compressed rows from
// level. Allocation failures are returned wrapping arena.ErrExhausted.
func Build(level, scratch *arena.Arena, f Format, width, height, align int, paint Painter) (Source, error) {
	pitch := LinePitch(width, f, align)
	if pitch == 0 || height <= 0 {
		return nil, fmt.Errorf("texture: build %v %dx%d: %w", f, width, height, errDims)
	}

	raw, err := scratch.Alloc(width * height)
	if err != nil {
		return nil, fmt.Errorf("texture: index image: %w", err)
	}
	clear(raw)
	paint(raw, width, height)

	pix, err := level.AlignedAlloc(pitch*height, PixelAlign)
	if err != nil {
		return nil, fmt.Errorf("texture: compressed rows: %w", err)
	}
	if err := Compress(f, width, height, raw, width, pix, pitch); err != nil {
		return nil, err
	}

	if f == FormatMask {
		return &Mask{Pix: pix, Pitch: pitch, Width: width, Height: height}, nil
	}
	return &Alpha{Pix: pix, Pitch: pitch, Width: width, Height: height}, nil
}

// BuildAlpha is Build for the 2bpp format.
func BuildAlpha(level, scratch *arena.Arena, width, height, align int, paint Painter) (*Alpha, error) {
	src, err := Build(level, scratch, FormatAlpha, width, height, align, paint)
	if err != nil {
		return nil, err
	}
	return src.(*Alpha), nil
}

// BuildMask is Build for the 1bpp format.
func BuildMask(level, scratch *arena.Arena, width, height, align int, paint Painter) (*Mask, error) {
	src, err := Build(level, scratch, FormatMask, width, height, align, paint)
	if err != nil {
		return nil, err
	}
	return src.(*Mask), nil
}
