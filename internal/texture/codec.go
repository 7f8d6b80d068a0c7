package texture

import (
	"errors"
	"fmt"

	"pd-sprite-renderer/internal/mathutil"
)

// Format selects the compressed bit layout.
type Format uint8

const (
	// FormatMask packs 8 texels per byte, 1 bit each: color only.
	FormatMask Format = iota + 1
	// FormatAlpha packs 4 texels per byte, 2 bits each: transparency then color.
	FormatAlpha
)

// DefaultPitchAlign is the row alignment used on device (one 16-bit word).
const DefaultPitchAlign = 2

func (f Format) String() string {
	switch f {
	case FormatMask:
		return "mask"
	case FormatAlpha:
		return "alpha"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat maps "mask"/"1bpp" and "alpha"/"2bpp" to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "mask", "1bpp":
		return FormatMask, nil
	case "alpha", "2bpp", "":
		return FormatAlpha, nil
	}
	return 0, fmt.Errorf("texture: unknown format %q", s)
}

// texelsPerByte returns 8 or 4; 0 for unknown formats.
func (f Format) texelsPerByte() int {
	switch f {
	case FormatMask:
		return 8
	case FormatAlpha:
		return 4
	}
	return 0
}

// Texel is one decoded texture value.
type Texel uint8

const (
	TexelColor       Texel = 0x1
	TexelTransparent Texel = 0x2
)

// Transparent reports whether the writer should skip this texel.
func (t Texel) Transparent() bool { return t&TexelTransparent != 0 }

// Lit reports whether the color bit is set.
func (t Texel) Lit() bool { return t&TexelColor != 0 }

var errDims = errors.New("texture: bad dimensions")

// LinePitch returns the bytes per compressed row: the packed width rounded up
// to a multiple of align.
func LinePitch(width int, f Format, align int) int {
	per := f.texelsPerByte()
	if per == 0 || width <= 0 {
		return 0
	}
	return mathutil.RoundUp((width+per-1)/per, align)
}

// Compress packs a 1-byte-per-texel index image into dst, MSB first. Values
// are masked to the format's width; unused low bits of a row's last byte and
// any pitch padding are zeroed.
func Compress(f Format, width, height int, src []byte, srcPitch int, dst []byte, dstPitch int) error {
	per := f.texelsPerByte()
	if per == 0 {
		return fmt.Errorf("texture: compress: unknown format %v", f)
	}
	if width <= 0 || height <= 0 || srcPitch < width || dstPitch < (width+per-1)/per {
		return fmt.Errorf("texture: compress %dx%d src pitch %d dst pitch %d: %w", width, height, srcPitch, dstPitch, errDims)
	}
	if len(src) < srcPitch*(height-1)+width || len(dst) < dstPitch*height {
		return fmt.Errorf("texture: compress %dx%d: buffers too short (src %d, dst %d): %w", width, height, len(src), len(dst), errDims)
	}

	bits := 8 / per
	mask := byte(1<<bits - 1)
	top := 8 - bits
	for y := 0; y < height; y++ {
		in := src[y*srcPitch : y*srcPitch+width]
		out := dst[y*dstPitch : (y+1)*dstPitch]
		clear(out)
		for x, v := range in {
			out[x/per] |= (v & mask) << (top - (x%per)*bits)
		}
	}
	return nil
}

// FetchIndex decodes one 2-bit texel.
func FetchIndex(buf []byte, pitch, x, y int) uint8 {
	b := buf[y*pitch+x>>2]
	b >>= 6 - (x&3)<<1
	return b & 3
}

// FetchMaskIndex decodes one 1-bit texel.
func FetchMaskIndex(buf []byte, pitch, x, y int) uint8 {
	b := buf[y*pitch+x>>3]
	b >>= 7 - x&7
	return b & 1
}

// Expand decodes every texel of src into dst, one byte per texel with a
// pitch equal to the width. It is the inverse of Compress.
func Expand(src Source, dst []byte) error {
	w, h := src.Size()
	if len(dst) < w*h {
		return fmt.Errorf("texture: expand %dx%d into %d bytes: %w", w, h, len(dst), errDims)
	}
	for y := 0; y < h; y++ {
		row := dst[y*w : (y+1)*w]
		for x := range row {
			row[x] = uint8(src.Fetch(x, y))
		}
	}
	return nil
}
