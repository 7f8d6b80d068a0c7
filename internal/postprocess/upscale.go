// Package postprocess prepares rendered frames for viewing on a desktop.
package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Upscale enlarges img by an integer factor with nearest-neighbour sampling,
// so 1-bit pixels stay hard-edged squares.
func Upscale(img image.Image, factor int) *image.NRGBA {
	b := img.Bounds()
	if factor <= 1 {
		out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Copy(out, image.Point{}, img, b, draw.Src, nil)
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// Sheet places images left to right, top aligned, separated by gap pixels of
// bg. A nil image is skipped.
func Sheet(bg color.Color, gap int, imgs ...image.Image) *image.NRGBA {
	w, h := 0, 0
	n := 0
	for _, img := range imgs {
		if img == nil {
			continue
		}
		b := img.Bounds()
		w += b.Dx()
		h = max(h, b.Dy())
		n++
	}
	if n > 1 {
		w += gap * (n - 1)
	}

	sheet := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	x := 0
	for _, img := range imgs {
		if img == nil {
			continue
		}
		b := img.Bounds()
		draw.Copy(sheet, image.Pt(x, 0), img, b, draw.Src, nil)
		x += b.Dx() + gap
	}
	return sheet
}
