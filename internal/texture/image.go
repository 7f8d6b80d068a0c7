package texture

import (
	"image"
	"image/color"
)

// ToImage decodes src into an image, top row first. Lit texels are white,
// unlit ones black and transparent ones fully transparent.
func ToImage(src Source) *image.NRGBA {
	w, h := src.Size()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := src.Fetch(x, h-1-y)
			switch {
			case t.Transparent():
			case t.Lit():
				img.SetNRGBA(x, y, color.NRGBA{0xff, 0xff, 0xff, 0xff})
			default:
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 0xff})
			}
		}
	}
	return img
}
