package raster

import (
	"bytes"
	"image"
	"math"
	"testing"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/texture"
)

func newArenas(t *testing.T) (level, frame *arena.Arena) {
	t.Helper()
	level = arena.New("level")
	level.Adopt(make([]byte, 64<<10))
	frame = arena.New("frame")
	frame.Adopt(make([]byte, 64<<10))
	return level, frame
}

func buildAlpha(t *testing.T, w, h int, paint texture.Painter) *texture.Alpha {
	t.Helper()
	level, frame := newArenas(t)
	tex, err := texture.BuildAlpha(level, frame, w, h, texture.DefaultPitchAlign, paint)
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

func newDisplayContext(t *testing.T) *Context {
	t.Helper()
	return NewContext(mustFrameBuffer(t, DisplayWidth, DisplayHeight, DisplayStride), nil)
}

// asymmetric paints opaque texels: lit where x < y or on the border.
func asymmetric() texture.Painter {
	return texture.Triangle(1, 0)
}

func TestBlitIdentity(t *testing.T) {
	tex := buildAlpha(t, 100, 100, asymmetric())
	c := newDisplayContext(t)

	c.BlitTransformed(mathutil.V2(200, 120), mathutil.Uniform(1), 0, mathutil.R(0, 0, 100, 100), mathutil.V2(50, 50), tex)

	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			want := false
			if x >= 150 && x < 250 && y >= 70 && y < 170 {
				want = tex.Fetch(x-150, y-70).Lit()
			}
			if got := c.Frame.Pixel(x, y); got != want {
				t.Fatalf("Pixel(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if c.Stats.Pixels != 100*100 || c.Stats.Spans != 100 {
		t.Errorf("stats = %+v, want 100 spans of 100 pixels", c.Stats)
	}
	if c.Stats.DegenerateScanlines != 0 {
		t.Errorf("DegenerateScanlines = %d, want 0", c.Stats.DegenerateScanlines)
	}
}

func TestBlitCheckerboardMatchesReference(t *testing.T) {
	tex := buildAlpha(t, 100, 100, texture.Checkerboard(4, 3, 0))
	if tex.Pitch != 26 {
		t.Fatalf("Pitch = %d, want 26", tex.Pitch)
	}

	got := newDisplayContext(t)
	got.Frame.Fill(true)
	got.BlitTransformed(mathutil.V2(50, 50), mathutil.Uniform(1), 0, mathutil.R(0, 0, 100, 100), mathutil.V2(50, 50), tex)

	ref := mustFrameBuffer(t, DisplayWidth, DisplayHeight, DisplayStride)
	ref.Fill(true)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			ref.WritePixel(x, y, tex.Fetch(x, y))
		}
	}

	if !bytes.Equal(got.Frame.Pix, ref.Pix) {
		t.Fatal("rasterized checkerboard differs from the reference")
	}
	// The dark squares must actually have been drawn.
	if got.Frame.Pixel(4, 0) || !got.Frame.Pixel(0, 0) {
		t.Error("checkerboard squares not where expected")
	}
}

func TestBlitRotate90(t *testing.T) {
	src := mathutil.R(0, 0, 100, 100)
	center := mathutil.V2(50, 50)
	dst := mathutil.V2(200, 120)

	// Bounding box of a solid sprite.
	solid := buildAlpha(t, 100, 100, texture.Solid(1))
	c := newDisplayContext(t)
	c.BlitTransformed(dst, mathutil.Uniform(1), math.Pi/2, src, center, solid)

	minX, minY, maxX, maxY := math.MaxInt, math.MaxInt, -1, -1
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if c.Frame.Pixel(x, y) {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	if minX != 150 || maxX != 249 || minY != 70 || maxY != 169 {
		t.Fatalf("bounding box = [%d,%d]x[%d,%d], want [150,249]x[70,169]", minX, maxX, minY, maxY)
	}

	// Content: screen column c, row y shows texel (y, 99-c).
	tex := buildAlpha(t, 100, 100, asymmetric())
	c = newDisplayContext(t)
	c.BlitTransformed(dst, mathutil.Uniform(1), math.Pi/2, src, center, tex)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			want := tex.Fetch(y, 99-x).Lit()
			if got := c.Frame.Pixel(150+x, 70+y); got != want {
				t.Fatalf("rotated pixel (%d, %d) = %v, want texel (%d, %d) = %v", x, y, got, y, 99-x, want)
			}
		}
	}
}

func TestBlitClipping(t *testing.T) {
	tex := buildAlpha(t, 100, 100, texture.Checkerboard(4, 1, 0))

	tests := []struct {
		name  string
		dst   mathutil.Vec2
		angle float64
	}{
		{"below left", mathutil.V2(-200, -200), 0},
		{"right", mathutil.V2(600, 120), 0},
		{"above", mathutil.V2(200, 400), 0},
		{"rotated off the left", mathutil.V2(-80, 120), math.Pi / 4},
		{"rotated off the top", mathutil.V2(200, 320), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newDisplayContext(t)
			for i := range c.Frame.Pix {
				c.Frame.Pix[i] = byte(i * 7)
			}
			before := bytes.Clone(c.Frame.Pix)

			c.BlitTransformed(tt.dst, mathutil.Uniform(1), tt.angle, mathutil.R(0, 0, 100, 100), mathutil.V2(50, 50), tex)

			if !bytes.Equal(c.Frame.Pix, before) {
				t.Error("off-screen blit modified the framebuffer")
			}
			if c.Stats.Pixels != 0 {
				t.Errorf("Pixels = %d, want 0", c.Stats.Pixels)
			}
		})
	}
}

func TestBlitPartiallyVisible(t *testing.T) {
	tex := buildAlpha(t, 100, 100, asymmetric())

	viaRect := newDisplayContext(t)
	viaRect.DrawBitmap(tex, mathutil.R(0, 0, 100, 100), mathutil.V2(10, 10), 0, mathutil.Uniform(1), mathutil.V2(50, 50))

	viaQuad := newDisplayContext(t)
	viaQuad.BlitTransformed(mathutil.V2(10, 10), mathutil.Uniform(1), 0, mathutil.R(0, 0, 100, 100), mathutil.V2(50, 50), tex)

	if !bytes.Equal(viaRect.Frame.Pix, viaQuad.Frame.Pix) {
		t.Fatal("axis-aligned and transformed paths disagree")
	}
	if viaQuad.Stats.Pixels != 60*60 {
		t.Errorf("Pixels = %d, want %d", viaQuad.Stats.Pixels, 60*60)
	}
	if !viaQuad.Frame.Pixel(0, 59) || viaQuad.Frame.Pixel(1, 0) {
		t.Error("clipped content is misaligned")
	}
}

func TestBlitScaled(t *testing.T) {
	solid := buildAlpha(t, 10, 10, texture.Solid(1))

	tests := []struct {
		name       string
		scale      mathutil.Size
		x0, y0     int
		x1, y1     int
		wantPixels int
	}{
		{"double", mathutil.Uniform(2), 40, 40, 60, 60, 400},
		{"wide and flat", mathutil.Size{W: 2, H: 0.5}, 40, 48, 60, 53, 100},
		// Corners at 47.5 and 52.5 round away from zero: five rows and columns.
		{"half", mathutil.Uniform(0.5), 48, 48, 53, 53, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newDisplayContext(t)
			c.BlitTransformed(mathutil.V2(50, 50), tt.scale, 0, mathutil.R(0, 0, 10, 10), mathutil.V2(5, 5), solid)
			if c.Stats.Pixels != tt.wantPixels {
				t.Errorf("Pixels = %d, want %d", c.Stats.Pixels, tt.wantPixels)
			}
			for y := 30; y < 70; y++ {
				for x := 30; x < 70; x++ {
					want := x >= tt.x0 && x < tt.x1 && y >= tt.y0 && y < tt.y1
					if c.Frame.Pixel(x, y) != want {
						t.Fatalf("Pixel(%d, %d) = %v, want %v", x, y, !want, want)
					}
				}
			}
		})
	}
}

func TestBlitSubRectangle(t *testing.T) {
	// Left half lit, right half dark; draw only the right half.
	tex := buildAlpha(t, 8, 4, func(buf []byte, w, h int) {
		for y := 0; y < h; y++ {
			for x := 0; x < w/2; x++ {
				buf[y*w+x] = 1
			}
		}
	})
	c := newDisplayContext(t)
	c.Frame.Fill(true)
	c.BlitTransformed(mathutil.V2(100, 100), mathutil.Uniform(1), 0, mathutil.R(4, 0, 4, 4), mathutil.V2(2, 2), tex)
	for y := 98; y < 102; y++ {
		for x := 98; x < 102; x++ {
			if c.Frame.Pixel(x, y) {
				t.Fatalf("Pixel(%d, %d) lit, want the dark right half", x, y)
			}
		}
	}
	if !c.Frame.Pixel(97, 100) || !c.Frame.Pixel(102, 100) {
		t.Error("blit spilled outside its 4x4 destination")
	}
}

func TestBlitTransparency(t *testing.T) {
	transparent := buildAlpha(t, 10, 10, texture.Solid(byte(texture.TexelTransparent)))
	opaqueDark := buildAlpha(t, 10, 10, texture.Solid(0))

	c := newDisplayContext(t)
	c.Frame.Fill(true)
	c.BlitTransformed(mathutil.V2(20, 20), mathutil.Uniform(1), 0.3, mathutil.R(0, 0, 10, 10), mathutil.V2(5, 5), transparent)
	if c.Stats.Pixels == 0 {
		t.Fatal("transparent blit covered no pixels")
	}
	for _, b := range c.Frame.Pix {
		if b != 0xff {
			t.Fatal("transparent texels modified the frame")
		}
	}

	c.BlitTransformed(mathutil.V2(20, 20), mathutil.Uniform(1), 0, mathutil.R(0, 0, 10, 10), mathutil.V2(5, 5), opaqueDark)
	if c.Frame.Pixel(20, 20) {
		t.Error("opaque dark texel did not clear the pixel")
	}
}

func TestBlitMaskTexture(t *testing.T) {
	level, frame := newArenas(t)
	mask, err := texture.BuildMask(level, frame, 32, 32, texture.DefaultPitchAlign, texture.Checkerboard(4, 1, 0))
	if err != nil {
		t.Fatal(err)
	}

	c := newDisplayContext(t)
	c.Frame.Fill(true)
	c.BlitTransformed(mathutil.V2(16, 16), mathutil.Uniform(1), 0, mathutil.R(0, 0, 32, 32), mathutil.V2(16, 16), mask)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if want := mask.Fetch(x, y).Lit(); c.Frame.Pixel(x, y) != want {
				t.Fatalf("Pixel(%d, %d) = %v, want %v", x, y, !want, want)
			}
		}
	}
}

// stripes is a Source that is not one of the package's concrete textures.
type stripes struct{ w, h int }

func (s stripes) Size() (int, int)       { return s.w, s.h }
func (s stripes) Format() texture.Format { return texture.FormatAlpha }
func (s stripes) Fetch(x, _ int) texture.Texel {
	return texture.Texel(x & 1)
}

func TestBlitGenericSource(t *testing.T) {
	c := newDisplayContext(t)
	c.BlitTransformed(mathutil.V2(10, 10), mathutil.Uniform(1), 0, mathutil.R(0, 0, 8, 8), mathutil.V2(4, 4), stripes{8, 8})
	for x := 6; x < 14; x++ {
		if want := (x-6)&1 == 1; c.Frame.Pixel(x, 10) != want {
			t.Errorf("Pixel(%d, 10) = %v, want %v", x, !want, want)
		}
	}
}

func TestBlitEarlyOuts(t *testing.T) {
	tex := buildAlpha(t, 10, 10, texture.Solid(1))
	big := buildAlpha(t, 128, 2, texture.Solid(1))

	tests := []struct {
		name      string
		scale     mathutil.Size
		angle     float64
		src       mathutil.Rect
		tex       texture.Source
		wantBlits int
	}{
		{"empty rect", mathutil.Uniform(1), 0, mathutil.R(0, 0, 0, 10), tex, 0},
		{"zero scale", mathutil.Size{W: 0, H: 1}, 0, mathutil.R(0, 0, 10, 10), tex, 0},
		{"negative scale", mathutil.Uniform(-1), 0, mathutil.R(0, 0, 10, 10), tex, 0},
		{"NaN scale", mathutil.Uniform(math.NaN()), 0, mathutil.R(0, 0, 10, 10), tex, 0},
		{"NaN angle", mathutil.Uniform(1), math.NaN(), mathutil.R(0, 0, 10, 10), tex, 0},
		{"nil texture", mathutil.Uniform(1), 0, mathutil.R(0, 0, 10, 10), nil, 0},
		{"rect outside texture", mathutil.Uniform(1), 0, mathutil.R(5, 5, 10, 10), tex, 1},
		{"rect too wide for fixed point", mathutil.Uniform(1), 0, mathutil.R(0, 0, 128, 2), big, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newDisplayContext(t)
			c.BlitTransformed(mathutil.V2(100, 100), tt.scale, tt.angle, tt.src, mathutil.V2(0, 0), tt.tex)
			if c.Stats.Blits != tt.wantBlits || c.Stats.Pixels != 0 {
				t.Errorf("stats = %+v", c.Stats)
			}
			for _, b := range c.Frame.Pix {
				if b != 0 {
					t.Fatal("frame modified")
				}
			}
		})
	}
}

func TestScanlineSpan(t *testing.T) {
	square := [4]mathutil.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}
	diamond := [4]mathutil.Vec2{{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5}, {X: 5, Y: 10}}

	tests := []struct {
		name        string
		quad        *[4]mathutil.Vec2
		y           float64
		left, right float64
		ok          bool
	}{
		{"square middle", &square, 5.5, 0, 10, true},
		{"square above", &square, 10.5, 0, 0, false},
		{"diamond middle", &diamond, 5, 0, 10, true},
		{"diamond quarter", &diamond, 2.5, 2.5, 7.5, true},
		{"diamond tip", &diamond, 10, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right, ok := scanlineSpan(tt.quad, tt.y)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (left != tt.left || right != tt.right) {
				t.Errorf("span = [%v, %v], want [%v, %v]", left, right, tt.left, tt.right)
			}
		})
	}
}

type recordingDisplay struct {
	start, end int
	lit        bool
}

func (d *recordingDisplay) MarkUpdatedRows(fb *FrameBuffer, start, end int) error {
	d.start, d.end = start, end
	d.lit = fb.Pixel(150, 70)
	return nil
}

func TestDebugOverlayAndPresent(t *testing.T) {
	tex := buildAlpha(t, 100, 100, texture.Solid(byte(texture.TexelTransparent)))
	c := newDisplayContext(t)
	c.Debug = NewOverlay(c.Frame)

	c.BlitRectangle(image.Pt(200, 120), mathutil.R(0, 0, 100, 100), image.Pt(50, 50), tex)
	if c.Frame.Pixel(150, 70) {
		t.Fatal("overlay drew into the frame before Present")
	}
	if !c.Debug.Buffer().Pixel(150, 70) || !c.Debug.Buffer().Pixel(249, 169) {
		t.Fatal("outline missing from the overlay")
	}

	d := &recordingDisplay{}
	if err := c.Present(d); err != nil {
		t.Fatal(err)
	}
	if d.start != 0 || d.end != DisplayHeight || !d.lit {
		t.Errorf("display got rows [%d, %d) lit=%v", d.start, d.end, d.lit)
	}
}
