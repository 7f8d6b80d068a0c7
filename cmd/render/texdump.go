package main

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/batch"
	"pd-sprite-renderer/internal/config"
	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/postprocess"
	"pd-sprite-renderer/internal/raster"
	"pd-sprite-renderer/internal/texture"
)

type TexdumpCmd struct {
	Pattern string  `help:"Procedural pattern (checkerboard, hollow, triangle, solid)" xor:"source"`
	File    string  `help:"Image file, or a name looked up in the asset dir" xor:"source"`
	Format  string  `help:"Texture format" enum:"alpha,mask" default:"alpha"`
	Width   int     `help:"Pattern width" default:"100"`
	Height  int     `help:"Pattern height" default:"100"`
	RunLen  int     `name:"run" help:"Checkerboard run length" default:"4"`
	On      uint8   `help:"Texel value for lit pattern cells" default:"3"`
	Off     uint8   `help:"Texel value for the other cells" default:"0"`
	Dither  bool    `help:"Dither image files instead of thresholding"`
	Angle   float64 `help:"Rotation of the preview, in degrees"`
	Scale   float64 `help:"Scale of the preview" default:"1"`
	Upscale int     `help:"Integer upscale factor of the written image" default:"2"`
	Out     string  `arg:"" help:"Output image (.webp, .bmp or .png)" type:"path"`
}

func (c *TexdumpCmd) Validate() error {
	if c.Pattern == "" && c.File == "" {
		c.Pattern = "checkerboard"
	}
	if c.Pattern != "" {
		if _, ok := texture.Pattern(c.Pattern, c.RunLen, c.On, c.Off); !ok {
			return fmt.Errorf("unknown pattern %q", c.Pattern)
		}
	}
	if c.Scale <= 0 {
		return fmt.Errorf("invalid scale: %v", c.Scale)
	}
	if outputFormat(c.Out) == "" {
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(c.Out))
	}
	return nil
}

func outputFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return config.FormatWebP
	case ".bmp":
		return config.FormatBMP
	case ".png":
		return config.FormatPNG
	}
	return ""
}

func (c *TexdumpCmd) Run(g *Globals) error {
	cfg, err := g.Load(config.Flags{})
	if err != nil {
		return err
	}

	heap := &arena.HeapAllocator{Limit: cfg.HeapLimit}
	level := arena.New("level")
	frame := arena.New("frame")
	defer level.Release()
	defer frame.Release()
	level.Initialize(heap, cfg.LevelArenaBytes)
	frame.Initialize(heap, cfg.FrameArenaBytes)

	format, err := texture.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	cache := texture.NewCache(texture.BuildIndex(cfg.AssetDir), level, frame, cfg.PitchAlign)
	tex, err := cache.Resolve(texture.Spec{
		Name:    "texdump",
		Pattern: c.Pattern,
		File:    c.File,
		Format:  format,
		Width:   c.Width,
		Height:  c.Height,
		Run:     c.RunLen,
		On:      c.On,
		Off:     c.Off,
		Load:    texture.LoadOptions{Dither: c.Dither},
	})
	if err != nil {
		return err
	}
	w, h := tex.Size()
	slog.Info("texture compressed", "format", tex.Format(), "width", w, "height", h,
		"level_used", level.Used(), "level_free", level.Free())

	preview, err := c.preview(cfg, tex)
	if err != nil {
		return err
	}

	grey := color.NRGBA{0x80, 0x80, 0x80, 0xff}
	sheet := postprocess.Upscale(postprocess.Sheet(grey, 4, texture.ToImage(tex), preview), c.Upscale)

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", c.Out, err)
	}
	if err := batch.Encode(f, sheet, outputFormat(c.Out)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("texture written", "path", c.Out)
	return nil
}

// preview draws tex once through the rasterizer, centred on a dark frame
// just big enough for any rotation of it.
func (c *TexdumpCmd) preview(cfg config.Config, tex texture.Source) (image.Image, error) {
	w, h := tex.Size()
	side := int(float64(max(w, h))*c.Scale*1.5) + 2
	fb, err := raster.NewFrameBuffer(side, side, 0)
	if err != nil {
		return nil, err
	}
	ctx := raster.NewContext(fb, cfg.Trig())
	src := mathutil.R(0, 0, w, h)
	ctx.DrawBitmap(tex, src, mathutil.V2(float64(side)/2, float64(side)/2),
		mathutil.ClampRadians(mathutil.Deg2Rad(c.Angle)), mathutil.Uniform(c.Scale), src.Center())
	if ctx.Stats.Rejected > 0 {
		slog.Warn("texture too large for the rasterizer, preview left empty", "width", w, "height", h)
	}
	return fb.ToImage(), nil
}
