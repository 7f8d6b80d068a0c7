// Package scene describes sprite scenes in JSON and plays them back frame by
// frame through the rasterizer.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/texture"
)

// Scene is a complete scripted run.
type Scene struct {
	Name       string        `json:"name"`
	Frames     int           `json:"frames"`     // frames to run, default 1
	FrameTime  float64       `json:"frame_time"` // seconds per frame, default loop.FixedStep
	Debug      bool          `json:"debug"`      // draw blit outlines
	Background string        `json:"background"` // "dark" (default) or "light"
	Textures   []TextureSpec `json:"textures"`
	Sprites    []Sprite      `json:"sprites"`
	Input      []InputEvent  `json:"input"`
	Snapshots  []int         `json:"snapshots"` // frames to capture, default the last
}

// Frame backgrounds.
const (
	BackgroundDark  = "dark"
	BackgroundLight = "light"
)

// TextureSpec names a texture and says how to produce it.
type TextureSpec struct {
	Name      string `json:"name"`
	Pattern   string `json:"pattern,omitempty"`
	File      string `json:"file,omitempty"`
	Format    string `json:"format,omitempty"` // "alpha" (default) or "mask"
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Run       int    `json:"run,omitempty"`
	On        byte   `json:"on,omitempty"`
	Off       byte   `json:"off,omitempty"`
	Dither    bool   `json:"dither,omitempty"`
	Threshold uint8  `json:"threshold,omitempty"`
}

// Spec converts to the texture cache's description.
func (ts TextureSpec) Spec() (texture.Spec, error) {
	f, err := texture.ParseFormat(ts.Format)
	if err != nil {
		return texture.Spec{}, err
	}
	return texture.Spec{
		Name:    ts.Name,
		Pattern: ts.Pattern,
		File:    ts.File,
		Format:  f,
		Width:   ts.Width,
		Height:  ts.Height,
		Run:     ts.Run,
		On:      ts.On,
		Off:     ts.Off,
		Load:    texture.LoadOptions{Dither: ts.Dither, Threshold: ts.Threshold},
	}, nil
}

// Sprite places part of a texture on screen.
type Sprite struct {
	Texture  string      `json:"texture"`
	Dst      [2]float64  `json:"dst"`
	Scale    [2]float64  `json:"scale,omitempty"` // zero means 1
	AngleDeg float64     `json:"angle_deg,omitempty"`
	Src      *[4]int     `json:"src,omitempty"`    // x, y, w, h; nil means the whole texture
	Center   *[2]float64 `json:"center,omitempty"` // nil means the middle of Src
	Spin     float64     `json:"spin_deg_per_sec,omitempty"`

	// Controlled sprites follow the buttons and crank.
	Controlled bool `json:"controlled,omitempty"`
}

// Load reads a scene file. An unnamed scene takes the file's base name.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes and validates a scene.
func Parse(data []byte) (*Scene, error) {
	var sc Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks references and applies defaults.
func (sc *Scene) Validate() error {
	if sc.Frames <= 0 {
		sc.Frames = 1
	}

	var errs []error
	switch sc.Background {
	case "":
		sc.Background = BackgroundDark
	case BackgroundDark, BackgroundLight:
	default:
		errs = append(errs, fmt.Errorf("unknown background %q", sc.Background))
	}
	names := make(map[string]bool, len(sc.Textures))
	for i, ts := range sc.Textures {
		switch {
		case ts.Name == "":
			errs = append(errs, fmt.Errorf("texture %d: missing name", i))
		case names[ts.Name]:
			errs = append(errs, fmt.Errorf("texture %q: duplicate name", ts.Name))
		}
		names[ts.Name] = true
		if ts.File == "" && (ts.Width <= 0 || ts.Height <= 0) {
			errs = append(errs, fmt.Errorf("texture %q: pattern textures need a width and height", ts.Name))
		}
		if _, err := texture.ParseFormat(ts.Format); err != nil {
			errs = append(errs, fmt.Errorf("texture %q: %w", ts.Name, err))
		}
	}
	for i, sp := range sc.Sprites {
		if !names[sp.Texture] {
			errs = append(errs, fmt.Errorf("sprite %d: unknown texture %q", i, sp.Texture))
		}
	}
	for _, f := range sc.Snapshots {
		if f < 0 || f >= sc.Frames {
			errs = append(errs, fmt.Errorf("snapshot frame %d outside [0, %d)", f, sc.Frames))
		}
	}
	return errors.Join(errs...)
}

// SnapshotFrames returns the frames to capture.
func (sc *Scene) SnapshotFrames() []int {
	if len(sc.Snapshots) == 0 {
		return []int{sc.Frames - 1}
	}
	return sc.Snapshots
}

// Default is the start-up scene of the handheld demo: a checkerboard at
// double scale in the middle of the screen, steered by the buttons and
// crank. The hollow rectangle and triangle textures are built but not drawn.
func Default() *Scene {
	full := [4]int{0, 0, 100, 100}
	return &Scene{
		Name:       "default",
		Frames:     1,
		Background: BackgroundLight,
		Textures: []TextureSpec{
			{Name: "checkerboard", Pattern: "checkerboard", Width: 100, Height: 100, Run: 4, On: 3, Off: 0},
			{Name: "hollow", Pattern: "hollow", Width: 100, Height: 100, On: 3, Off: 0},
			{Name: "triangle", Pattern: "triangle", Width: 100, Height: 100, On: 3, Off: 0},
		},
		Sprites: []Sprite{
			{Texture: "checkerboard", Dst: [2]float64{200, 120}, Scale: [2]float64{2, 2}, Src: &full, Controlled: true},
		},
	}
}

// transform is a sprite's mutable placement during playback.
type transform struct {
	dst    mathutil.Vec2
	scale  mathutil.Size
	angle  float64
	src    mathutil.Rect
	center mathutil.Vec2
}

func (sp Sprite) initial(tex texture.Source) transform {
	w, h := tex.Size()
	src := mathutil.R(0, 0, w, h)
	if sp.Src != nil {
		src = mathutil.R(sp.Src[0], sp.Src[1], sp.Src[2], sp.Src[3])
	}
	center := src.Center()
	if sp.Center != nil {
		center = mathutil.V2(sp.Center[0], sp.Center[1])
	}
	scale := mathutil.Size{W: sp.Scale[0], H: sp.Scale[1]}
	if scale.W == 0 {
		scale.W = 1
	}
	if scale.H == 0 {
		scale.H = 1
	}
	return transform{
		dst:    mathutil.V2(sp.Dst[0], sp.Dst[1]),
		scale:  scale,
		angle:  mathutil.ClampRadians(mathutil.Deg2Rad(sp.AngleDeg)),
		src:    src,
		center: center,
	}
}
