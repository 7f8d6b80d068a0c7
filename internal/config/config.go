package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/raster"
	"pd-sprite-renderer/internal/texture"
)

// Output formats for snapshots.
const (
	FormatWebP = "webp"
	FormatBMP  = "bmp"
	FormatPNG  = "png"
)

// Trig modes.
const (
	TrigTable = "table"
	TrigExact = "exact"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir"`
	AssetDir  string `json:"asset_dir"`
	SceneDir  string `json:"scene_dir"`
	OutputDir string `json:"output_dir"`

	// Display
	DisplayWidth  int `json:"display_width"`
	DisplayHeight int `json:"display_height"`
	DisplayStride int `json:"display_stride"`

	// Memory
	LevelArenaBytes int `json:"level_arena_bytes"`
	FrameArenaBytes int `json:"frame_arena_bytes"`
	HeapLimit       int `json:"heap_limit"` // 0 means unlimited
	PitchAlign      int `json:"pitch_align"`

	// Render settings
	TrigMode     string `json:"trig_mode"`
	TableSamples int    `json:"table_samples"`
	Upscale      int    `json:"upscale"`
	Format       string `json:"format"`
	Workers      int    `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Upscale > 0 {
		c.Upscale = flags.Upscale
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.TrigMode != "" {
		c.TrigMode = flags.TrigMode
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	c.AssetDir = resolveDir(c.BaseDir, c.AssetDir, "assets")
	c.SceneDir = resolveDir(c.BaseDir, c.SceneDir, "scenes")
	c.OutputDir = resolveDir(c.BaseDir, c.OutputDir, "renders")

	// Defaults for the handheld display
	if c.DisplayWidth <= 0 {
		c.DisplayWidth = raster.DisplayWidth
	}
	if c.DisplayHeight <= 0 {
		c.DisplayHeight = raster.DisplayHeight
	}
	if c.DisplayStride <= 0 {
		if c.DisplayWidth == raster.DisplayWidth {
			c.DisplayStride = raster.DisplayStride
		} else {
			c.DisplayStride = (c.DisplayWidth + 7) / 8
		}
	}

	if c.LevelArenaBytes <= 0 {
		c.LevelArenaBytes = 256 << 10
	}
	if c.FrameArenaBytes <= 0 {
		c.FrameArenaBytes = 64 << 10
	}
	if c.PitchAlign <= 0 {
		c.PitchAlign = texture.DefaultPitchAlign
	}

	c.TrigMode = strings.ToLower(c.TrigMode)
	if c.TrigMode == "" {
		c.TrigMode = TrigTable
	}
	if c.TableSamples <= 0 {
		c.TableSamples = mathutil.SinePer90Deg
	}
	if c.Upscale <= 0 {
		c.Upscale = 1
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = FormatWebP
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatWebP, FormatBMP, FormatPNG:
	default:
		return fmt.Errorf("config: unknown format %q (want webp, bmp or png)", c.Format)
	}
	switch c.TrigMode {
	case TrigTable, TrigExact:
	default:
		return fmt.Errorf("config: unknown trig mode %q (want table or exact)", c.TrigMode)
	}
	if c.DisplayStride*8 < c.DisplayWidth {
		return fmt.Errorf("config: stride %d too small for width %d", c.DisplayStride, c.DisplayWidth)
	}
	if c.PitchAlign&(c.PitchAlign-1) != 0 {
		return fmt.Errorf("config: pitch alignment %d is not a power of two", c.PitchAlign)
	}
	if c.HeapLimit > 0 && c.HeapLimit < c.LevelArenaBytes+c.FrameArenaBytes {
		return fmt.Errorf("config: heap limit %d below arena sizes %d+%d",
			c.HeapLimit, c.LevelArenaBytes, c.FrameArenaBytes)
	}
	return nil
}

// Trig returns the sine/cosine source selected by TrigMode.
func (c *Config) Trig() mathutil.Sincos {
	if c.TrigMode == TrigExact {
		return mathutil.Exact{}
	}
	if c.TableSamples == mathutil.SinePer90Deg {
		return mathutil.DefaultTable
	}
	return mathutil.NewTable(c.TableSamples)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir   string
	OutputDir string
	Format    string
	TrigMode  string
	Upscale   int
	Workers   int
}

func resolveDir(base, dir, def string) string {
	if dir == "" {
		return filepath.Join(base, def)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
