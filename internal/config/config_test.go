package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pd-sprite-renderer/internal/mathutil"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.json")
	data := `{"base_dir": "` + filepath.ToSlash(dir) + `", "scene_dir": "levels", "output_dir": "/tmp/out",
		"level_arena_bytes": 4096, "format": "PNG", "trig_mode": "exact"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Resolve(Flags{Upscale: 3})

	if cfg.SceneDir != filepath.Join(dir, "levels") {
		t.Errorf("SceneDir = %q", cfg.SceneDir)
	}
	if cfg.AssetDir != filepath.Join(dir, "assets") {
		t.Errorf("AssetDir = %q", cfg.AssetDir)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.LevelArenaBytes != 4096 || cfg.FrameArenaBytes != 64<<10 {
		t.Errorf("arenas = %d/%d", cfg.LevelArenaBytes, cfg.FrameArenaBytes)
	}
	if cfg.Format != FormatPNG || cfg.Upscale != 3 {
		t.Errorf("format %q upscale %d", cfg.Format, cfg.Upscale)
	}
	if _, ok := cfg.Trig().(mathutil.Exact); !ok {
		t.Errorf("Trig() = %T, want Exact", cfg.Trig())
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{BaseDir: "/data"})

	want := Config{
		BaseDir:         "/data",
		AssetDir:        filepath.Join("/data", "assets"),
		SceneDir:        filepath.Join("/data", "scenes"),
		OutputDir:       filepath.Join("/data", "renders"),
		DisplayWidth:    400,
		DisplayHeight:   240,
		DisplayStride:   52,
		LevelArenaBytes: 256 << 10,
		FrameArenaBytes: 64 << 10,
		PitchAlign:      2,
		TrigMode:        TrigTable,
		TableSamples:    400,
		Upscale:         1,
		Format:          FormatWebP,
		Workers:         cfg.Workers,
	}
	if cfg != want {
		t.Errorf("Resolve() =\n%+v\nwant\n%+v", cfg, want)
	}
	if cfg.Workers <= 0 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.Trig() != mathutil.DefaultTable {
		t.Error("default trig should be the shared 400-sample table")
	}
}

func TestResolveNarrowDisplayStride(t *testing.T) {
	cfg := Config{DisplayWidth: 100}
	cfg.Resolve(Flags{BaseDir: "/data"})
	if cfg.DisplayStride != 13 {
		t.Errorf("DisplayStride = %d, want 13", cfg.DisplayStride)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"format", func(c *Config) { c.Format = "gif" }, "format"},
		{"trig", func(c *Config) { c.TrigMode = "cordic" }, "trig mode"},
		{"stride", func(c *Config) { c.DisplayStride = 10 }, "stride"},
		{"pitch", func(c *Config) { c.PitchAlign = 3 }, "power of two"},
		{"heap", func(c *Config) { c.HeapLimit = 1000 }, "heap limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.Resolve(Flags{BaseDir: "/data"})
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for a missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0o644)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("err = %v, want parse error", err)
	}
}
