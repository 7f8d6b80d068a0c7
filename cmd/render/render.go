package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/batch"
	"pd-sprite-renderer/internal/config"
	"pd-sprite-renderer/internal/scene"
	"pd-sprite-renderer/internal/texture"

	"github.com/alecthomas/kong"
)

type RenderCmd struct {
	Scenes  []string `arg:"" optional:"" type:"existingfile" help:"Scene files. Default: every *.json in the scene dir, or the built-in demo scene"`
	Base    string   `help:"Base directory for assets, scenes and renders" type:"path"`
	Output  string   `help:"Output directory. Relative to the base dir if not absolute"`
	Format  string   `help:"Snapshot format (webp, bmp, png)"`
	Trig    string   `help:"Sine/cosine source (table, exact)"`
	Upscale int      `help:"Integer upscale factor for snapshots"`
	Workers int      `help:"Number of worker goroutines (default: NumCPU)"`
	Test    int      `help:"Render only the first N scenes"`
}

func (c *RenderCmd) Validate(kctx *kong.Context) error {
	if c.Upscale < 0 {
		return fmt.Errorf("invalid upscale factor: %d", c.Upscale)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	return nil
}

func (c *RenderCmd) Run(g *Globals, ctx context.Context) error {
	cfg, err := g.Load(config.Flags{
		BaseDir:   c.Base,
		OutputDir: c.Output,
		Format:    c.Format,
		TrigMode:  c.Trig,
		Upscale:   c.Upscale,
		Workers:   c.Workers,
	})
	if err != nil {
		return err
	}

	scenes, err := c.loadScenes(cfg.SceneDir)
	if err != nil {
		return err
	}
	if c.Test > 0 && c.Test < len(scenes) {
		scenes = scenes[:c.Test]
	}

	index := texture.BuildIndex(cfg.AssetDir)
	slog.Info("render", "scenes", len(scenes), "textures_indexed", index.Len(), "workers", cfg.Workers,
		"format", cfg.Format, "output", cfg.OutputDir)

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		OutputDir:       cfg.OutputDir,
		Index:           index,
		Backing:         &arena.HeapAllocator{Limit: cfg.HeapLimit},
		Trig:            cfg.Trig(),
		DisplayWidth:    cfg.DisplayWidth,
		DisplayHeight:   cfg.DisplayHeight,
		DisplayStride:   cfg.DisplayStride,
		LevelArenaBytes: cfg.LevelArenaBytes,
		FrameArenaBytes: cfg.FrameArenaBytes,
		PitchAlign:      cfg.PitchAlign,
		Upscale:         cfg.Upscale,
		Format:          cfg.Format,
		Workers:         cfg.Workers,
	}, scenes)

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			if len(r.Failures) > 0 {
				slog.Warn("textures did not fit", "scene", r.Scene, "textures", r.Failures)
			}
			continue
		}
		failed++
		slog.Error("scene failed", "scene", r.Scene, "error", r.Error)
	}
	slog.Info("done", "rendered", success, "failed", failed, "elapsed", time.Since(start).Round(time.Millisecond))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		slog.Warn("manifest write failed", "path", manifestPath, "error", err)
	} else {
		slog.Info("manifest written", "path", manifestPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenes failed", failed, len(results))
	}
	return nil
}

func (c *RenderCmd) loadScenes(dir string) ([]*scene.Scene, error) {
	paths := c.Scenes
	if len(paths) == 0 {
		found, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		paths = found
	}
	if len(paths) == 0 {
		slog.Info("no scene files, rendering the demo scene", "dir", dir)
		return []*scene.Scene{scene.Default()}, nil
	}

	scenes := make([]*scene.Scene, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		sc, err := scene.Load(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("scenes %s and %s are both named %q", prev, p, sc.Name)
		}
		seen[sc.Name] = p
		scenes = append(scenes, sc)
	}
	return scenes, nil
}
