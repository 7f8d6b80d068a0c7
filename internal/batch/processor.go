package batch

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/logging"
	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/postprocess"
	"pd-sprite-renderer/internal/raster"
	"pd-sprite-renderer/internal/scene"
	"pd-sprite-renderer/internal/texture"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Index     *texture.Index  // read-only, shared by all workers
	Backing   arena.Allocator // must be safe for concurrent use
	Trig      mathutil.Sincos // read-only, shared by all workers

	DisplayWidth    int
	DisplayHeight   int
	DisplayStride   int
	LevelArenaBytes int
	FrameArenaBytes int
	PitchAlign      int

	Upscale int
	Format  string // "webp", "bmp" or "png"
	Workers int
}

// Result holds the outcome of rendering one scene.
type Result struct {
	Scene    string
	Images   []string // relative to OutputDir
	Failures []string // textures that did not fit the level arena
	Stats    raster.Stats
	Success  bool
	Error    string
}

// Run renders every scene using a worker pool. Each worker owns a private
// set of arenas, framebuffer and texture cache.
func Run(ctx context.Context, cfg Config, scenes []*scene.Scene) []Result {
	total := len(scenes)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()
	log := logging.Logger()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("progress", "done", p, "total", total, "scenes_per_sec", float64(p)/elapsed)
				}
			}
		}
	}()

	workers := max(cfg.Workers, 1)
	sceneChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wk, err := newWorker(cfg, id)
			if err != nil {
				log.Error("worker setup failed", "worker", id, "error", err)
			} else {
				defer wk.release()
			}
			for idx := range sceneChan {
				if err != nil {
					results[idx] = Result{Scene: scenes[idx].Name, Error: err.Error()}
				} else {
					results[idx] = wk.process(ctx, scenes[idx])
				}
				processed.Add(1)
			}
		}(w)
	}

	// Send work
send:
	for i := range scenes {
		select {
		case sceneChan <- i:
		case <-ctx.Done():
			for j := i; j < total; j++ {
				results[j] = Result{Scene: scenes[j].Name, Error: ctx.Err().Error()}
			}
			break send
		}
	}
	close(sceneChan)

	wg.Wait()
	close(done)

	log.Info("batch finished", "scenes", total, "elapsed", time.Since(start))
	return results
}

// worker is one private render stack.
type worker struct {
	id     int
	cfg    Config
	screen *arena.Arena
	res    scene.Resources
}

func newWorker(cfg Config, id int) (*worker, error) {
	backing := cfg.Backing
	if backing == nil {
		backing = &arena.HeapAllocator{}
	}

	screen := arena.New(fmt.Sprintf("screen-%d", id))
	level := arena.New(fmt.Sprintf("level-%d", id))
	frame := arena.New(fmt.Sprintf("frame-%d", id))
	wk := &worker{id: id, cfg: cfg, screen: screen}

	need := cfg.DisplayStride * cfg.DisplayHeight
	if got := screen.Initialize(backing, need); got < need {
		wk.release()
		return nil, fmt.Errorf("worker %d: framebuffer needs %d bytes, got %d: %w", id, need, got, arena.ErrExhausted)
	}
	// Smaller arenas than asked for are usable; scenes that outgrow them
	// report the textures that did not fit.
	if level.Initialize(backing, cfg.LevelArenaBytes) == 0 || frame.Initialize(backing, cfg.FrameArenaBytes) == 0 {
		screen.Release()
		level.Release()
		frame.Release()
		return nil, fmt.Errorf("worker %d: arenas: %w", id, arena.ErrExhausted)
	}

	pix, _ := screen.Alloc(need)
	fb, err := raster.NewFrameBufferFrom(pix, cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplayStride)
	if err != nil {
		screen.Release()
		level.Release()
		frame.Release()
		return nil, fmt.Errorf("worker %d: %w", id, err)
	}

	wk.res = scene.Resources{
		Ctx:   raster.NewContext(fb, cfg.Trig),
		Level: level,
		Frame: frame,
		Cache: texture.NewCache(cfg.Index, level, frame, cfg.PitchAlign),
	}
	return wk, nil
}

func (w *worker) release() {
	w.screen.Release()
	if w.res.Level != nil {
		w.res.Level.Release()
		w.res.Frame.Release()
	}
}

func (w *worker) process(ctx context.Context, sc *scene.Scene) Result {
	res := Result{Scene: sc.Name}

	display := newSnapshotDisplay(sc.SnapshotFrames())
	p, err := scene.NewPlayer(sc, w.res, display)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Failures = p.Failures()

	if err := p.Run(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Stats = w.res.Ctx.Stats

	for _, shot := range display.shots {
		rel := filepath.Join(sc.Name, fmt.Sprintf("%04d.%s", shot.frame, w.cfg.Format))
		img := postprocess.Upscale(shot.img, w.cfg.Upscale)
		if err := writeImage(filepath.Join(w.cfg.OutputDir, rel), img, w.cfg.Format); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Images = append(res.Images, filepath.ToSlash(rel))
	}

	logging.Logger().Debug("scene rendered", "worker", w.id, "scene", sc.Name, "images", len(res.Images),
		"blits", res.Stats.Blits, "pixels", res.Stats.Pixels)
	res.Success = true
	return res
}

type snapshot struct {
	frame int
	img   *image.NRGBA
}

// snapshotDisplay stands in for the handheld screen: it keeps a copy of the
// frames it was asked to capture.
type snapshotDisplay struct {
	want  map[int]bool
	next  int
	shots []snapshot
}

func newSnapshotDisplay(frames []int) *snapshotDisplay {
	d := &snapshotDisplay{want: make(map[int]bool, len(frames))}
	for _, f := range frames {
		d.want[f] = true
	}
	return d
}

func (d *snapshotDisplay) MarkUpdatedRows(fb *raster.FrameBuffer, start, end int) error {
	frame := d.next
	d.next++
	if !d.want[frame] {
		return nil
	}
	d.shots = append(d.shots, snapshot{frame: frame, img: fb.ToImage()})
	return nil
}

func writeImage(path string, img image.Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Encode writes img in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "webp", "":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("BMP encode: %w", err)
		}
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("PNG encode: %w", err)
		}
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
	return nil
}
