// Package loop drives a game with a fixed simulation step and a variable
// frame rate.
//
// Every frame, input is processed with the real frame time, the simulation
// catches up in FixedStep increments, and the frame is drawn with the
// fraction of a step left over so it can interpolate between states.
package loop

import (
	"context"
	"time"

	"pd-sprite-renderer/internal/logging"
)

const (
	// FixedStep is the simulation step in seconds.
	FixedStep = 0.02
	// MaxFrameTime caps the time a single frame may feed the simulation, so a
	// stall does not trigger a burst of catch-up steps.
	MaxFrameTime = 0.25
)

// Game is driven once per frame.
type Game interface {
	ProcessInput(elapsed float64)
	FixedUpdate(gameTime, step float64)
	FrameUpdate(interpolation, frameTime float64) error
}

// Presenter publishes a finished frame, like marking the display rows
// updated.
type Presenter interface {
	Present() error
}

// Clock measures the time between frames.
type Clock interface {
	// Elapsed returns the seconds since the last Reset.
	Elapsed() float64
	Reset()
}

// WallClock measures real time.
type WallClock struct {
	last time.Time
}

func (c *WallClock) Elapsed() float64 {
	if c.last.IsZero() {
		return 0
	}
	return time.Since(c.last).Seconds()
}

func (c *WallClock) Reset() { c.last = time.Now() }

// FixedClock reports the same frame time every frame. Offline rendering uses
// it to get reproducible output.
type FixedClock float64

func (c FixedClock) Elapsed() float64 { return float64(c) }
func (FixedClock) Reset()             {}

// Stats describes the driver's progress.
type Stats struct {
	Frames   int
	Updates  int
	GameTime float64
	UPS      float64 // smoothed fixed updates per second
	FPS      float64 // smoothed frames per second
}

// Driver runs the fixed-step schedule. It is not safe for concurrent use.
type Driver struct {
	Game      Game
	Presenter Presenter // optional

	Step     float64 // defaults to FixedStep
	MaxFrame float64 // defaults to MaxFrameTime

	accumulator float64
	stats       Stats
}

// New returns a driver with the default step and frame cap.
func New(g Game, p Presenter) *Driver {
	return &Driver{Game: g, Presenter: p, Step: FixedStep, MaxFrame: MaxFrameTime}
}

// Stats returns a snapshot of the counters.
func (d *Driver) Stats() Stats { return d.stats }

// Tick advances one frame that took frameTime seconds.
func (d *Driver) Tick(frameTime float64) error {
	step, maxFrame := d.Step, d.MaxFrame
	if step <= 0 {
		step = FixedStep
	}
	if maxFrame <= 0 {
		maxFrame = MaxFrameTime
	}

	if !(frameTime > 0) {
		frameTime = 0
	}
	if frameTime > maxFrame {
		logging.Logger().Debug("frame time capped", "seconds", frameTime, "max", maxFrame)
		frameTime = maxFrame
	}

	d.stats.GameTime += frameTime
	d.accumulator += frameTime

	d.Game.ProcessInput(frameTime)

	for d.accumulator >= step {
		d.Game.FixedUpdate(d.stats.GameTime, step)
		d.accumulator -= step
		d.stats.Updates++
		d.stats.UPS = (d.stats.UPS + 1/step) / 2
	}

	if err := d.Game.FrameUpdate(d.accumulator/step, frameTime); err != nil {
		return err
	}
	d.stats.Frames++
	if frameTime > 0 {
		d.stats.FPS = (d.stats.FPS + 1/frameTime) / 2
	}

	if d.Presenter != nil {
		return d.Presenter.Present()
	}
	return nil
}

// Run ticks frames until ctx is done, a frame fails, or frames frames have
// run. frames <= 0 means no limit.
func (d *Driver) Run(ctx context.Context, clock Clock, frames int) error {
	clock.Reset()
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frameTime := clock.Elapsed()
		clock.Reset()
		if err := d.Tick(frameTime); err != nil {
			return err
		}
	}
	logging.Logger().Debug("loop finished", "frames", d.stats.Frames, "updates", d.stats.Updates,
		"game_time", d.stats.GameTime)
	return nil
}
