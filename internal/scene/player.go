package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/logging"
	"pd-sprite-renderer/internal/loop"
	"pd-sprite-renderer/internal/mathutil"
	"pd-sprite-renderer/internal/raster"
	"pd-sprite-renderer/internal/texture"
)

const (
	MoveSpeed = 100.0 // d-pad speed in pixels per second
	ScaleRate = 1.0   // A/B scale change per second
)

// Resources is one private render stack. Nothing in it may be shared with
// another Player running at the same time.
type Resources struct {
	Ctx   *raster.Context
	Level *arena.Arena // textures, reset per scene
	Frame *arena.Arena // scratch, reset per frame
	Cache *texture.Cache
}

var (
	_ loop.Game      = (*Player)(nil)
	_ loop.Presenter = (*Player)(nil)
)

// Player runs a scene as a loop.Game.
type Player struct {
	scene   *Scene
	res     Resources
	display raster.Display
	script  *Script

	sprites  []sprite
	failures []string
	held     Held
	frame    int
}

type sprite struct {
	tex        texture.Source
	xf         transform
	spin       float64 // radians per second
	controlled bool
}

// NewPlayer builds the scene's textures into the level arena. Textures that
// do not fit are reported on screen and their sprites skipped; any other
// texture error is returned. display may be nil.
func NewPlayer(sc *Scene, res Resources, display raster.Display) (*Player, error) {
	res.Cache.Reset()
	res.Level.Reset()
	res.Frame.Reset()
	res.Ctx.ResetStats()

	if sc.Debug {
		res.Ctx.Debug = raster.NewOverlay(res.Ctx.Frame)
	} else {
		res.Ctx.Debug = nil
	}

	p := &Player{
		scene:   sc,
		res:     res,
		display: display,
		script:  NewScript(sc.Input),
	}

	built := make(map[string]texture.Source, len(sc.Textures))
	for _, ts := range sc.Textures {
		spec, err := ts.Spec()
		if err != nil {
			return nil, fmt.Errorf("scene %s: texture %q: %w", sc.Name, ts.Name, err)
		}
		tex, err := res.Cache.Resolve(spec)
		// Index images are scratch; only the compressed rows survive.
		res.Frame.Reset()
		if errors.Is(err, arena.ErrExhausted) {
			logging.Logger().Error("texture skipped", "scene", sc.Name, "texture", ts.Name, "error", err)
			p.failures = append(p.failures, ts.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", sc.Name, err)
		}
		built[ts.Name] = tex
	}

	for _, sp := range sc.Sprites {
		tex, ok := built[sp.Texture]
		if !ok {
			continue
		}
		p.sprites = append(p.sprites, sprite{
			tex:        tex,
			xf:         sp.initial(tex),
			spin:       mathutil.Deg2Rad(sp.Spin),
			controlled: sp.Controlled,
		})
	}

	logging.Logger().Info("scene loaded", "scene", sc.Name, "textures", len(built), "sprites", len(p.sprites),
		"level_used", res.Level.Used(), "level_free", res.Level.Free())
	return p, nil
}

// Failures lists textures that could not be allocated.
func (p *Player) Failures() []string { return p.failures }

// Frame returns the number of frames drawn so far.
func (p *Player) Frame() int { return p.frame }

// Held returns the buttons currently down.
func (p *Player) Held() Buttons { return Buttons(p.held) }

// Placement returns the current position, scale and angle of the i-th drawn
// sprite.
func (p *Player) Placement(i int) (mathutil.Vec2, mathutil.Size, float64) {
	xf := p.sprites[i].xf
	return xf.dst, xf.scale, xf.angle
}

// ProcessInput applies this frame's scripted input to controlled sprites:
// the d-pad moves them, B grows and A shrinks them, and turning the crank
// forward rotates them clockwise.
func (p *Player) ProcessInput(elapsed float64) {
	e := p.script.At(p.frame)
	p.held = p.held.Apply(e)

	var d mathutil.Vec2
	if p.held.Has(ButtonLeft) {
		d.X -= elapsed * MoveSpeed
	}
	if p.held.Has(ButtonRight) {
		d.X += elapsed * MoveSpeed
	}
	if p.held.Has(ButtonDown) {
		d.Y -= elapsed * MoveSpeed
	}
	if p.held.Has(ButtonUp) {
		d.Y += elapsed * MoveSpeed
	}

	var ds float64
	if p.held.Has(ButtonB) {
		ds += elapsed * ScaleRate
	}
	if p.held.Has(ButtonA) {
		ds -= elapsed * ScaleRate
	}

	for i := range p.sprites {
		s := &p.sprites[i]
		if !s.controlled {
			continue
		}
		s.xf.dst = s.xf.dst.Add(d)
		s.xf.scale.W += ds
		s.xf.scale.H += ds
		if e.Crank != 0 {
			s.xf.angle -= mathutil.Deg2Rad(e.Crank)
		}
		s.xf.angle = mathutil.ClampRadians(s.xf.angle)
	}
}

// FixedUpdate advances spinning sprites.
func (p *Player) FixedUpdate(gameTime, step float64) {
	for i := range p.sprites {
		s := &p.sprites[i]
		if s.spin != 0 {
			s.xf.angle = mathutil.ClampRadians(s.xf.angle + s.spin*step)
		}
	}
}

// FrameUpdate redraws the whole frame.
func (p *Player) FrameUpdate(interpolation, frameTime float64) error {
	p.res.Frame.Reset()

	ctx := p.res.Ctx
	if p.scene.Background == BackgroundLight {
		ctx.Frame.Fill(true)
	} else {
		ctx.Frame.Clear()
	}
	if ctx.Debug != nil {
		ctx.Debug.Clear()
	}

	for _, s := range p.sprites {
		ctx.DrawBitmap(s.tex, s.xf.src, s.xf.dst, s.xf.angle, s.xf.scale, s.xf.center)
	}
	if len(p.failures) > 0 {
		p.drawBanner("out of memory: " + strings.Join(p.failures, ", "))
	}

	p.frame++
	return nil
}

// Present hands the frame to the display, if there is one.
func (p *Player) Present() error {
	if p.display == nil {
		return nil
	}
	return p.res.Ctx.Present(p.display)
}

// drawBanner writes msg in light text on a dark band across the top.
func (p *Player) drawBanner(msg string) {
	fb := p.res.Ctx.Frame
	band := raster.GlyphHeight + 4
	fb.FillRect(mathutil.R(0, fb.Height-band, fb.Width, band), false)
	fb.Text(2, fb.Height-3, msg)
}

// Run plays the whole scene with a fixed frame time.
func (p *Player) Run(ctx context.Context) error {
	ft := p.scene.FrameTime
	if ft <= 0 {
		ft = loop.FixedStep
	}
	d := loop.New(p, p)
	if err := d.Run(ctx, loop.FixedClock(ft), p.scene.Frames); err != nil {
		return fmt.Errorf("scene %s: frame %d: %w", p.scene.Name, p.frame, err)
	}
	st := d.Stats()
	logging.Logger().Debug("scene finished", "scene", p.scene.Name, "frames", st.Frames, "updates", st.Updates,
		"pixels", p.res.Ctx.Stats.Pixels, "degenerate_scanlines", p.res.Ctx.Stats.DegenerateScanlines)
	return nil
}
