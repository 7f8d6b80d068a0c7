package texture

import (
	"fmt"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/logging"
)

// Spec describes how to produce a named texture: either a procedural
// pattern or an image file found through the Index.
type Spec struct {
	Name    string
	Pattern string
	File    string
	Format  Format
	Width   int
	Height  int
	Run     int
	On, Off byte
	Load    LoadOptions
}

// Resolver turns a Spec into a texture.
type Resolver interface {
	Resolve(spec Spec) (Source, error)
}

// Cache builds each named texture once into the level arena. Entries live
// exactly as long as that arena's current generation: call Reset together
// with the arena's Reset.
//
// Cache is not safe for concurrent use.
type Cache struct {
	index   *Index
	level   *arena.Arena
	scratch *arena.Arena
	align   int
	items   map[string]Source
}

// NewCache creates a cache. index may be nil when only patterns are used.
func NewCache(index *Index, level, scratch *arena.Arena, align int) *Cache {
	return &Cache{
		index:   index,
		level:   level,
		scratch: scratch,
		align:   align,
		items:   make(map[string]Source),
	}
}

// Resolve returns the cached texture for spec.Name, building it on first use.
func (c *Cache) Resolve(spec Spec) (Source, error) {
	if src, ok := c.items[spec.Name]; ok {
		return src, nil
	}

	f := spec.Format
	if f == 0 {
		f = FormatAlpha
	}

	var (
		paint Painter
		w, h  = spec.Width, spec.Height
	)
	switch {
	case spec.File != "":
		path := spec.File
		if c.index != nil {
			if p, ok := c.index.ResolvePath(spec.File); ok {
				path = p
			}
		}
		ix, err := LoadIndexed(path, spec.Load)
		if err != nil {
			return nil, err
		}
		w, h = ix.Width, ix.Height
		paint = ix.Painter()
	default:
		var ok bool
		paint, ok = Pattern(spec.Pattern, spec.Run, spec.On, spec.Off)
		if !ok {
			return nil, fmt.Errorf("texture %q: unknown pattern %q", spec.Name, spec.Pattern)
		}
	}

	src, err := Build(c.level, c.scratch, f, w, h, c.align, paint)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", spec.Name, err)
	}
	c.items[spec.Name] = src

	logging.Logger().Debug("texture built", "name", spec.Name, "format", f, "width", w, "height", h,
		"level_free", c.level.Free())
	return src, nil
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	return len(c.items)
}

// Reset forgets every cached texture.
func (c *Cache) Reset() {
	clear(c.items)
}
