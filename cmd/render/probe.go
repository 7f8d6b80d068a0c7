package main

import (
	"fmt"

	"pd-sprite-renderer/internal/arena"
	"pd-sprite-renderer/internal/config"
)

type ProbeCmd struct {
	Bytes int `help:"Bytes to ask for" default:"1048576"`
	Limit int `help:"Heap limit in bytes (default: heap_limit from the config, 0 for none)"`
}

func (c *ProbeCmd) Validate() error {
	if c.Bytes <= 0 {
		return fmt.Errorf("invalid request size: %d", c.Bytes)
	}
	if c.Limit < 0 {
		return fmt.Errorf("invalid heap limit: %d", c.Limit)
	}
	return nil
}

func (c *ProbeCmd) Run(g *Globals) error {
	cfg, err := g.Load(config.Flags{})
	if err != nil {
		return err
	}
	limit := cfg.HeapLimit
	if c.Limit > 0 {
		limit = c.Limit
	}

	heap := &arena.HeapAllocator{Limit: limit}
	buf, got := arena.AllocateUpTo(heap, c.Bytes)
	fmt.Printf("requested %d bytes, heap limit %d: got %d\n", c.Bytes, limit, got)
	if buf != nil {
		heap.Free(buf)
	}

	// The configured arenas, as a worker would set them up.
	level := arena.New("level")
	frame := arena.New("frame")
	defer level.Release()
	defer frame.Release()
	fmt.Printf("level arena: asked %d, got %d\n", cfg.LevelArenaBytes, level.Initialize(heap, cfg.LevelArenaBytes))
	fmt.Printf("frame arena: asked %d, got %d\n", cfg.FrameArenaBytes, frame.Initialize(heap, cfg.FrameArenaBytes))

	if got == 0 {
		return fmt.Errorf("no memory available: %w", arena.ErrExhausted)
	}
	return nil
}
