package main

import (
	"fmt"
	"io"
	"os"

	"pd-sprite-renderer/internal/mathutil"
)

type SintableCmd struct {
	Samples int    `help:"Samples per 90 degrees" default:"400"`
	Package string `help:"Package name of the generated file" default:"mathutil"`
	Out     string `help:"Output file (default: stdout)" type:"path"`
}

func (c *SintableCmd) Validate() error {
	if c.Samples <= 0 {
		return fmt.Errorf("invalid sample count: %d", c.Samples)
	}
	return nil
}

func (c *SintableCmd) Run() error {
	var w io.Writer = os.Stdout
	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", c.Out, err)
		}
		defer f.Close()
		w = f
	}
	return mathutil.WriteSineTable(w, c.Package, c.Samples)
}
