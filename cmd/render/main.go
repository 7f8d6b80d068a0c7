package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"pd-sprite-renderer/internal/config"
	"pd-sprite-renderer/internal/logging"

	"github.com/alecthomas/kong"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Config   string `help:"Path to config.json file" type:"path"`
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
}

// Load reads the config file, if any, and applies flag overrides.
func (g *Globals) Load(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if g.Config != "" {
		var err error
		cfg, err = config.Load(g.Config)
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type CLI struct {
	Globals

	Render   RenderCmd   `cmd:"" default:"withargs" help:"Render scenes to images"`
	Probe    ProbeCmd    `cmd:"" help:"Find how much memory the arena allocator can get"`
	Sintable SintableCmd `cmd:"" help:"Print the sine lookup table as Go source"`
	Texdump  TexdumpCmd  `cmd:"" help:"Compress a texture and write it back out as an image"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("render"),
		kong.Description("Affine sprite blitter for 1-bit handheld displays."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		kctx.FatalIfErrorf(fmt.Errorf("invalid log level %q: %w", cli.LogLevel, err))
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logging.SetLogger(logger)

	err := kctx.Run(&cli.Globals)
	if err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		stop()
		os.Exit(1)
	}
}
