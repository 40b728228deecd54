package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fkcurrie/ledcat-golang/internal/config"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

type rootFlags struct {
	configPath   string
	geometry     string
	inputs       []string
	exit         string
	linger       bool
	frameRate    float64
	clearTimeout int
	transpose    []string
	one          bool
	verbose      bool
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledcat",
		Short: "ledcat pipes RGB byte streams to LED displays",
		Long: `ledcat reads frames of raw RGB bytes (3 bytes per pixel, no delimiter) from
stdin, pipes, FIFOs or files and writes them to an LED display.

The display size is given with --geometry as a pixel count (N) or as WxH, or
through $` + geometry.EnvVar + `.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	f := &c.flags
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML configuration file")
	pf.StringVarP(&f.geometry, "geometry", "g", "", "display geometry, N or WxH (default $"+geometry.EnvVar+")")
	pf.StringArrayVarP(&f.inputs, "input", "i", nil, "input file or FIFO, - for stdin (repeatable, later inputs take priority)")
	pf.StringVar(&f.exit, "exit", "", "when to stop: first, all or never (default first for one input, all otherwise)")
	pf.BoolVarP(&f.linger, "linger", "l", false, "keep running after inputs close, same as --exit never")
	pf.Float64VarP(&f.frameRate, "framerate", "f", 0, "maximum frames per second, 0 for unlimited")
	pf.IntVar(&f.clearTimeout, "clear-timeout", 0, "milliseconds after which an incomplete frame is dropped (default 2 frame intervals or 100)")
	pf.StringArrayVarP(&f.transpose, "transpose", "t", nil, "pixel order transformation: reverse, zigzag_x, zigzag_y, mirror_x, mirror_y (repeatable)")
	pf.BoolVarP(&f.one, "one", "1", false, "exit after writing one frame")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.showCommand())
	root.AddCommand(c.rawCommand())
	root.AddCommand(c.artnetCommand())
	root.AddCommand(c.hub75Command())
	root.AddCommand(c.nrzledCommand())
	root.AddCommand(c.ws281xCommand())

	return root
}

// setup loads the configuration file and applies explicitly set flags on
// top of it.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	f := &c.flags
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("geometry") {
		cfg.Geometry = f.geometry
	}
	if fl.Changed("input") {
		cfg.Inputs = f.inputs
	}
	if fl.Changed("exit") {
		cfg.Exit = f.exit
	}
	if fl.Changed("linger") {
		cfg.Linger = f.linger
	}
	if fl.Changed("framerate") {
		cfg.FrameRate = f.frameRate
	}
	if fl.Changed("clear-timeout") {
		ms := f.clearTimeout
		cfg.ClearTimeoutMs = &ms
	}
	if fl.Changed("transpose") {
		cfg.Transpose = f.transpose
	}
	if fl.Changed("one") {
		cfg.One = f.one
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	c.SetLogLevel(level)

	c.cfg = cfg
	return cfg.Validate()
}
