// Package cli implements the ledcat command-line interface.
//
// The root command carries the input, geometry and transposition flags that
// every run shares. Each subcommand selects one output driver and adds the
// flags specific to it.
//
// # Configuration
//
// Settings are read from an optional YAML file given with --config. Flags
// that are set explicitly on the command line override the file.
//
// # Logging
//
// Logs go to stderr through zerolog's console writer so that stdout stays
// free for frame data. --verbose (-v) enables debug output.
package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/ledcat-golang/internal/config"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// CLI holds state shared by all commands.
type CLI struct {
	Logger zerolog.Logger

	stdout io.Writer
	cfg    *config.Config
	flags  rootFlags
}

// New creates a CLI writing command output to stdout and logs to stderr.
func New(stdout, stderr io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(stderr, zerolog.InfoLevel),
		stdout: stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level zerolog.Level) {
	c.Logger = c.Logger.Level(level)
}

// Config returns the configuration resolved for the running command. It is
// nil before flags have been parsed.
func (c *CLI) Config() *config.Config { return c.cfg }

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
