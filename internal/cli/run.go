package cli

import (
	"context"
	"errors"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/internal/input"
	"github.com/fkcurrie/ledcat-golang/internal/pipeline"
)

// opener creates the output driver once the geometry is known.
type opener func(g geometry.Geometry) (device.Driver, error)

// run resolves the shared configuration, opens the driver and the inputs
// and moves frames until the stream ends or ctx is cancelled.
func (c *CLI) run(ctx context.Context, kind device.Kind, open opener) (err error) {
	cfg := c.cfg
	// Subcommand flags are applied after setup validated the file.
	if err := cfg.Validate(); err != nil {
		return err
	}
	g, err := cfg.ResolveGeometry()
	if err != nil {
		return err
	}
	table, err := cfg.Transposition(g)
	if err != nil {
		return err
	}
	policy, err := cfg.ExitPolicy()
	if err != nil {
		return err
	}

	drv, err := open(g)
	if err != nil {
		return err
	}
	c.Logger.Info().
		Str("driver", string(kind)).
		Str("geometry", g.String()).
		Strs("transpose", cfg.Transpose).
		Msg("driver selected")

	mux, err := input.OpenAll(cfg.Inputs, input.Options{
		FrameSize:    g.FrameSize(),
		ClearTimeout: cfg.ClearTimeout(),
		Exit:         policy,
		Logger:       c.Logger,
	})
	if err != nil {
		return errors.Join(err, drv.Close())
	}

	p, err := pipeline.New(mux, table, drv, pipeline.Options{
		FrameRate: cfg.FrameRate,
		Single:    cfg.One,
		Logger:    c.Logger,
	})
	if err != nil {
		return errors.Join(err, drv.Close(), mux.Close())
	}
	defer func() {
		c.Logger.Debug().Uint64("frames", p.Frames()).Msg("pipeline stopped")
		err = errors.Join(err, p.Close())
	}()

	c.Logger.Debug().
		Str("exit", policy.String()).
		Dur("clear_timeout", cfg.ClearTimeout()).
		Dur("interval", p.Interval()).
		Msg("pipeline started")
	return p.Run(ctx)
}
