// Package pipeline runs the control loop that moves frames from the input
// multiplexer through the transposition table into a device driver.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/transpose"
)

// Source yields complete frames. Next returns io.EOF once the stream ends.
type Source interface {
	Next(ctx context.Context) (frame.Frame, error)
	Close() error
}

// Options configures a Pipeline.
type Options struct {
	// FrameRate caps the number of frames written per second. Zero means
	// frames are written as fast as they arrive.
	FrameRate float64
	// Single stops the pipeline after the first frame has been written.
	Single bool
	Logger zerolog.Logger
}

// Pipeline owns a source and a driver for the duration of a run.
type Pipeline struct {
	src   Source
	table *transpose.Table
	drv   device.Driver
	opts  Options
	log   zerolog.Logger

	interval time.Duration
	scratch  frame.Frame
	frames   uint64
	closed   bool
}

// New builds a pipeline. table may be nil when no transposition is needed.
func New(src Source, table *transpose.Table, drv device.Driver, opts Options) (*Pipeline, error) {
	if src == nil || drv == nil {
		return nil, errors.New("pipeline needs a source and a driver")
	}
	if opts.FrameRate < 0 {
		return nil, fmt.Errorf("invalid frame rate %g", opts.FrameRate)
	}

	p := &Pipeline{
		src:  src,
		drv:  drv,
		opts: opts,
		log:  opts.Logger.With().Str("component", "pipeline").Logger(),
	}
	if table != nil && !table.Identity() {
		p.table = table
		p.scratch = make(frame.Frame, table.Len()*3)
	}
	if opts.FrameRate > 0 {
		p.interval = time.Duration(float64(time.Second) / opts.FrameRate)
	}
	return p, nil
}

// Interval returns the minimum time between two frames, zero if unpaced.
func (p *Pipeline) Interval() time.Duration { return p.interval }

// Frames returns the number of frames written so far.
func (p *Pipeline) Frames() uint64 { return p.frames }

// Run moves frames until the source ends, ctx is done or the driver fails.
// The end of the stream is not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	var last time.Time
	for {
		// Fetches are paced, not writes.
		if p.interval > 0 && !last.IsZero() {
			if err := sleepUntil(ctx, last.Add(p.interval)); err != nil {
				return err
			}
		}
		last = time.Now()

		f, err := p.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			p.log.Info().Uint64("frames", p.frames).Msg("end of stream")
			return nil
		}
		if err != nil {
			return err
		}

		out := f
		if p.table != nil {
			p.table.Apply(p.scratch, f)
			out = p.scratch
		}
		if err := p.drv.Write(out); err != nil {
			return device.WrapIO("driver", "write", err)
		}
		p.frames++

		if p.opts.Single {
			p.log.Debug().Msg("single frame written")
			return nil
		}
	}
}

// Close closes the driver and then the source. It is safe to call more
// than once.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	if err := p.drv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close driver: %w", err))
	}
	if err := p.src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close inputs: %w", err))
	}
	return errors.Join(errs...)
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
