// Package input multiplexes several byte-stream sources into a single
// stream of complete frames.
//
// Readiness is detected with poll(2). Each source owns a frame.Assembler
// that carries partial data between reads. When more than one source holds
// a complete frame, the source registered last wins and the others keep
// their frame for a later call.
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/fkcurrie/ledcat-golang/internal/frame"
)

const (
	defaultPollInterval  = 100 * time.Millisecond
	defaultRetryInterval = 10 * time.Millisecond
)

// Options configures a Multiplexer.
type Options struct {
	// FrameSize is the number of bytes in one frame.
	FrameSize int
	// ClearTimeout discards partial frame data of a source that has been
	// idle for longer than this. Zero disables it.
	ClearTimeout time.Duration
	Exit         ExitPolicy
	// PollInterval bounds how long a single poll blocks so that
	// cancellation and clear timeouts are observed.
	PollInterval time.Duration
	// RetryInterval is slept when every polled source only reported a hangup.
	RetryInterval time.Duration
	Logger        zerolog.Logger
}

// Multiplexer yields frames from a set of sources.
type Multiplexer struct {
	sources []*Source
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	sawEOF bool
	fds    []unix.PollFd
	polled []*Source
}

// New takes ownership of sources. The order of sources matters: later
// sources take priority over earlier ones.
func New(sources []*Source, opts Options) (*Multiplexer, error) {
	if len(sources) == 0 {
		return nil, errors.New("no input sources")
	}
	if opts.FrameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", opts.FrameSize)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	m := &Multiplexer{
		sources: sources,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "input").Logger(),
		now:     time.Now,
		fds:     make([]unix.PollFd, 0, len(sources)),
		polled:  make([]*Source, 0, len(sources)),
	}
	start := m.now()
	for _, s := range sources {
		s.asm = frame.NewAssembler(opts.FrameSize)
		s.last = start
		m.log.Debug().Str("source", s.name).Msg("input registered")
	}
	return m, nil
}

// OpenAll opens every path and builds a multiplexer over them. Sources
// opened before a failure are closed again.
func OpenAll(paths []string, opts Options) (*Multiplexer, error) {
	if len(paths) == 0 {
		paths = []string{Stdin}
	}
	sources := make([]*Source, 0, len(paths))
	for _, p := range paths {
		s, err := Open(p, opts.Exit)
		if err != nil {
			for _, o := range sources {
				_ = o.Close()
			}
			return nil, err
		}
		sources = append(sources, s)
	}
	return New(sources, opts)
}

// Next blocks until a complete frame is available and returns it. It
// returns io.EOF once the exit policy says the stream is over, and the
// context error when ctx is done.
func (m *Multiplexer) Next(ctx context.Context) (frame.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.expire(m.now())

		progressed, hup, err := m.poll()
		if err != nil {
			return nil, err
		}

		if f := m.pick(); f != nil {
			return f, nil
		}
		if m.finished() {
			return nil, io.EOF
		}
		if hup && !progressed {
			if err := sleep(ctx, m.opts.RetryInterval); err != nil {
				return nil, err
			}
		}
	}
}

// Close closes every source.
func (m *Multiplexer) Close() error {
	var errs []error
	for _, s := range m.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// expire drops stale partial frames.
func (m *Multiplexer) expire(now time.Time) {
	if m.opts.ClearTimeout <= 0 {
		return
	}
	for _, s := range m.sources {
		if !s.asm.Ready() {
			m.expireSource(s, now)
		}
	}
}

// expireSource drops the partial frame of s if it has been idle for at
// least the clear timeout. Idle time only accrues while s is being polled.
func (m *Multiplexer) expireSource(s *Source, now time.Time) {
	if m.opts.ClearTimeout <= 0 || s.asm.Partial() == 0 {
		return
	}
	if now.Sub(s.last) < m.opts.ClearTimeout {
		return
	}
	n := s.asm.DiscardPartial()
	m.log.Debug().Str("source", s.name).Int("bytes", n).Msg("discarding stale partial frame")
}

// poll waits for readable sources and reads once from each of them.
// Sources already holding a complete frame are left alone.
func (m *Multiplexer) poll() (progressed, hup bool, err error) {
	m.fds = m.fds[:0]
	m.polled = m.polled[:0]
	buffered := false
	now := m.now()
	for _, s := range m.sources {
		if s.asm.Ready() {
			// Held back by a pending frame, not idle.
			s.last = now
			buffered = true
			continue
		}
		if s.closed {
			continue
		}
		m.fds = append(m.fds, unix.PollFd{Fd: int32(s.fd), Events: unix.POLLIN})
		m.polled = append(m.polled, s)
	}
	if len(m.fds) == 0 {
		return false, !buffered, nil
	}

	timeout := int(m.opts.PollInterval / time.Millisecond)
	if buffered {
		timeout = 0
	}
	n, err := unix.Poll(m.fds, timeout)
	if errors.Is(err, unix.EINTR) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("poll failed: %w", err)
	}
	if n == 0 {
		return false, false, nil
	}

	now = m.now()
	for i, pfd := range m.fds {
		if pfd.Revents == 0 {
			continue
		}
		s := m.polled[i]
		// The timeout may have run out while poll was blocked.
		m.expireSource(s, now)
		got, err := s.asm.Fill(fdReader(s.fd))
		switch {
		case got > 0:
			s.last = now
			progressed = true
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		default:
			m.endOfStream(s, err)
			hup = true
		}
	}
	return progressed, hup, nil
}

func (m *Multiplexer) endOfStream(s *Source, err error) {
	if err != nil && !errors.Is(err, io.EOF) {
		m.log.Warn().Err(err).Str("source", s.name).Msg("read failed, treating as end of stream")
	}
	if terr := s.asm.Finish(); terr != nil {
		m.log.Warn().Err(terr).Str("source", s.name).Msg("discarding incomplete frame")
	}
	m.sawEOF = true
	if m.opts.Exit == ExitNever {
		return
	}
	m.log.Info().Str("source", s.name).Msg("input closed")
	if cerr := s.Close(); cerr != nil {
		m.log.Warn().Err(cerr).Str("source", s.name).Msg("close failed")
	}
}

// pick pops a frame from the rightmost source that has one.
func (m *Multiplexer) pick() frame.Frame {
	for i := len(m.sources) - 1; i >= 0; i-- {
		s := m.sources[i]
		if !s.asm.Ready() {
			continue
		}
		f := make(frame.Frame, m.opts.FrameSize)
		s.asm.Next(f)
		s.last = m.now()
		return f
	}
	return nil
}

func (m *Multiplexer) finished() bool {
	for _, s := range m.sources {
		if s.asm.Ready() {
			return false
		}
	}
	switch m.opts.Exit {
	case ExitOnFirst:
		return m.sawEOF
	case ExitOnAll:
		for _, s := range m.sources {
			if !s.closed {
				return false
			}
		}
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
