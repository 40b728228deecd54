// Package hub75 drives HUB75 LED matrix panels by bit-banging GPIO lines.
//
// Brightness is produced with binary coded modulation: every refresh shows
// each row once per bit-plane, and plane k stays lit twice as long as plane
// k-1. The panel has no frame memory, so a dedicated goroutine locked to its
// OS thread keeps refreshing the most recent frame until Close.
package hub75

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/pkg/gpio"
)

// Options holds optional collaborators.
type Options struct {
	Logger zerolog.Logger
	// Wait keeps the current plane lit for d. Defaults to Sleep.
	Wait func(d time.Duration)
}

// Panel is a device.Driver for a HUB75 panel.
type Panel struct {
	cfg      Config
	geom     geometry.Geometry
	width    int
	scanRows int
	order    []int
	log      zerolog.Logger
	wait     func(time.Duration)

	levelSelect []gpio.Output
	red         []gpio.Output
	green       []gpio.Output
	blue        []gpio.Output
	clock       gpio.Output
	latch       gpio.Output
	oe          gpio.Output
	lines       []gpio.Output

	frames chan frame.Frame
	errc   chan error
	stop   chan struct{}
	done   chan struct{}

	cur       frame.Frame
	refreshes uint64
	err       error
	closed    bool
}

// New validates cfg, requests every line through request and starts
// scanning a blank frame.
func New(g geometry.Geometry, cfg Config, request gpio.Requester, opts Options) (*Panel, error) {
	p, err := newPanel(g, cfg, request, opts)
	if err != nil {
		return nil, err
	}
	go p.scan()
	return p, nil
}

func newPanel(g geometry.Geometry, cfg Config, request gpio.Requester, opts Options) (*Panel, error) {
	if err := cfg.Validate(g); err != nil {
		return nil, err
	}
	wait := opts.Wait
	if wait == nil {
		wait = Sleep
	}

	p := &Panel{
		cfg:      cfg,
		geom:     g,
		width:    g.Width(),
		scanRows: cfg.ScanRows(),
		order:    cfg.scanOrder(),
		log:      opts.Logger.With().Str("component", "hub75").Logger(),
		wait:     wait,
		frames:   make(chan frame.Frame),
		errc:     make(chan error, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		cur:      make(frame.Frame, g.FrameSize()),
	}

	req := func(pin int) (gpio.Output, error) {
		out, err := request(pin)
		if err != nil {
			return nil, err
		}
		b := gpio.NewBuffered(out)
		p.lines = append(p.lines, b)
		return b, nil
	}
	reqAll := func(pins []int) ([]gpio.Output, error) {
		outs := make([]gpio.Output, 0, len(pins))
		for _, pin := range pins {
			o, err := req(pin)
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		}
		return outs, nil
	}

	var err error
	// OE first, so the panel can be blanked while the rest is set up.
	if p.oe, err = req(cfg.OutputEnable); err == nil {
		err = p.oe.SetValue(1)
	}
	if err == nil {
		p.clock, err = req(cfg.Clock)
	}
	if err == nil {
		p.latch, err = req(cfg.Latch)
	}
	if err == nil {
		p.levelSelect, err = reqAll(cfg.LevelSelect)
	}
	if err == nil {
		p.red, err = reqAll(cfg.Red)
	}
	if err == nil {
		p.green, err = reqAll(cfg.Green)
	}
	if err == nil {
		p.blue, err = reqAll(cfg.Blue)
	}
	if err != nil {
		_ = p.release()
		return nil, fmt.Errorf("failed to set up hub75 lines: %w", err)
	}

	p.log.Info().
		Str("geometry", g.String()).
		Int("scan_rows", p.scanRows).
		Int("bands", len(cfg.Red)).
		Int("planes", cfg.PWMCycles).
		Dur("lsb", cfg.LSBDuration).
		Msg("hub75 panel ready")
	return p, nil
}

// Write hands f to the scanner. It blocks until the scanner finishes its
// current refresh and takes the frame, and returns the scanner's error if
// it has stopped.
func (p *Panel) Write(f frame.Frame) error {
	if err := device.CheckSize(p.geom, f); err != nil {
		return err
	}
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return errors.New("hub75: write after close")
	}

	buf := make(frame.Frame, len(f))
	copy(buf, f)
	select {
	case err := <-p.errc:
		p.err = device.WrapIO(string(device.KindHub75), "refresh", err)
		return p.err
	case p.frames <- buf:
		return nil
	}
}

// Close stops the scanner, blanks the panel and releases every line.
func (p *Panel) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stop)
	<-p.done

	var errs []error
	select {
	case err := <-p.errc:
		errs = append(errs, device.WrapIO(string(device.KindHub75), "refresh", err))
	default:
	}
	if err := p.release(); err != nil {
		errs = append(errs, device.WrapIO(string(device.KindHub75), "release", err))
	}
	p.log.Debug().Uint64("refreshes", p.refreshes).Msg("hub75 panel closed")
	return errors.Join(errs...)
}

// release drives OE inactive and closes all requested lines.
func (p *Panel) release() error {
	var errs []error
	if p.oe != nil {
		if err := p.oe.SetValue(1); err != nil {
			errs = append(errs, fmt.Errorf("failed to blank panel: %w", err))
		}
	}
	for _, l := range p.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.lines = nil
	return errors.Join(errs...)
}

// scan runs until stop is closed or a line fails. A new frame is only
// taken between refreshes.
func (p *Panel) scan() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	for {
		select {
		case <-p.stop:
			return
		case f := <-p.frames:
			p.cur = f
		default:
		}
		if err := p.refresh(p.cur); err != nil {
			p.errc <- err
			return
		}
		p.refreshes++
	}
}

// refresh shows every bit-plane of every row once.
func (p *Panel) refresh(f frame.Frame) error {
	for _, row := range p.order {
		for plane := 0; plane < p.cfg.PWMCycles; plane++ {
			bit := uint(8 - p.cfg.PWMCycles + plane)
			if err := p.shiftRow(f, row, bit); err != nil {
				return err
			}
			if err := p.oe.SetValue(1); err != nil {
				return fmt.Errorf("failed to disable output: %w", err)
			}
			if err := p.selectRow(row); err != nil {
				return err
			}
			if err := pulse(p.latch); err != nil {
				return fmt.Errorf("failed to latch row %d: %w", row, err)
			}
			if err := p.oe.SetValue(0); err != nil {
				return fmt.Errorf("failed to enable output: %w", err)
			}
			p.wait(p.cfg.LSBDuration << plane)
			if err := p.oe.SetValue(1); err != nil {
				return fmt.Errorf("failed to disable output: %w", err)
			}
		}
	}
	return nil
}

// shiftRow clocks one bit-plane of a row address into the panel. Band b
// covers display row row + b*scanRows.
func (p *Panel) shiftRow(f frame.Frame, row int, bit uint) error {
	for x := 0; x < p.width; x++ {
		for band := range p.red {
			i := ((row+band*p.scanRows)*p.width + x) * 3
			if err := p.red[band].SetValue(int(f[i]>>bit) & 1); err != nil {
				return fmt.Errorf("failed to set red data: %w", err)
			}
			if err := p.green[band].SetValue(int(f[i+1]>>bit) & 1); err != nil {
				return fmt.Errorf("failed to set green data: %w", err)
			}
			if err := p.blue[band].SetValue(int(f[i+2]>>bit) & 1); err != nil {
				return fmt.Errorf("failed to set blue data: %w", err)
			}
		}
		if err := pulse(p.clock); err != nil {
			return fmt.Errorf("failed to pulse clock: %w", err)
		}
	}
	return nil
}

func (p *Panel) selectRow(row int) error {
	for i, ls := range p.levelSelect {
		if err := ls.SetValue((row >> i) & 1); err != nil {
			return fmt.Errorf("failed to set address bit %c: %w", 'A'+rune(i), err)
		}
	}
	return nil
}

func pulse(o gpio.Output) error {
	if err := o.SetValue(1); err != nil {
		return err
	}
	return o.SetValue(0)
}
