package hub75

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/pkg/gpio"
)

// bench records every line transition on a shared event log.
type bench struct {
	mu     sync.Mutex
	names  map[int]string
	values map[int]int
	closed map[int]bool
	events []string
	failAt int // fail the n-th SetValue when > 0
	calls  int
}

func newBench(cfg Config) *bench {
	b := &bench{
		names:  make(map[int]string),
		values: make(map[int]int),
		closed: make(map[int]bool),
	}
	for i, p := range cfg.LevelSelect {
		b.names[p] = fmt.Sprintf("addr%d", i)
	}
	for i := range cfg.Red {
		b.names[cfg.Red[i]] = fmt.Sprintf("r%d", i)
		b.names[cfg.Green[i]] = fmt.Sprintf("g%d", i)
		b.names[cfg.Blue[i]] = fmt.Sprintf("b%d", i)
	}
	b.names[cfg.Clock] = "clk"
	b.names[cfg.Latch] = "lat"
	b.names[cfg.OutputEnable] = "oe"
	return b
}

type benchLine struct {
	b   *bench
	pin int
}

func (l benchLine) SetValue(v int) error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	l.b.calls++
	if l.b.failAt > 0 && l.b.calls >= l.b.failAt {
		return errors.New("line gone")
	}
	l.b.values[l.pin] = v
	l.b.events = append(l.b.events, fmt.Sprintf("%s=%d", l.b.names[l.pin], v))
	return nil
}

func (l benchLine) Close() error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	l.b.closed[l.pin] = true
	return nil
}

func (b *bench) request(pin int) (gpio.Output, error) {
	return benchLine{b: b, pin: pin}, nil
}

func (b *bench) value(pin int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[pin]
}

func (b *bench) log(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, s)
}

func smallConfig(planes int) Config {
	return Config{
		LevelSelect:  []int{10},
		Red:          []int{1},
		Green:        []int{2},
		Blue:         []int{3},
		Clock:        4,
		Latch:        5,
		OutputEnable: 6,
		PWMCycles:    planes,
		LSBDuration:  10 * time.Microsecond,
	}
}

func matrix(t *testing.T, w, h int) geometry.Geometry {
	t.Helper()
	g, err := geometry.Matrix(w, h)
	require.NoError(t, err)
	return g
}

func TestValidate(t *testing.T) {
	linear, err := geometry.Linear(64)
	require.NoError(t, err)

	tests := []struct {
		name    string
		geom    geometry.Geometry
		mutate  func(*Config)
		wantErr error
	}{
		{name: "default 64x32", geom: matrix(t, 64, 32), mutate: func(*Config) {}},
		{name: "linear", geom: linear, mutate: func(*Config) {}, wantErr: ErrGeometry},
		{name: "height not multiple", geom: matrix(t, 64, 24), mutate: func(*Config) {}, wantErr: ErrGeometry},
		{name: "wrong band count", geom: matrix(t, 64, 16), mutate: func(*Config) {}, wantErr: ErrGeometry},
		{name: "uneven rgb", geom: matrix(t, 64, 32), mutate: func(c *Config) { c.Blue = c.Blue[:1] }, wantErr: ErrPins},
		{name: "no rgb", geom: matrix(t, 64, 32), mutate: func(c *Config) { c.Red, c.Green, c.Blue = nil, nil, nil }, wantErr: ErrPins},
		{name: "duplicate pin", geom: matrix(t, 64, 32), mutate: func(c *Config) { c.Latch = c.Clock }, wantErr: ErrPins},
		{name: "too many planes", geom: matrix(t, 64, 32), mutate: func(c *Config) { c.PWMCycles = 9 }, wantErr: ErrPWM},
		{name: "zero lsb", geom: matrix(t, 64, 32), mutate: func(c *Config) { c.LSBDuration = 0 }, wantErr: ErrPWM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(tt.geom)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScanOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LevelSelect = []int{1, 2}
	assert.Equal(t, []int{0, 2, 1, 3}, cfg.scanOrder())

	cfg.LevelSelect = nil
	assert.Equal(t, []int{0}, cfg.scanOrder())
}

func TestNewRejectsBadConfigBeforeRequesting(t *testing.T) {
	requested := false
	req := func(int) (gpio.Output, error) {
		requested = true
		return nil, errors.New("unexpected")
	}
	_, err := New(matrix(t, 4, 3), smallConfig(1), req, Options{})
	assert.ErrorIs(t, err, ErrGeometry)
	assert.False(t, requested)
}

func TestRefreshSequence(t *testing.T) {
	cfg := smallConfig(1)
	b := newBench(cfg)
	p, err := newPanel(matrix(t, 2, 2), cfg, b.request, Options{Wait: func(time.Duration) { b.log("wait") }})
	require.NoError(t, err)

	f := frame.Frame{
		255, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 255,
	}
	require.NoError(t, p.refresh(f))

	b.mu.Lock()
	events := append([]string{}, b.events...)
	b.mu.Unlock()

	var oe, addr string
	clocks, latches, waits := 0, 0, 0
	for _, e := range events {
		switch e {
		case "oe=0", "oe=1":
			oe = e
		case "addr0=0", "addr0=1":
			addr = e
		case "clk=1":
			clocks++
		case "lat=1":
			latches++
			assert.Equal(t, "oe=1", oe, "latch while output enabled")
			assert.Contains(t, []string{"addr0=0", "addr0=1"}, addr)
		case "wait":
			waits++
			assert.Equal(t, "oe=0", oe, "plane shown with output disabled")
		}
	}
	assert.Equal(t, 4, clocks, "two columns for each of two rows")
	assert.Equal(t, 2, latches)
	assert.Equal(t, 2, waits)
	assert.Equal(t, 1, b.value(cfg.OutputEnable), "output disabled after refresh")
	// Row 1 was shown last and has blue set in its second column.
	assert.Equal(t, 1, b.value(cfg.Blue[0]))
	assert.Equal(t, 0, b.value(cfg.Red[0]))
}

func TestBitPlaneDurations(t *testing.T) {
	cfg := smallConfig(3)
	b := newBench(cfg)

	var mu sync.Mutex
	var waits []time.Duration
	wait := func(d time.Duration) {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		time.Sleep(50 * time.Microsecond)
	}
	p, err := New(matrix(t, 1, 2), cfg, b.request, Options{Wait: wait})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(waits) >= 6
	}, time.Second, time.Millisecond)
	require.NoError(t, p.Close())

	mu.Lock()
	defer mu.Unlock()
	lsb := cfg.LSBDuration
	assert.Equal(t, []time.Duration{lsb, 2 * lsb, 4 * lsb, lsb, 2 * lsb, 4 * lsb}, waits[:6])
}

func TestFramesSwapOnlyBetweenRefreshes(t *testing.T) {
	cfg := smallConfig(1)
	b := newBench(cfg)

	// Both rows of a frame are the same color, so the red line seen while
	// a row is lit tells which frame is being shown.
	var mu sync.Mutex
	var seen []int
	wait := func(time.Duration) {
		v := b.value(cfg.Red[0])
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		time.Sleep(20 * time.Microsecond)
	}
	p, err := New(matrix(t, 1, 2), cfg, b.request, Options{Wait: wait})
	require.NoError(t, err)

	white := frame.Frame{255, 255, 255, 255, 255, 255}
	black := frame.Frame{0, 0, 0, 0, 0, 0}
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Write(white))
		require.NoError(t, p.Write(black))
	}
	require.NoError(t, p.Close())

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 2)
	for i := 0; i+1 < len(seen); i += 2 {
		assert.Equal(t, seen[i], seen[i+1], "refresh %d mixes two frames", i/2)
	}
}

func TestCloseBlanksAndReleases(t *testing.T) {
	cfg := smallConfig(2)
	b := newBench(cfg)
	p, err := New(matrix(t, 2, 2), cfg, b.request, Options{Wait: func(time.Duration) { time.Sleep(10 * time.Microsecond) }})
	require.NoError(t, err)

	require.NoError(t, p.Write(frame.Frame{255, 255, 255, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, 1, b.value(cfg.OutputEnable))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, pin := range cfg.pins() {
		assert.True(t, b.closed[pin], "pin %d not released", pin)
	}
}

func TestLineFailureSurfacesOnWrite(t *testing.T) {
	cfg := smallConfig(1)
	b := newBench(cfg)
	b.failAt = 40
	p, err := New(matrix(t, 2, 2), cfg, b.request, Options{Wait: func(time.Duration) {}})
	require.NoError(t, err)

	f := make(frame.Frame, 12)
	var werr error
	require.Eventually(t, func() bool {
		werr = p.Write(f)
		return werr != nil
	}, time.Second, time.Millisecond)

	var ioErr *device.IOError
	assert.ErrorAs(t, werr, &ioErr)
	assert.ErrorIs(t, p.Write(f), werr)

	// Blanking may fail too; the lines are released regardless.
	_ = p.Close()
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.True(t, b.closed[cfg.Clock])
}

func TestRequestFailureReleasesLines(t *testing.T) {
	cfg := smallConfig(1)
	b := newBench(cfg)
	req := func(pin int) (gpio.Output, error) {
		if pin == cfg.Green[0] {
			return nil, errors.New("busy")
		}
		return b.request(pin)
	}
	_, err := New(matrix(t, 2, 2), cfg, req, Options{})
	require.Error(t, err)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.True(t, b.closed[cfg.OutputEnable])
	assert.True(t, b.closed[cfg.Red[0]])
}
