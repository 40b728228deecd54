package hub75

import (
	"errors"
	"fmt"
	"time"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

var (
	// ErrGeometry is returned when the panel shape does not match the pins.
	ErrGeometry = errors.New("hub75: geometry does not match pin configuration")
	// ErrPins is returned for an incomplete or inconsistent pin set.
	ErrPins = errors.New("hub75: invalid pin configuration")
	// ErrPWM is returned for an unsupported number of bit-planes.
	ErrPWM = errors.New("hub75: invalid pwm configuration")
)

// Config describes how a HUB75 panel is wired and modulated.
type Config struct {
	// LevelSelect are the row address pins, A first.
	LevelSelect []int
	// Red, Green and Blue hold one pin per simultaneously driven band
	// (R1, R2, ...). All three must have the same length.
	Red   []int
	Green []int
	Blue  []int

	Clock        int
	Latch        int
	OutputEnable int

	// PWMCycles is the number of bit-planes shown per refresh. Plane k
	// shows color bit 8-PWMCycles+k.
	PWMCycles int
	// LSBDuration is the on-time of the least significant plane. Plane k
	// is lit for LSBDuration << k.
	LSBDuration time.Duration
}

// DefaultConfig returns the pinout of the Adafruit RGB Matrix Bonnet for a
// 32 row panel.
func DefaultConfig() Config {
	return Config{
		LevelSelect:  []int{22, 26, 27, 20},
		Red:          []int{5, 12},
		Green:        []int{13, 16},
		Blue:         []int{6, 23},
		Clock:        17,
		Latch:        21,
		OutputEnable: 4,
		PWMCycles:    3,
		LSBDuration:  50 * time.Microsecond,
	}
}

// ScanRows returns the number of row addresses, 2^len(LevelSelect).
func (c Config) ScanRows() int {
	return 1 << len(c.LevelSelect)
}

// Validate checks c against the display geometry.
func (c Config) Validate(g geometry.Geometry) error {
	if !g.Is2D() {
		return fmt.Errorf("%w: a WxH geometry is required, got %s", ErrGeometry, g)
	}
	if len(c.Red) == 0 || len(c.Red) != len(c.Green) || len(c.Red) != len(c.Blue) {
		return fmt.Errorf("%w: red, green and blue need the same non-zero number of pins (%d, %d, %d)",
			ErrPins, len(c.Red), len(c.Green), len(c.Blue))
	}
	if c.PWMCycles < 1 || c.PWMCycles > 8 {
		return fmt.Errorf("%w: pwm cycles must be within 1..8, got %d", ErrPWM, c.PWMCycles)
	}
	if c.LSBDuration <= 0 {
		return fmt.Errorf("%w: lsb duration must be positive", ErrPWM)
	}

	_, h, _ := g.Dimensions()
	rows := c.ScanRows()
	if h%rows != 0 {
		return fmt.Errorf("%w: height %d is not a multiple of 2^%d", ErrGeometry, h, len(c.LevelSelect))
	}
	if h/rows != len(c.Red) {
		return fmt.Errorf("%w: height %d needs %d rgb pin groups, got %d", ErrGeometry, h, h/rows, len(c.Red))
	}

	seen := make(map[int]bool)
	for _, p := range c.pins() {
		if p < 0 {
			return fmt.Errorf("%w: negative pin %d", ErrPins, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: pin %d used twice", ErrPins, p)
		}
		seen[p] = true
	}
	return nil
}

func (c Config) pins() []int {
	pins := append([]int{}, c.LevelSelect...)
	pins = append(pins, c.Red...)
	pins = append(pins, c.Green...)
	pins = append(pins, c.Blue...)
	return append(pins, c.Clock, c.Latch, c.OutputEnable)
}

// scanOrder interleaves row addresses so that neighbouring rows are not
// lit back to back.
func (c Config) scanOrder() []int {
	n := len(c.LevelSelect)
	rows := c.ScanRows()
	order := make([]int, rows)
	if n == 0 {
		return order
	}
	for i := range order {
		order[i] = ((i << 1) | (i >> (n - 1))) & (rows - 1)
	}
	return order
}
