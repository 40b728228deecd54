// Package config holds the run configuration. Values come from an optional
// YAML file and are overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/internal/input"
	"github.com/fkcurrie/ledcat-golang/internal/transpose"
	"github.com/fkcurrie/ledcat-golang/pkg/gpio"
	"github.com/fkcurrie/ledcat-golang/pkg/hub75"
)

// DefaultClearTimeout applies when neither a clear timeout nor a frame rate
// is configured.
const DefaultClearTimeout = 100 * time.Millisecond

// Error marks a configuration problem detected before anything is opened.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &Error{Field: field, Err: err}
}

// Raw configures the raw driver.
type Raw struct {
	// Output is a file path, - selects stdout.
	Output string `yaml:"output"`
}

// ArtNet configures the Art-Net driver.
type ArtNet struct {
	Targets    []string `yaml:"targets"`
	TargetList string   `yaml:"target_list"`
	Broadcast  bool     `yaml:"broadcast"`
	Universe   int      `yaml:"universe"`
}

// Hub75 holds the panel wiring as BCM pin numbers and the refresh timing.
type Hub75 struct {
	LevelSelect  []int `yaml:"level_select"`
	Red          []int `yaml:"red"`
	Green        []int `yaml:"green"`
	Blue         []int `yaml:"blue"`
	Clock        int   `yaml:"clock"`
	Latch        int   `yaml:"latch"`
	OutputEnable int   `yaml:"output_enable"`
	PWM          int   `yaml:"pwm"`

	// LSB is the on-time of the least significant bit-plane, e.g. 50us.
	LSB time.Duration `yaml:"lsb"`

	// GPIOBackend is cdev or sysfs. Chip only applies to cdev.
	GPIOBackend string `yaml:"gpio_backend"`
	Chip        string `yaml:"chip"`
}

// NRZLED configures the SPI driven strip. An empty SPI selects the first bus.
type NRZLED struct {
	SPI string `yaml:"spi"`
	Hz  int64  `yaml:"hz"`
}

// WS281x configures the rpi_ws281x driver.
type WS281x struct {
	GPIO       int `yaml:"gpio"`
	Brightness int `yaml:"brightness"`
}

// Config is the complete run configuration shared by every driver, plus one
// section per driver.
type Config struct {
	Geometry string   `yaml:"geometry"`
	Inputs   []string `yaml:"inputs"`

	// Exit is first, all or never. Empty picks by input count.
	Exit   string `yaml:"exit"`
	Linger bool   `yaml:"linger"`

	FrameRate float64 `yaml:"framerate"`

	// ClearTimeoutMs is nil when not configured.
	ClearTimeoutMs *int `yaml:"clear_timeout_ms,omitempty"`

	Transpose []string `yaml:"transpose"`
	One       bool     `yaml:"one"`
	Verbose   bool     `yaml:"verbose"`

	Raw    Raw    `yaml:"raw"`
	ArtNet ArtNet `yaml:"artnet"`
	Hub75  Hub75  `yaml:"hub75"`
	NRZLED NRZLED `yaml:"nrzled"`
	WS281x WS281x `yaml:"ws281x"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	h := hub75.DefaultConfig()
	return &Config{
		Raw: Raw{Output: "-"},
		Hub75: Hub75{
			LevelSelect:  h.LevelSelect,
			Red:          h.Red,
			Green:        h.Green,
			Blue:         h.Blue,
			Clock:        h.Clock,
			Latch:        h.Latch,
			OutputEnable: h.OutputEnable,
			PWM:          h.PWMCycles,
			LSB:          h.LSBDuration,
			GPIOBackend:  string(gpio.BackendCdev),
			Chip:         gpio.DefaultChip,
		},
		NRZLED: NRZLED{Hz: 800000},
		WS281x: WS281x{GPIO: 18, Brightness: 255},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, invalid(path, err)
	}
	return c, nil
}

// Validate checks the fields that do not depend on the selected driver.
func (c *Config) Validate() error {
	if c.FrameRate < 0 {
		return invalid("framerate", fmt.Errorf("must not be negative, got %g", c.FrameRate))
	}
	if c.ClearTimeoutMs != nil && *c.ClearTimeoutMs < 0 {
		return invalid("clear_timeout_ms", fmt.Errorf("must not be negative, got %d", *c.ClearTimeoutMs))
	}
	if _, err := c.ExitPolicy(); err != nil {
		return err
	}
	if c.ArtNet.Universe < 0 || c.ArtNet.Universe > 0x7fff {
		return invalid("artnet.universe", fmt.Errorf("must be within 0..32767, got %d", c.ArtNet.Universe))
	}
	if c.WS281x.Brightness < 0 || c.WS281x.Brightness > 255 {
		return invalid("ws281x.brightness", fmt.Errorf("must be within 0..255, got %d", c.WS281x.Brightness))
	}
	return nil
}

// ResolveGeometry parses the geometry, falling back to LEDCAT_GEOMETRY.
func (c *Config) ResolveGeometry() (geometry.Geometry, error) {
	g, err := geometry.Resolve(c.Geometry)
	if err != nil {
		return geometry.Geometry{}, invalid("geometry", err)
	}
	return g, nil
}

// ExitPolicy returns the configured policy. Linger forces ExitNever. Without
// an explicit policy a run with a single input ends when it closes and a
// run with several inputs ends when all of them closed.
func (c *Config) ExitPolicy() (input.ExitPolicy, error) {
	if c.Linger {
		return input.ExitNever, nil
	}
	if c.Exit != "" {
		p, err := input.ParseExitPolicy(c.Exit)
		if err != nil {
			return 0, invalid("exit", err)
		}
		return p, nil
	}
	if len(c.Inputs) <= 1 {
		return input.ExitOnFirst, nil
	}
	return input.ExitOnAll, nil
}

// ClearTimeout returns the idle time after which partial frames are dropped.
// An explicit value wins, then twice the frame interval, then
// DefaultClearTimeout.
func (c *Config) ClearTimeout() time.Duration {
	switch {
	case c.ClearTimeoutMs != nil:
		return time.Duration(*c.ClearTimeoutMs) * time.Millisecond
	case c.FrameRate > 0:
		return 2 * time.Duration(float64(time.Second)/c.FrameRate)
	default:
		return DefaultClearTimeout
	}
}

// Transposition builds the transposition table for g.
func (c *Config) Transposition(g geometry.Geometry) (*transpose.Table, error) {
	ops, err := transpose.ParseOps(c.Transpose)
	if err != nil {
		return nil, invalid("transpose", err)
	}
	t, err := transpose.Build(g, ops...)
	if err != nil {
		return nil, invalid("transpose", err)
	}
	return t, nil
}

// Hub75Config converts the hub75 section and validates it against g.
func (c *Config) Hub75Config(g geometry.Geometry) (hub75.Config, error) {
	h := hub75.Config{
		LevelSelect:  c.Hub75.LevelSelect,
		Red:          c.Hub75.Red,
		Green:        c.Hub75.Green,
		Blue:         c.Hub75.Blue,
		Clock:        c.Hub75.Clock,
		Latch:        c.Hub75.Latch,
		OutputEnable: c.Hub75.OutputEnable,
		PWMCycles:    c.Hub75.PWM,
		LSBDuration:  c.Hub75.LSB,
	}
	if err := h.Validate(g); err != nil {
		return hub75.Config{}, invalid("hub75", err)
	}
	return h, nil
}

// IsConfigError reports whether err was caused by invalid configuration.
func IsConfigError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
