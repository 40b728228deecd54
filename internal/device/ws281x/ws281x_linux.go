//go:build linux && ws281x

package ws281x

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Driver is a device.Driver backed by rpi_ws281x.
type Driver struct {
	geom  geometry.Geometry
	strip *ws2811.WS2811
}

// Open initializes channel 0 of the library for g.Pixels() LEDs.
func Open(g geometry.Geometry, opts Options) (*Driver, error) {
	if opts.Brightness < 0 || opts.Brightness > 255 {
		return nil, fmt.Errorf("brightness must be between 0 and 255, got %d", opts.Brightness)
	}

	cfg := ws2811.DefaultOptions
	cfg.Channels[0].GpioPin = opts.GPIO
	cfg.Channels[0].LedCount = g.Pixels()
	cfg.Channels[0].Brightness = opts.Brightness
	cfg.Channels[0].StripeType = ws2811.WS2811StripGRB

	strip, err := ws2811.MakeWS2811(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create WS2811: %w", err)
	}
	if err := strip.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize WS2811: %w", err)
	}
	return &Driver{geom: g, strip: strip}, nil
}

// Write implements device.Driver.
func (d *Driver) Write(f frame.Frame) error {
	if err := device.CheckSize(d.geom, f); err != nil {
		return err
	}
	leds := d.strip.Leds(0)
	for i := range leds {
		leds[i] = pack(f[i*3], f[i*3+1], f[i*3+2])
	}
	if err := d.strip.Render(); err != nil {
		return device.WrapIO(string(device.KindWS281x), "render", err)
	}
	if err := d.strip.Wait(); err != nil {
		return device.WrapIO(string(device.KindWS281x), "wait", err)
	}
	return nil
}

// Close blanks the strip and releases the DMA channel.
func (d *Driver) Close() error {
	leds := d.strip.Leds(0)
	for i := range leds {
		leds[i] = 0
	}
	err := d.strip.Render()
	d.strip.Fini()
	return device.WrapIO(string(device.KindWS281x), "close", err)
}
