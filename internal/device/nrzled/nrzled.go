// Package nrzled drives WS2812-style LED strips through an SPI port using
// periph.io's NRZ encoder.
package nrzled

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// DefaultFreq is the NRZ bit rate of WS2812B strips.
const DefaultFreq = 800 * physic.KiloHertz

// Driver is a device.Driver writing to an nrzled strip.
type Driver struct {
	geom geometry.Geometry
	dev  *nrzled.Dev
	port io.Closer
}

// Open initializes the host drivers and opens the named SPI port. An empty
// name selects the first available port.
func Open(g geometry.Geometry, port string, freq physic.Frequency) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", port, err)
	}
	d, err := New(g, p, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

// New wraps an SPI port the caller keeps ownership of.
func New(g geometry.Geometry, p spi.Port, freq physic.Frequency) (*Driver, error) {
	if freq == 0 {
		freq = DefaultFreq
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: g.Pixels(),
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nrzled device: %w", err)
	}
	return &Driver{geom: g, dev: dev}, nil
}

func (d *Driver) String() string { return d.dev.String() }

// Write implements device.Driver.
func (d *Driver) Write(f frame.Frame) error {
	if err := device.CheckSize(d.geom, f); err != nil {
		return err
	}
	if _, err := d.dev.Write(f); err != nil {
		return device.WrapIO(string(device.KindNRZLED), "write", err)
	}
	return nil
}

// Close blanks the strip and releases the port if it was opened by Open.
func (d *Driver) Close() error {
	if err := d.dev.Halt(); err != nil {
		return device.WrapIO(string(device.KindNRZLED), "halt", err)
	}
	if d.port != nil {
		return device.WrapIO(string(device.KindNRZLED), "close", d.port.Close())
	}
	return nil
}
