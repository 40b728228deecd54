// Package ws281x drives WS281x strips through the rpi_ws281x C library,
// which generates the signal with the Raspberry Pi PWM or PCM peripheral.
//
// The library is only linked when building with the ws281x tag on Linux.
package ws281x

import "errors"

// ErrUnsupported is returned by Open in builds without rpi_ws281x.
var ErrUnsupported = errors.New("ws281x support not compiled in (build with -tags ws281x on linux)")

// Options configures the strip.
type Options struct {
	// GPIO is the BCM pin number of the data line.
	GPIO int
	// Brightness scales every channel, 0..255.
	Brightness int
}

// DefaultOptions matches a strip on BCM 18 at full brightness.
func DefaultOptions() Options {
	return Options{GPIO: 18, Brightness: 255}
}

func pack(r, g, b byte) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
