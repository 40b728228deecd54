//go:build !(linux && ws281x)

package ws281x

import (
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Driver is unavailable in this build.
type Driver struct{}

// Open always fails with ErrUnsupported.
func Open(g geometry.Geometry, opts Options) (*Driver, error) {
	return nil, ErrUnsupported
}

func (d *Driver) Write(f frame.Frame) error { return ErrUnsupported }
func (d *Driver) Close() error              { return nil }
