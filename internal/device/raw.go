package device

import (
	"fmt"
	"io"
	"os"

	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Raw writes frames unchanged to a file or stream, for devices that accept
// the RGB byte stream directly (character devices, serial bridges, pipes).
type Raw struct {
	geom geometry.Geometry
	w    io.Writer
	c    io.Closer
}

// NewRaw writes frames to w. w is not closed by Close.
func NewRaw(g geometry.Geometry, w io.Writer) *Raw {
	return &Raw{geom: g, w: w}
}

// OpenRaw opens path for writing. "-" selects standard output.
func OpenRaw(g geometry.Geometry, path string) (*Raw, error) {
	if path == "-" || path == "" {
		return NewRaw(g, os.Stdout), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return &Raw{geom: g, w: f, c: f}, nil
}

// Write implements Driver.
func (r *Raw) Write(f frame.Frame) error {
	if err := CheckSize(r.geom, f); err != nil {
		return err
	}
	if _, err := r.w.Write(f); err != nil {
		return WrapIO(string(KindRaw), "write", err)
	}
	return nil
}

// Close implements Driver.
func (r *Raw) Close() error {
	if r.c == nil {
		return nil
	}
	return WrapIO(string(KindRaw), "close", r.c.Close())
}
