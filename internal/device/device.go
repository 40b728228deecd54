// Package device defines the output side of the pipeline: a Driver accepts
// one frame at a time and pushes it to a physical or emulated display.
package device

import (
	"errors"
	"fmt"

	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Driver is a sink for frames. Write must not retain f after it returns.
type Driver interface {
	Write(f frame.Frame) error
	Close() error
}

// Kind selects a driver implementation.
type Kind string

// Supported driver kinds.
const (
	KindShow   Kind = "show"
	KindRaw    Kind = "raw"
	KindArtNet Kind = "artnet"
	KindHub75  Kind = "hub75"
	KindNRZLED Kind = "nrzled"
	KindWS281x Kind = "ws281x"
)

// ErrFrameSize is returned when a frame does not match the driver geometry.
var ErrFrameSize = errors.New("frame size does not match geometry")

// IOError reports a failure to deliver a frame to a device. It is fatal to
// the run.
type IOError struct {
	Device string
	Op     string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Device, e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO wraps err in an IOError. It returns nil for a nil err and leaves
// errors that already are IOErrors untouched.
func WrapIO(device, op string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Device: device, Op: op, Err: err}
}

// CheckSize verifies that f holds exactly one frame for g.
func CheckSize(g geometry.Geometry, f frame.Frame) error {
	if len(f) != g.FrameSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(f), g.FrameSize())
	}
	return nil
}
