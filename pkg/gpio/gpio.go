// Package gpio provides output lines for bit-banged display protocols.
//
// Two backends are supported: the GPIO character device through go-gpiocdev
// and the legacy sysfs interface.
package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Output is a single GPIO line driven as an output.
type Output interface {
	SetValue(value int) error
	Close() error
}

// Backend selects how lines are requested.
type Backend string

const (
	// BackendCdev uses /dev/gpiochipN.
	BackendCdev Backend = "cdev"
	// BackendSysfs uses /sys/class/gpio.
	BackendSysfs Backend = "sysfs"
)

// DefaultChip is the GPIO chip of the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// Requester returns an output line for a pin offset.
type Requester func(offset int) (Output, error)

// NewRequester returns a Requester for backend. chip is only used by the
// cdev backend.
func NewRequester(backend Backend, chip string) (Requester, error) {
	switch backend {
	case BackendCdev, "":
		if chip == "" {
			chip = DefaultChip
		}
		return func(offset int) (Output, error) {
			line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
			if err != nil {
				return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
			}
			return line, nil
		}, nil
	case BackendSysfs:
		return func(offset int) (Output, error) {
			return NewPin(offset)
		}, nil
	}
	return nil, fmt.Errorf("unknown GPIO backend %q", backend)
}
