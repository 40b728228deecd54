package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// SysfsRoot is the sysfs GPIO class directory.
var SysfsRoot = "/sys/class/gpio"

// exportWait bounds how long NewPin waits for udev to create the pin directory.
var exportWait = time.Second

// Pin represents a GPIO pin using the sysfs interface
type Pin struct {
	number int
	mu     sync.Mutex
	value  *os.File
}

// NewPin exports the pin, configures it as an output driven low and keeps
// its value file open for fast writes.
func NewPin(number int) (*Pin, error) {
	if err := writeFile(filepath.Join(SysfsRoot, "export"), strconv.Itoa(number)); err != nil {
		// An already exported pin reports EBUSY.
		if !errors.Is(err, syscall.EBUSY) {
			return nil, fmt.Errorf("failed to export pin %d: %w", number, err)
		}
	}

	dir := filepath.Join(SysfsRoot, fmt.Sprintf("gpio%d", number))
	if err := waitFor(filepath.Join(dir, "direction")); err != nil {
		return nil, fmt.Errorf("pin %d was not exported: %w", number, err)
	}
	// "low" sets direction and initial value in one step.
	if err := writeFile(filepath.Join(dir, "direction"), "low"); err != nil {
		return nil, fmt.Errorf("failed to set pin %d direction: %w", number, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "value"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open pin %d value: %w", number, err)
	}
	return &Pin{number: number, value: f}, nil
}

// SetValue sets the value of the GPIO pin (0 or 1)
func (p *Pin) SetValue(value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := []byte{'0'}
	if value != 0 {
		b[0] = '1'
	}
	if _, err := p.value.WriteAt(b, 0); err != nil {
		return fmt.Errorf("failed to write pin %d: %w", p.number, err)
	}
	return nil
}

// Close closes the value file and unexports the pin.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.value.Close()
	if uerr := writeFile(filepath.Join(SysfsRoot, "unexport"), strconv.Itoa(p.number)); uerr != nil && err == nil {
		err = fmt.Errorf("failed to unexport pin %d: %w", p.number, uerr)
	}
	return err
}

func writeFile(path, s string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(s)
	return err
}

func waitFor(path string) error {
	deadline := time.Now().Add(exportWait)
	for {
		_, err := os.Stat(path)
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}
