package input

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fkcurrie/ledcat-golang/internal/frame"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Source is one readable input: stdin, a pipe, a named FIFO or a file.
type Source struct {
	name  string
	fd    int
	owned bool
	stdin bool

	asm    *frame.Assembler
	last   time.Time
	closed bool
}

// Open opens path for non-blocking reads. Named FIFOs are opened read-write
// when the exit policy is ExitNever, so the source never observes a hangup
// and writers can come and go.
func Open(path string, policy ExitPolicy) (*Source, error) {
	if path == Stdin || path == "" {
		if err := unix.SetNonblock(0, true); err != nil {
			return nil, fmt.Errorf("failed to set stdin non-blocking: %w", err)
		}
		return &Source{name: "stdin", fd: 0, stdin: true}, nil
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("failed to stat input %s: %w", path, err)
	}

	flags := unix.O_RDONLY | unix.O_NONBLOCK | unix.O_CLOEXEC
	if st.Mode&unix.S_IFMT == unix.S_IFIFO && policy == ExitNever {
		flags = unix.O_RDWR | unix.O_NONBLOCK | unix.O_CLOEXEC
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return &Source{name: path, fd: fd, owned: true}, nil
}

// FromFD wraps an already open descriptor, such as the read end of a pipe.
// The descriptor is switched to non-blocking mode and closed with the source.
func FromFD(name string, fd int) (*Source, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("failed to set %s non-blocking: %w", name, err)
	}
	return &Source{name: name, fd: fd, owned: true}, nil
}

// Name identifies the source in logs.
func (s *Source) Name() string { return s.name }

// Close releases the descriptor. Stdin is put back into blocking mode
// instead of being closed.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.stdin {
		return unix.SetNonblock(0, false)
	}
	if !s.owned {
		return nil
	}
	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("failed to close input %s: %w", s.name, err)
	}
	return nil
}

// fdReader reads from a raw descriptor. Going through os.File would put the
// descriptor back into blocking mode.
type fdReader int

func (fd fdReader) Read(p []byte) (int, error) {
	n, err := unix.Read(int(fd), p)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
