// Package frame assembles fixed-size RGB frames from a byte stream.
package frame

import (
	"errors"
	"io"
)

// ErrTruncated reports a stream that ended in the middle of a frame.
var ErrTruncated = errors.New("truncated frame at end of stream")

// Frame is one complete RGB frame, three bytes per pixel.
type Frame []byte

// Assembler accumulates bytes from one source and cuts them into frames of
// a fixed size. It never hands out a short frame.
type Assembler struct {
	size int
	buf  []byte
}

// NewAssembler returns an assembler for frames of size bytes. The carry
// buffer is allocated once and holds up to two frames.
func NewAssembler(size int) *Assembler {
	return &Assembler{
		size: size,
		buf:  make([]byte, 0, 2*size),
	}
}

// Ready reports whether a complete frame is buffered.
func (a *Assembler) Ready() bool { return len(a.buf) >= a.size }

// Partial returns the number of buffered bytes that do not yet form a frame.
func (a *Assembler) Partial() int { return len(a.buf) % a.size }

// Fill performs a single read from r into the free part of the buffer.
// It does nothing once a complete frame is buffered, so a source that is
// ahead of the consumer is not drained further.
func (a *Assembler) Fill(r io.Reader) (int, error) {
	if a.Ready() {
		return 0, nil
	}
	free := a.buf[len(a.buf):cap(a.buf)]
	n, err := r.Read(free)
	if n > 0 {
		a.buf = a.buf[:len(a.buf)+n]
	}
	return n, err
}

// Next copies the oldest complete frame into dst and keeps any remaining
// bytes in order. It returns false when no complete frame is buffered.
func (a *Assembler) Next(dst Frame) bool {
	if !a.Ready() {
		return false
	}
	copy(dst, a.buf[:a.size])
	n := copy(a.buf, a.buf[a.size:])
	a.buf = a.buf[:n]
	return true
}

// DiscardPartial drops the bytes of an incomplete trailing frame and
// returns how many were dropped. Complete frames stay buffered.
func (a *Assembler) DiscardPartial() int {
	p := a.Partial()
	a.buf = a.buf[:len(a.buf)-p]
	return p
}

// Finish is called when the source reached end of stream. A partial
// trailing frame is discarded and reported as ErrTruncated.
func (a *Assembler) Finish() error {
	if a.DiscardPartial() > 0 {
		return ErrTruncated
	}
	return nil
}
