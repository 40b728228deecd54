package gpio

// Buffered remembers the last value written to a line and skips writes
// that would not change it.
type Buffered struct {
	out   Output
	value int
	known bool
}

// NewBuffered wraps out. The first SetValue is always forwarded.
func NewBuffered(out Output) *Buffered {
	return &Buffered{out: out}
}

// SetValue forwards value unless the line already holds it.
func (b *Buffered) SetValue(value int) error {
	if value != 0 {
		value = 1
	}
	if b.known && b.value == value {
		return nil
	}
	if err := b.out.SetValue(value); err != nil {
		b.known = false
		return err
	}
	b.value = value
	b.known = true
	return nil
}

// Close closes the underlying line.
func (b *Buffered) Close() error {
	return b.out.Close()
}
