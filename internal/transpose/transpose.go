// Package transpose remaps pixel order between the logical frame layout and
// the physical wiring of a display.
//
// A Table maps each output pixel position to the input pixel it is taken
// from. Operations are composed once at build time, so applying a table costs
// one lookup per pixel regardless of how many operations were requested.
package transpose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Op names a single remapping operation.
type Op string

// Supported operations.
const (
	Reverse Op = "reverse"
	ZigzagX Op = "zigzag_x"
	ZigzagY Op = "zigzag_y"
	MirrorX Op = "mirror_x"
	MirrorY Op = "mirror_y"
)

var (
	// ErrUnknownOp is returned for operation names that are not recognized.
	ErrUnknownOp = errors.New("unknown transposition")
	// ErrRequires2D is returned when a matrix-only operation is used with a linear geometry.
	ErrRequires2D = errors.New("transposition requires a 2D geometry")
)

// Ops lists every supported operation.
func Ops() []Op {
	return []Op{Reverse, ZigzagX, ZigzagY, MirrorX, MirrorY}
}

// ParseOps converts names to operations. Names may also be given as a
// single comma separated list.
func ParseOps(names []string) ([]Op, error) {
	var ops []Op
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			op := Op(part)
			if !op.valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownOp, part)
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func (op Op) valid() bool {
	for _, o := range Ops() {
		if op == o {
			return true
		}
	}
	return false
}

func (op Op) needs2D() bool {
	return op != Reverse
}

// index maps an output pixel index to an input pixel index for a single op.
func (op Op) index(g geometry.Geometry, i int) int {
	if op == Reverse {
		return g.Pixels() - 1 - i
	}
	w, h, _ := g.Dimensions()
	x, y := i%w, i/w
	switch op {
	case ZigzagX:
		if y%2 == 1 {
			x = w - 1 - x
		}
	case ZigzagY:
		if x%2 == 1 {
			y = h - 1 - y
		}
	case MirrorX:
		x = w - 1 - x
	case MirrorY:
		y = h - 1 - y
	}
	return y*w + x
}

// Table is a composed output-to-input pixel mapping.
type Table struct {
	index []int
}

// Build validates ops against g and composes them left to right:
// for ops [f1, f2] output pixel o is taken from input f1(f2(o)).
func Build(g geometry.Geometry, ops ...Op) (*Table, error) {
	for _, op := range ops {
		if !op.valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOp, string(op))
		}
		if op.needs2D() && !g.Is2D() {
			return nil, fmt.Errorf("%w: %s on geometry %s", ErrRequires2D, op, g)
		}
	}

	t := &Table{index: make([]int, g.Pixels())}
	for o := range t.index {
		i := o
		for k := len(ops) - 1; k >= 0; k-- {
			i = ops[k].index(g, i)
		}
		t.index[o] = i
	}
	return t, nil
}

// Len returns the number of pixels the table maps.
func (t *Table) Len() int { return len(t.index) }

// Identity reports whether the table leaves pixel order unchanged.
func (t *Table) Identity() bool {
	for o, i := range t.index {
		if o != i {
			return false
		}
	}
	return true
}

// Apply writes src remapped into dst. Both must hold Len()*3 bytes.
func (t *Table) Apply(dst, src []byte) {
	for o, i := range t.index {
		copy(dst[o*3:o*3+3], src[i*3:i*3+3])
	}
}
