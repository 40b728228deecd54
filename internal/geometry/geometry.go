// Package geometry describes the shape of a pixel display.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// EnvVar names the environment variable consulted when no geometry is given.
const EnvVar = "LEDCAT_GEOMETRY"

// ErrInvalid is returned for malformed or non-positive geometries.
var ErrInvalid = errors.New("invalid geometry")

// maxPixels keeps the frame size in bytes representable as an int.
const maxPixels = math.MaxInt / 3

// Geometry is the immutable shape of a display: a pixel count and,
// for matrices, a width and height.
type Geometry struct {
	pixels int
	width  int
	height int
}

// Linear returns a one-dimensional geometry of n pixels.
func Linear(n int) (Geometry, error) {
	if n <= 0 || n > maxPixels {
		return Geometry{}, fmt.Errorf("%w: pixel count %d", ErrInvalid, n)
	}
	return Geometry{pixels: n}, nil
}

// Matrix returns a two-dimensional geometry of w columns and h rows.
func Matrix(w, h int) (Geometry, error) {
	if w <= 0 || h <= 0 {
		return Geometry{}, fmt.Errorf("%w: dimensions %dx%d", ErrInvalid, w, h)
	}
	if w > maxPixels/h {
		return Geometry{}, fmt.Errorf("%w: %dx%d pixels do not fit in memory", ErrInvalid, w, h)
	}
	return Geometry{pixels: w * h, width: w, height: h}, nil
}

// Parse reads "N" or "WxH".
func Parse(s string) (Geometry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Geometry{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if ws, hs, ok := strings.Cut(s, "x"); ok {
		w, err := strconv.Atoi(ws)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: width %q", ErrInvalid, ws)
		}
		h, err := strconv.Atoi(hs)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: height %q", ErrInvalid, hs)
		}
		return Matrix(w, h)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Linear(n)
}

// Resolve parses s, falling back to $LEDCAT_GEOMETRY when s is empty.
func Resolve(s string) (Geometry, error) {
	if s == "" {
		s = os.Getenv(EnvVar)
	}
	if s == "" {
		return Geometry{}, fmt.Errorf("%w: no geometry given and $%s is unset", ErrInvalid, EnvVar)
	}
	return Parse(s)
}

// Pixels returns the number of pixels.
func (g Geometry) Pixels() int { return g.pixels }

// FrameSize returns the number of bytes in one RGB frame.
func (g Geometry) FrameSize() int { return g.pixels * 3 }

// Is2D reports whether the geometry has width and height.
func (g Geometry) Is2D() bool { return g.width > 0 }

// Dimensions returns width and height. ok is false for linear geometries.
func (g Geometry) Dimensions() (w, h int, ok bool) {
	return g.width, g.height, g.Is2D()
}

// Width returns the number of columns, or the pixel count for linear geometries.
func (g Geometry) Width() int {
	if g.Is2D() {
		return g.width
	}
	return g.pixels
}

// Height returns the number of rows, 1 for linear geometries.
func (g Geometry) Height() int {
	if g.Is2D() {
		return g.height
	}
	return 1
}

func (g Geometry) String() string {
	if g.Is2D() {
		return fmt.Sprintf("%dx%d", g.width, g.height)
	}
	return strconv.Itoa(g.pixels)
}
