// Package terminal renders frames as truecolor text so a display can be
// previewed without hardware.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

const (
	clearScreen = "\x1b[3J\x1b[H\x1b[2J"
	cursorHome  = "\x1b[1;1H"
	resetAttrs  = "\x1b[0m"

	upperHalf = "▀"
	fullBlock = "█"
)

// Display draws every frame over the previous one. Matrices use one text
// cell per two rows: the foreground paints the upper pixel and the
// background the lower one. Strips are drawn as a single line.
type Display struct {
	geom    geometry.Geometry
	w       io.Writer
	r       *lipgloss.Renderer
	cleared bool
	sb      strings.Builder
}

// New returns a Display writing to w with a truecolor profile.
func New(g geometry.Geometry, w io.Writer) *Display {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)
	return &Display{geom: g, w: w, r: r}
}

// Write implements device.Driver.
func (d *Display) Write(f frame.Frame) error {
	if err := device.CheckSize(d.geom, f); err != nil {
		return err
	}

	d.sb.Reset()
	if !d.cleared {
		d.sb.WriteString(clearScreen)
		d.cleared = true
	}
	d.sb.WriteString(cursorHome)

	if d.geom.Is2D() {
		d.matrix(f)
	} else {
		d.strip(f)
	}

	if _, err := io.WriteString(d.w, d.sb.String()); err != nil {
		return device.WrapIO(string(device.KindShow), "write", err)
	}
	return nil
}

func (d *Display) matrix(f frame.Frame) {
	w, h, _ := d.geom.Dimensions()
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			style := d.r.NewStyle().Foreground(color(f, y*w+x))
			if y+1 < h {
				style = style.Background(color(f, (y+1)*w+x))
			}
			d.sb.WriteString(style.Render(upperHalf))
		}
		d.sb.WriteString("\n")
	}
}

func (d *Display) strip(f frame.Frame) {
	for i := 0; i < d.geom.Pixels(); i++ {
		d.sb.WriteString(d.r.NewStyle().Foreground(color(f, i)).Render(fullBlock))
	}
	d.sb.WriteString("\n")
}

// Close implements device.Driver.
func (d *Display) Close() error {
	if !d.cleared {
		return nil
	}
	_, err := io.WriteString(d.w, resetAttrs)
	return device.WrapIO(string(device.KindShow), "close", err)
}

func color(f frame.Frame, pixel int) lipgloss.Color {
	p := f[pixel*3 : pixel*3+3]
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", p[0], p[1], p[2]))
}
