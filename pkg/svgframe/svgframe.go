// Package svgframe rasterizes SVG documents into RGB frames, so that static
// artwork can be fed to ledcat like any other frame source.
package svgframe

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

// Options controls rendering.
type Options struct {
	// Background is composited under transparent areas. Defaults to black.
	Background color.Color
	// Strict fails on SVG elements the rasterizer does not support instead
	// of skipping them.
	Strict bool
}

// Render draws the SVG read from r scaled to g. A linear geometry is
// treated as a single row of pixels.
func Render(r io.Reader, g geometry.Geometry, opts Options) (frame.Frame, error) {
	mode := oksvg.IgnoreErrorMode
	if opts.Strict {
		mode = oksvg.StrictErrorMode
	}
	icon, err := oksvg.ReadIconStream(r, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}

	w, h := g.Width(), g.Height()
	icon.SetTarget(0, 0, float64(w), float64(h))

	bg := opts.Background
	if bg == nil {
		bg = color.Black
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return fromImage(img), nil
}

// fromImage packs an image row by row into RGB triplets.
func fromImage(img *image.RGBA) frame.Frame {
	b := img.Bounds()
	f := make(frame.Frame, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			f = append(f, c.R, c.G, c.B)
		}
	}
	return f
}
