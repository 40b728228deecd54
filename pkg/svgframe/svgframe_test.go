package svgframe

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

const halfRed = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 4 2">
  <rect x="0" y="0" width="2" height="2" fill="#ff0000"/>
</svg>`

func TestRenderMatrix(t *testing.T) {
	g, err := geometry.Matrix(4, 2)
	require.NoError(t, err)

	f, err := Render(strings.NewReader(halfRed), g, Options{})
	require.NoError(t, err)
	require.Len(t, f, g.FrameSize())

	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			i := (y*4 + x) * 3
			want := []byte{0, 0, 0}
			if x < 2 {
				want = []byte{255, 0, 0}
			}
			assertPixel(t, want, f[i:i+3])
		}
	}
}

func TestRenderBackground(t *testing.T) {
	g, err := geometry.Linear(4)
	require.NoError(t, err)

	f, err := Render(strings.NewReader(halfRed), g, Options{Background: color.RGBA{0, 0, 255, 255}})
	require.NoError(t, err)
	require.Len(t, f, 12)
	assertPixel(t, []byte{0, 0, 255}, f[9:12])
}

// assertPixel allows for antialiasing on shape edges.
func assertPixel(t *testing.T, want, got []byte) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 2, "channel %d of %v", i, got)
	}
}

func TestRenderInvalid(t *testing.T) {
	g, err := geometry.Linear(4)
	require.NoError(t, err)

	_, err = Render(strings.NewReader("<svg"), g, Options{})
	assert.Error(t, err)
}
