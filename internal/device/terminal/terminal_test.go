package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

func TestMatrixUsesHalfBlocks(t *testing.T) {
	g, err := geometry.Matrix(2, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	d := New(g, &buf)
	f := frame.Frame{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	}
	require.NoError(t, d.Write(f))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, clearScreen+cursorHome))
	assert.Equal(t, 2, strings.Count(out, upperHalf))
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "38;2;255;0;0")
	assert.Contains(t, out, "48;2;0;0;255")
}

func TestScreenClearedOnce(t *testing.T) {
	g, err := geometry.Matrix(1, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	d := New(g, &buf)
	f := make(frame.Frame, g.FrameSize())
	require.NoError(t, d.Write(f))
	require.NoError(t, d.Write(f))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, clearScreen))
	assert.Equal(t, 2, strings.Count(out, cursorHome))
	// Odd heights still get a line for the last row.
	assert.Equal(t, 4, strings.Count(out, "\n"))

	require.NoError(t, d.Close())
	assert.True(t, strings.HasSuffix(buf.String(), resetAttrs))
}

func TestStrip(t *testing.T) {
	g, err := geometry.Linear(3)
	require.NoError(t, err)

	var buf bytes.Buffer
	d := New(g, &buf)
	require.NoError(t, d.Write(frame.Frame{1, 2, 3, 4, 5, 6, 7, 8, 9}))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, fullBlock))
	assert.Contains(t, out, "38;2;7;8;9")
}

func TestWrongSize(t *testing.T) {
	g, err := geometry.Linear(3)
	require.NoError(t, err)

	err = New(g, &bytes.Buffer{}).Write(frame.Frame{1})
	assert.ErrorIs(t, err, device.ErrFrameSize)
}
