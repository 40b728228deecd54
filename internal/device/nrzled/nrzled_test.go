package nrzled

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

func TestWriteEncodesFrame(t *testing.T) {
	g, err := geometry.Linear(4)
	require.NoError(t, err)

	var buf bytes.Buffer
	d, err := New(g, spitest.NewRecordRaw(&buf), 2500*physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	f := make(frame.Frame, g.FrameSize())
	for i := range f {
		f[i] = 0xff
	}
	require.NoError(t, d.Write(f))
	assert.Greater(t, buf.Len(), len(f), "NRZ encoding expands every byte")

	require.NoError(t, d.Close())
}

func TestWriteWrongSize(t *testing.T) {
	g, err := geometry.Linear(4)
	require.NoError(t, err)

	var buf bytes.Buffer
	d, err := New(g, spitest.NewRecordRaw(&buf), 0)
	require.NoError(t, err)

	assert.ErrorIs(t, d.Write(frame.Frame{1, 2, 3}), device.ErrFrameSize)
	assert.Zero(t, buf.Len())
}
