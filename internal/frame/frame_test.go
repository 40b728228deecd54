package frame

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

// feed hands p to the assembler in a single read.
func feed(t *testing.T, a *Assembler, p []byte) {
	t.Helper()
	n, err := a.Fill(bytes.NewReader(p))
	require.NoError(t, err)
	require.Equal(t, len(p), n)
}

func TestAssemblerNeedsWholeFrame(t *testing.T) {
	const pixels = 30
	a := NewAssembler(pixels * 3)
	dst := make(Frame, pixels*3)

	feed(t, a, seq(29*3, 0))
	assert.False(t, a.Ready())
	assert.False(t, a.Next(dst))
	assert.Equal(t, 87, a.Partial())

	feed(t, a, seq(3, 87))
	require.True(t, a.Next(dst))
	assert.Equal(t, Frame(seq(90, 0)), dst)
	assert.Empty(t, a.buf)
}

func TestAssemblerKeepsRemainder(t *testing.T) {
	a := NewAssembler(6)
	dst := make(Frame, 6)

	feed(t, a, seq(10, 1))
	require.True(t, a.Next(dst))
	assert.Equal(t, Frame{1, 2, 3, 4, 5, 6}, dst)
	assert.Len(t, a.buf, 4)

	feed(t, a, []byte{11, 12})
	require.True(t, a.Next(dst))
	assert.Equal(t, Frame{7, 8, 9, 10, 11, 12}, dst)
}

func TestAssemblerFill(t *testing.T) {
	a := NewAssembler(6)
	r := iotest.OneByteReader(bytes.NewReader(seq(14, 0)))

	for i := 0; i < 6; i++ {
		n, err := a.Fill(r)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}
	require.True(t, a.Ready())

	// A complete frame is buffered, so nothing more is read.
	n, err := a.Fill(r)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAssemblerFillReadsPastOneFrame(t *testing.T) {
	a := NewAssembler(6)
	feed(t, a, []byte{0, 1, 2})

	n, err := a.Fill(bytes.NewReader(seq(20, 3)))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Len(t, a.buf, 12)
	assert.Equal(t, 0, a.Partial())

	dst := make(Frame, 6)
	require.True(t, a.Next(dst))
	require.True(t, a.Next(dst))
	assert.Equal(t, Frame{6, 7, 8, 9, 10, 11}, dst)
	assert.False(t, a.Next(dst))
}

func TestAssemblerFinish(t *testing.T) {
	a := NewAssembler(6)
	_, err := a.Fill(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, a.Finish())

	feed(t, a, seq(8, 0))
	assert.ErrorIs(t, a.Finish(), ErrTruncated)
	assert.Len(t, a.buf, 6)
	assert.True(t, a.Ready())
}

func TestAssemblerDiscardPartial(t *testing.T) {
	a := NewAssembler(90)
	feed(t, a, seq(2, 0))

	assert.Equal(t, 2, a.DiscardPartial())
	assert.Empty(t, a.buf)
	assert.Equal(t, 0, a.DiscardPartial())
}
