package ws281x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack(t *testing.T) {
	assert.Equal(t, uint32(0x112233), pack(0x11, 0x22, 0x33))
	assert.Equal(t, uint32(0xff0000), pack(0xff, 0, 0))
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 18, o.GPIO)
	assert.Equal(t, 255, o.Brightness)
}
