package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCGBPaletteIdentityGammaWhiteStaysWhite(t *testing.T) {
	p := NewCGBPalette(1.0, 1.0)
	white := p.Lookup(0x7FFF) // r=g=b=31
	assert.Equal(t, uint32(0xFFFFFFFF), white)
}

func TestCGBPaletteBlackStaysBlack(t *testing.T) {
	p := NewCGBPalette(1.0, 1.0)
	black := p.Lookup(0x0000)
	assert.Equal(t, uint32(0x000000FF), black)
}

func TestClassicShadeMapping(t *testing.T) {
	assert.Equal(t, uint32(ClassicBlack), ClassicShadeForIndex(0))
	assert.Equal(t, uint32(ClassicWhite), ClassicShadeForIndex(3))
}
