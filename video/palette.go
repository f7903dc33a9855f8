package video

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ClassicShade is one of the four fixed DMG monochrome shades.
type ClassicShade uint32

const (
	ClassicWhite     ClassicShade = 0xFFFFFFFF
	ClassicLightGrey ClassicShade = 0x989898FF
	ClassicDarkGrey  ClassicShade = 0x4C4C4CFF
	ClassicBlack     ClassicShade = 0x000000FF
)

// ClassicShadeForIndex maps a 2-bit palette color index (as decoded from
// BGP/OBP0/OBP1) to its DMG shade.
func ClassicShadeForIndex(index byte) uint32 {
	switch index & 0x03 {
	case 0:
		return uint32(ClassicBlack)
	case 1:
		return uint32(ClassicDarkGrey)
	case 2:
		return uint32(ClassicLightGrey)
	default:
		return uint32(ClassicWhite)
	}
}

// CGBPalette precomputes an RGBA8888 lookup for every possible 15-bit
// BGR555 color the hardware can express, gamma- and saturation-corrected
// via an HSL round trip so colors match how they appear on the actual
// color LCD rather than a flat linear RGB555->RGB888 expansion.
type CGBPalette struct {
	table [32768]uint32
}

// NewCGBPalette builds the lookup table. gamma > 1 darkens midtones (the
// real LCD's response curve); saturation > 1 boosts chroma, matching the
// "improved" emulator palettes players expect over a literal 5-bit
// expansion. A value of 1.0 for either leaves colors uncorrected; a
// non-positive gamma falls back to 1.0 and a negative saturation is
// clamped to 0.
func NewCGBPalette(gamma, saturation float64) *CGBPalette {
	if gamma <= 0 {
		gamma = 1.0
	}
	if saturation < 0 {
		saturation = 0
	}

	p := &CGBPalette{}
	for packed := 0; packed < 32768; packed++ {
		r5 := packed & 0x1F
		g5 := (packed >> 5) & 0x1F
		b5 := (packed >> 10) & 0x1F

		r := applyGamma(float64(r5)/31.0, gamma)
		g := applyGamma(float64(g5)/31.0, gamma)
		b := applyGamma(float64(b5)/31.0, gamma)

		c := colorful.Color{R: r, G: g, B: b}
		h, s, l := c.Hsl()
		s = clamp01(s * saturation)
		corrected := colorful.Hsl(h, s, l).Clamped()

		p.table[packed] = packRGBA(corrected)
	}
	return p
}

func applyGamma(v, gamma float64) float64 {
	return math.Pow(clamp01(v), gamma)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func packRGBA(c colorful.Color) uint32 {
	r := uint32(c.R*255 + 0.5)
	g := uint32(c.G*255 + 0.5)
	b := uint32(c.B*255 + 0.5)
	return (r << 24) | (g << 16) | (b << 8) | 0xFF
}

// Lookup returns the corrected RGBA8888 color for a raw 15-bit BGR555
// value, as read from the CGB's BCPD/OCPD palette memory (two bytes,
// little-endian, bit 15 unused).
func (p *CGBPalette) Lookup(bgr555 uint16) uint32 {
	return p.table[bgr555&0x7FFF]
}
