package video

import "math/rand"

// FrameBuffer holds one rendered frame as packed RGBA8888 pixels.
type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferSize),
	}
}

func (fb FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color uint32) {
	fb.buffer[y*fb.width+x] = color
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Clear resets the framebuffer to black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = 0
	}
}

// DrawNoise fills the framebuffer with random shades, used by hosts to
// confirm a render surface is wired up before any ROM is loaded.
func (fb *FrameBuffer) DrawNoise() {
	shades := [4]uint32{0x000000FF, 0x555555FF, 0xAAAAAAFF, 0xFFFFFFFF}
	for i := range fb.buffer {
		fb.buffer[i] = shades[rand.Uint32()%4]
	}
}

// ToBinaryData returns the framebuffer as raw RGBA8888 bytes, for golden-
// image test comparisons.
func (fb *FrameBuffer) ToBinaryData() []byte {
	data := make([]byte, len(fb.buffer)*4)
	for i, pixel := range fb.buffer {
		data[i*4] = byte(pixel >> 24)
		data[i*4+1] = byte(pixel >> 16)
		data[i*4+2] = byte(pixel >> 8)
		data[i*4+3] = byte(pixel)
	}
	return data
}
