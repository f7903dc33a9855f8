package video

import (
	"testing"

	"github.com/marcolindberg/gobc/addr"
	"github.com/marcolindberg/gobc/memory"
	"github.com/stretchr/testify/assert"
)

func newTestPPU() (*PPU, *memory.MMU) {
	mmu := memory.New()
	mmu.Write(addr.LCDC, 0x91) // LCD+BG on
	ppu := NewPPU(mmu, false, 1.0, 1.0)
	return ppu, mmu
}

func TestPPUModeProgression(t *testing.T) {
	ppu, mmu := newTestPPU()
	ppu.setLY(0)
	ppu.setMode(OAMReadMode)
	ppu.cycles = 0

	ppu.Tick(oamScanlineCycles)
	assert.Equal(t, VRAMReadMode, ppu.mode)

	ppu.Tick(vramScanlineCycles)
	assert.Equal(t, HBlankMode, ppu.mode)

	ppu.Tick(hblankCycles)
	assert.Equal(t, byte(1), mmu.Read(addr.LY))
}

func TestPPUEntersVBlankAtLine144(t *testing.T) {
	ppu, mmu := newTestPPU()
	ppu.setLY(143)
	ppu.setMode(HBlankMode)
	ppu.cycles = hblankCycles

	ppu.Tick(0)
	assert.Equal(t, VBlankMode, ppu.mode)
	assert.Equal(t, byte(144), mmu.Read(addr.LY))
}

func TestPPUModeTransitionsGateCPUVisibleVRAMAndOAMAccess(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(0x8000, 0x11)
	mmu.Write(addr.OAMStart, 0x22)

	ppu.setMode(HBlankMode)
	assert.Equal(t, byte(0x11), mmu.Read(0x8000))
	assert.Equal(t, byte(0x22), mmu.Read(addr.OAMStart))

	ppu.setMode(OAMReadMode)
	assert.Equal(t, byte(0x11), mmu.Read(0x8000), "OAM search does not block VRAM")
	assert.Equal(t, byte(0xFF), mmu.Read(addr.OAMStart))

	ppu.setMode(VRAMReadMode)
	assert.Equal(t, byte(0xFF), mmu.Read(0x8000))
	assert.Equal(t, byte(0xFF), mmu.Read(addr.OAMStart))

	ppu.setMode(HBlankMode)
	assert.Equal(t, byte(0x11), mmu.Read(0x8000))
	assert.Equal(t, byte(0x22), mmu.Read(addr.OAMStart))
}

func TestSpritePriorityDMGLowerXWins(t *testing.T) {
	buf := NewSpritePriorityBuffer(false)
	buf.Clear()
	buf.TryClaimPixel(10, 1, 10)
	claimed := buf.TryClaimPixel(10, 0, 5)
	assert.True(t, claimed)
	assert.Equal(t, 0, buf.GetOwner(10))
}

func TestSpritePriorityCGBFirstClaimWins(t *testing.T) {
	buf := NewSpritePriorityBuffer(true)
	buf.Clear()
	buf.TryClaimPixel(10, 3, 20)
	claimed := buf.TryClaimPixel(10, 0, 1)
	assert.False(t, claimed)
	assert.Equal(t, 3, buf.GetOwner(10))
}
