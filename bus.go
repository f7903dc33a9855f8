package gobc

import (
	"github.com/marcolindberg/gobc/cpu"
	"github.com/marcolindberg/gobc/memory"
	"github.com/marcolindberg/gobc/video"
)

// bus adapts the concrete MMU/PPU/APU components to the narrow cpu.Bus
// capability the CPU depends on, and is where a single CPU cycle fans out
// to every sub-instruction observer (timers, DMA, PPU, APU) in the fixed
// order the core's design notes require.
type bus struct {
	mmu   *memory.MMU
	ppu   *video.PPU
	total int64 // cycles synced since the last resetCycles, for frame pacing
}

var _ cpu.Bus = (*bus)(nil)

func newBus(mmu *memory.MMU, ppu *video.PPU) *bus {
	return &bus{mmu: mmu, ppu: ppu}
}

func (b *bus) Read(address uint16) byte         { return b.mmu.Read(address) }
func (b *bus) Write(address uint16, value byte) { b.mmu.Write(address, value) }

// Sync fans cycles out to the timer/serial/DMA engine (via MMU.Tick), the
// PPU's scanline state machine, and the APU's frame sequencer, in that
// order, then accumulates them for frame-length accounting.
func (b *bus) Sync(cycles int) {
	b.mmu.Tick(cycles)
	b.ppu.Tick(cycles)
	b.mmu.APU.Tick(cycles)
	b.total += int64(cycles)
}

func (b *bus) ToggleSpeed() { b.mmu.ToggleSpeed() }

func (b *bus) resetCycles() { b.total = 0 }
