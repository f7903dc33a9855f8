package memory

import (
	"testing"

	"github.com/marcolindberg/gobc/addr"
	"github.com/stretchr/testify/assert"
)

func TestOAMDMAIsPacedNotInstant(t *testing.T) {
	mmu := New()
	for i := 0; i < 160; i++ {
		mmu.Write(0xC000+uint16(i), byte(i))
	}

	mmu.Write(addr.DMA, 0xC0)

	// Immediately after the write, the transfer has only just started.
	assert.True(t, mmu.dma.active)
	assert.Equal(t, uint16(0), mmu.dma.cursor)

	mmu.Tick(4)
	assert.Equal(t, uint16(1), mmu.dma.cursor)
	assert.Equal(t, byte(0x00), mmu.memory[0xFE00])

	mmu.Tick(636)
	assert.False(t, mmu.dma.active)
	assert.Equal(t, byte(159), mmu.memory[0xFE00+159])
}

func TestEchoRAMMirrorsWorkRAM(t *testing.T) {
	mmu := New()
	mmu.Write(0xC010, 0x42)
	assert.Equal(t, byte(0x42), mmu.Read(0xE010))

	mmu.Write(0xE020, 0x99)
	assert.Equal(t, byte(0x99), mmu.Read(0xC020))
}

func TestIFReadAlwaysSetsUpperBits(t *testing.T) {
	mmu := New()
	mmu.Write(addr.IF, 0x00)
	assert.Equal(t, byte(0xE0), mmu.Read(addr.IF))
}

func TestJoypadInterruptOnButtonPress(t *testing.T) {
	mmu := New()
	fired := false
	mmu.RequestInterruptFunc = func(i addr.Interrupt) {
		if i == addr.JoypadInterrupt {
			fired = true
		}
	}
	mmu.Write(addr.P1, 0x10) // select the button nibble
	mmu.Joypad().Press(JoypadA)
	assert.True(t, fired)
}

func TestJoypadInterruptOnlyFiresForSelectedNibble(t *testing.T) {
	mmu := New()
	fired := false
	mmu.RequestInterruptFunc = func(i addr.Interrupt) {
		if i == addr.JoypadInterrupt {
			fired = true
		}
	}
	mmu.Write(addr.P1, 0x20) // select the d-pad nibble, not buttons
	mmu.Joypad().Press(JoypadA)
	assert.False(t, fired)
}

func TestVRAMReadsAreBlockedDuringVRAMScanMode(t *testing.T) {
	mmu := New()
	mmu.Write(0x8000, 0x42)
	assert.Equal(t, byte(0x42), mmu.Read(0x8000))

	mmu.SetPPUMode(ppuModeVRAM)
	assert.Equal(t, byte(0xFF), mmu.Read(0x8000))
	mmu.Write(0x8000, 0x99) // writes during the scan are ignored too
	assert.Equal(t, byte(0xFF), mmu.Read(0x8000))

	mmu.SetPPUMode(ppuModeHBlank)
	assert.Equal(t, byte(0x42), mmu.Read(0x8000), "the ignored write must not have landed")
}

func TestOAMReadsAreBlockedDuringOAMAndVRAMScanModes(t *testing.T) {
	mmu := New()
	mmu.Write(0xFE10, 0x7)
	assert.Equal(t, byte(0x7), mmu.Read(0xFE10))

	for _, mode := range []int{ppuModeOAM, ppuModeVRAM} {
		mmu.SetPPUMode(mode)
		assert.Equal(t, byte(0xFF), mmu.Read(0xFE10))
	}

	mmu.SetPPUMode(ppuModeHBlank)
	assert.Equal(t, byte(0x7), mmu.Read(0xFE10))
}

func TestPPUInternalReadsBypassModeGating(t *testing.T) {
	mmu := New()
	mmu.Write(0x8000, 0x55)
	mmu.Write(0xFE20, 0xAB)

	mmu.SetPPUMode(ppuModeVRAM)
	assert.Equal(t, byte(0x55), mmu.ReadVRAMAt(0x8000))
	assert.Equal(t, byte(0xAB), mmu.ReadOAMAt(0xFE20))
}

func TestReservedOAMRangeAlwaysReadsZeroAndIgnoresWrites(t *testing.T) {
	mmu := New()
	mmu.Write(0xFEA5, 0x77)
	assert.Equal(t, byte(0x00), mmu.Read(0xFEA5))

	mmu.SetPPUMode(ppuModeHBlank)
	assert.Equal(t, byte(0x00), mmu.Read(0xFEFF))
}

func TestBootROMOverlayLocksOut(t *testing.T) {
	mmu := New()
	mmu.SetBootROM([]byte{0xAA, 0xBB})
	assert.Equal(t, byte(0xAA), mmu.Read(0x0000))

	mmu.Write(addr.BootLock, 0x01)
	assert.NotEqual(t, byte(0xAA), mmu.Read(0x0000))
}
