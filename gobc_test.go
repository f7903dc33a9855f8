package gobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcolindberg/gobc/memory"
)

// minimalROM builds a 32KiB cartridge image (MBC0) with a tight infinite
// loop at the entry point, enough header to satisfy cartridge parsing.
func minimalROM() []byte {
	data := make([]byte, 0x8000)
	data[0x0100] = 0x00 // NOP
	data[0x0101] = 0x18 // JR -2 (infinite loop)
	data[0x0102] = 0xFE
	for i, c := range "GOBCTEST" {
		data[0x0134+i] = byte(c)
	}
	data[0x0147] = 0x00 // ROM only
	data[0x0148] = 0x00 // 32KiB
	data[0x0149] = 0x00 // no RAM
	return data
}

func TestEmulator_loadsCartridgeAndRunsFrame(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	emu.Update()

	assert.Equal(t, uint64(1), emu.FrameCount())
	// NOP (4) then JR -2 (12) repeated: the first total at or past the
	// frame budget is 4 + 12*5852, four cycles over.
	assert.Equal(t, uint64(cyclesPerFrame+4), uint64(emu.bus.total))
}

func TestEmulator_framebufferIsPopulatedAfterAFrame(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	emu.Update()

	fb := emu.GetFrameBuffer()
	require.NotNil(t, fb)
}

func TestEmulator_pressReleaseDoesNotPanic(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	assert.NotPanics(t, func() {
		emu.Press(memory.JoypadA)
		emu.Release(memory.JoypadA)
	})
}

func TestEmulator_saveRAMIsNilWithoutBattery(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	data, err := emu.SaveRAM()
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestEmulator_debuggerStepExecutesOneInstruction(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	startPC := emu.CPU().Reg.PC
	emu.StepInstruction()
	emu.Update()

	assert.NotEqual(t, startPC, emu.CPU().Reg.PC)
	assert.Equal(t, DebuggerPaused, emu.DebuggerState())
}

func TestEmulator_resetReturnsToPowerOnState(t *testing.T) {
	emu := New(Config{SkipBootROM: true})
	require.NoError(t, emu.LoadCartridge(minimalROM(), nil))

	emu.Update()
	emu.Reset()

	assert.Equal(t, uint64(0), emu.FrameCount())
	assert.Equal(t, uint16(0x0100), emu.CPU().Reg.PC)
}
