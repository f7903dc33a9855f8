package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func triggerableWaveChannel(a *APU, waveIndex uint8) {
	for i := range a.waveRAM {
		a.waveRAM[i] = uint8(i + 1)
	}
	a.NR52 = 0x80 // APU powered on
	a.ch[2].enabled = true
	a.ch[2].dacEnabled = true
	a.ch[2].waveIndex = waveIndex
	a.NR30 = 0x80
	a.NR34 = 0x80 // trigger bit set, frequency bits irrelevant here
}

func TestChannel3RetriggerCorruptsWaveRAMOnClassicOnly(t *testing.T) {
	a := New()
	a.SetColorMode(false)
	triggerableWaveChannel(a, 20)

	// Byte pair about to be read (waveIndex 20 -> byte 11) falls in the
	// aligned 4-byte group starting at byte 8.
	want := [4]uint8{a.waveRAM[8], a.waveRAM[9], a.waveRAM[10], a.waveRAM[11]}

	a.mapRegistersToState()

	assert.Equal(t, want[:], a.waveRAM[:4])
}

func TestChannel3RetriggerDoesNotCorruptWaveRAMOnColor(t *testing.T) {
	a := New()
	a.SetColorMode(true)
	triggerableWaveChannel(a, 20)

	before := a.waveRAM

	a.mapRegistersToState()

	assert.Equal(t, before, a.waveRAM)
}

func TestChannel3FirstTriggerDoesNotCorruptWaveRAM(t *testing.T) {
	a := New()
	a.SetColorMode(false)
	for i := range a.waveRAM {
		a.waveRAM[i] = uint8(i + 1)
	}
	a.NR52 = 0x80
	a.NR30 = 0x80
	a.NR34 = 0x80 // channel was not already enabled, so this is a fresh trigger

	before := a.waveRAM

	a.mapRegistersToState()

	assert.Equal(t, before, a.waveRAM)
}
