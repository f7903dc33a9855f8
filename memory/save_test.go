package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveRAMRoundTrip(t *testing.T) {
	cart := NewCartridgeWithData(makeHeaderROM(0x03, 0x00, 0x03)) // MBC1+RAM+BATTERY
	mmu := NewWithCartridge(cart)

	mmu.Write(0x0000, 0x0A) // enable RAM
	mmu.Write(0xA123, 0x77)

	data, err := mmu.SaveRAM()
	require.NoError(t, err)
	require.NotNil(t, data)

	restored := NewWithCartridge(cart)
	restored.Write(0x0000, 0x0A)
	require.NoError(t, restored.LoadSaveRAM(data))
	require.Equal(t, byte(0x77), restored.Read(0xA123))
}

func TestSaveRAMNoBatteryReturnsNil(t *testing.T) {
	cart := NewCartridgeWithData(makeHeaderROM(0x00, 0x00, 0x00)) // plain ROM
	mmu := NewWithCartridge(cart)
	data, err := mmu.SaveRAM()
	require.NoError(t, err)
	require.Nil(t, data)
}
