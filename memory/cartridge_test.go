package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeHeaderROM(cartType, romSize, ramSize byte) []byte {
	data := make([]byte, 0x8000)
	copy(data[titleAddress:], []byte("TESTGAME"))
	data[cartridgeTypeAddress] = cartType
	data[romSizeAddress] = romSize
	data[ramSizeAddress] = ramSize
	data[headerChecksumAddress] = computeHeaderChecksum(data)
	return data
}

func TestCartridgeHeaderParsing(t *testing.T) {
	data := makeHeaderROM(0x03, 0x00, 0x03) // MBC1+RAM+BATTERY, 32KB RAM
	cart := NewCartridgeWithData(data)

	assert.Equal(t, "TESTGAME", cart.Title)
	assert.Equal(t, MapperMBC1, cart.Kind)
	assert.True(t, cart.HasBattery)
	assert.Equal(t, 4, cart.RAMBankCount)
}

func TestCartridgeUnsupportedMapperFallsBackToNone(t *testing.T) {
	data := makeHeaderROM(0xFE, 0x00, 0x00)
	cart := NewCartridgeWithData(data)
	assert.Equal(t, MapperNone, cart.Kind)
}

func TestCartridgeTooSmallDoesNotPanic(t *testing.T) {
	cart := NewCartridgeWithData([]byte{0x00, 0x01})
	assert.Equal(t, MapperNone, cart.Kind)
}
