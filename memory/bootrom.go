package memory

// BootROM overlays the cartridge's first 256 bytes with a supplied boot
// image until the game writes any value to 0xFF50, at which point the
// overlay is locked out for the rest of the session. With no image
// supplied, the overlay is inert from the start (skip_boot_rom behavior).
type BootROM struct {
	data   []byte
	active bool
}

// NewBootROM wraps a boot ROM image. A nil or empty image starts inactive.
func NewBootROM(data []byte) *BootROM {
	b := &BootROM{data: data}
	b.active = len(data) > 0
	return b
}

// Active reports whether reads at 0x0000-0x00FF (and, for a 2KiB CGB boot
// image, 0x0200-0x08FF) should be satisfied from the overlay rather than
// cartridge ROM.
func (b *BootROM) Active() bool {
	return b != nil && b.active
}

// Read returns the overlay byte at address, which must be in range.
func (b *BootROM) Read(address uint16) byte {
	if int(address) >= len(b.data) {
		return 0xFF
	}
	return b.data[address]
}

// Lock disables the overlay permanently; called on any write to 0xFF50.
func (b *BootROM) Lock() {
	b.active = false
}

// covers reports whether address falls within the overlay's live window.
// The overlay leaves a hole at 0x0100-0x01FF (the cartridge entry point)
// even while active, matching the real boot ROM's memory map.
func (b *BootROM) covers(address uint16) bool {
	if !b.Active() {
		return false
	}
	if address <= 0x00FF {
		return true
	}
	return len(b.data) > 0x200 && address >= 0x0200 && int(address) < len(b.data)
}
