package memory

// MBC is the interface every banking-controller implementation satisfies.
// Addresses passed in are the full 16-bit CPU address space; callers route
// 0x0000-0x7FFF and 0xA000-0xBFFF accesses here and nowhere else.
type MBC interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)

	// ExternalRAM exposes the battery-backed RAM (and, for MBC3, is paired
	// with RTCState) for save-file persistence. Returns nil if the
	// cartridge has no external RAM.
	ExternalRAM() []byte

	// HasBattery reports whether ExternalRAM should be persisted across runs.
	HasBattery() bool
}

// rtcCarrier is implemented by MBCs that carry an RTC (MBC3), letting
// memory/save.go serialize/restore its state without a type switch on MBC3
// specifically living outside this package.
type rtcCarrier interface {
	RTCState() rtcSnapshot
	RestoreRTCState(rtcSnapshot)
}

// NoMBC is a cartridge with no banking: the whole ROM image is mapped
// directly at 0x0000-0x7FFF, and it carries no external RAM.
type NoMBC struct {
	rom []uint8
}

func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{rom: romData}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if int(address) >= len(m.rom) {
		return 0xFF
	}
	return m.rom[address]
}

func (m *NoMBC) Write(address uint16, value uint8) {}

func (m *NoMBC) ExternalRAM() []byte { return nil }
func (m *NoMBC) HasBattery() bool    { return false }

// MBC1 supports up to 125 switchable 16KiB ROM banks and up to four 8KiB
// RAM banks, selected via a two-mode banking scheme.
type MBC1 struct {
	rom         []uint8
	ram         []uint8
	romBank     uint8
	ramBank     uint8
	ramEnabled  bool
	bankingMode uint8
	hasBattery  bool
}

func NewMBC1(romData []uint8, hasBattery bool, ramBankCount int) *MBC1 {
	return &MBC1{
		rom:        romData,
		ram:        make([]uint8, ramBankCount*0x2000),
		romBank:    1,
		hasBattery: hasBattery,
	}
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		return m.rom[m.romOffset()+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		return m.ram[m.ramOffset()+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) romOffset() uint32 {
	bank := m.romBank
	if m.bankingMode == 1 {
		bank &= 0x1F
	}
	offset := uint32(bank) * 0x4000
	if int(offset) >= len(m.rom) {
		offset %= uint32(len(m.rom))
	}
	return offset
}

func (m *MBC1) ramOffset() uint32 {
	bank := uint8(0)
	if m.bankingMode == 1 {
		bank = m.ramBank
	}
	offset := uint32(bank) * 0x2000
	return offset % uint32(len(m.ram))
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			// banks 0x00/0x20/0x40/0x60 alias to the next bank up.
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case address <= 0x5FFF:
		if m.bankingMode == 0 {
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			m.ramBank = value & 0x03
		}
	case address <= 0x7FFF:
		m.bankingMode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		m.ram[m.ramOffset()+uint32(address-0xA000)] = value
	}
}

func (m *MBC1) ExternalRAM() []byte { return m.ram }
func (m *MBC1) HasBattery() bool    { return m.hasBattery }

// MBC2 has a built-in 512x4-bit RAM (no external RAM chip); only the low
// nibble of each byte is meaningful.
type MBC2 struct {
	rom        []uint8
	ram        [512]uint8
	romBank    uint8
	ramEnabled bool
	hasBattery bool
}

func NewMBC2(romData []uint8, hasBattery bool) *MBC2 {
	return &MBC2{rom: romData, romBank: 1, hasBattery: hasBattery}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if int(offset) >= len(m.rom) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[address%512] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		// bit 8 of the address distinguishes a RAM-enable write from a
		// ROM-bank-select write in the 0x0000-0x3FFF range.
		if address&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[address%512] = value & 0x0F
	}
}

func (m *MBC2) ExternalRAM() []byte { return m.ram[:] }
func (m *MBC2) HasBattery() bool    { return m.hasBattery }

// MBC3 adds a real-time clock alongside MBC1-style ROM/RAM banking, with a
// flat (non-split) banking register layout.
type MBC3 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint8
	ramBank    uint8
	ramEnabled bool
	hasBattery bool
	hasRTC     bool
	clock      *rtc
	latchState byte // tracks the 0x00-then-0x01 write sequence to latch
}

func NewMBC3(romData []uint8, hasBattery, hasRTC bool, ramBankCount int) *MBC3 {
	return &MBC3{
		rom:        romData,
		ram:        make([]uint8, ramBankCount*0x2000),
		romBank:    1,
		hasBattery: hasBattery,
		hasRTC:     hasRTC,
		clock:      newRTC(),
	}
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if int(offset) >= len(m.rom) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.clock.readSelected()
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := (uint32(m.ramBank) * 0x2000) % uint32(len(m.ram))
		return m.ram[offset+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		m.ramBank = value
		if m.hasRTC {
			m.clock.selectReg = value
		}
	case address <= 0x7FFF:
		if m.hasRTC {
			if m.latchState == 0x00 && value == 0x01 {
				m.clock.latch()
			}
			m.latchState = value
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.clock.writeSelected(value)
			return
		}
		if len(m.ram) == 0 {
			return
		}
		offset := (uint32(m.ramBank) * 0x2000) % uint32(len(m.ram))
		m.ram[offset+uint32(address-0xA000)] = value
	}
}

func (m *MBC3) ExternalRAM() []byte { return m.ram }
func (m *MBC3) HasBattery() bool    { return m.hasBattery }
func (m *MBC3) RTCState() rtcSnapshot         { return m.clock.snapshot() }
func (m *MBC3) RestoreRTCState(s rtcSnapshot) { m.clock.restore(s) }

// MBC5 supports a full 9-bit ROM bank number and up to 16 RAM banks, with
// no bank-zero aliasing quirk. Optionally drives a rumble motor via bit 3
// of the RAM bank register (0x4000-0x5FFF), which this emulator surfaces but does
// not actuate (no host haptic device in scope).
type MBC5 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
	hasBattery bool
	hasRumble  bool
	RumbleOn   bool
}

func NewMBC5(romData []uint8, hasBattery, hasRumble bool, ramBankCount int) *MBC5 {
	return &MBC5{
		rom:        romData,
		ram:        make([]uint8, ramBankCount*0x2000),
		romBank:    1,
		hasBattery: hasBattery,
		hasRumble:  hasRumble,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if int(offset) >= len(m.rom) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := (uint32(m.ramBank) * 0x2000) % uint32(len(m.ram))
		return m.ram[offset+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case address <= 0x3FFF:
		m.romBank = (m.romBank & 0x0FF) | (uint16(value&0x01) << 8)
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
		if m.hasRumble {
			m.RumbleOn = value&0x08 != 0
			m.ramBank = value & 0x07
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		offset := (uint32(m.ramBank) * 0x2000) % uint32(len(m.ram))
		m.ram[offset+uint32(address-0xA000)] = value
	}
}

func (m *MBC5) ExternalRAM() []byte { return m.ram }
func (m *MBC5) HasBattery() bool    { return m.hasBattery }

// NewMBCForCartridge builds the MBC implementation indicated by a parsed
// cartridge's header. Falls back to NoMBC for unrecognized/absent ROMs, per
// the platform's tolerant failure model.
func NewMBCForCartridge(cart *Cartridge) MBC {
	switch cart.Kind {
	case MapperMBC1:
		return NewMBC1(cart.Data(), cart.HasBattery, cart.RAMBankCount)
	case MapperMBC2:
		return NewMBC2(cart.Data(), cart.HasBattery)
	case MapperMBC3:
		return NewMBC3(cart.Data(), cart.HasBattery, cart.HasRTC, cart.RAMBankCount)
	case MapperMBC5:
		return NewMBC5(cart.Data(), cart.HasBattery, cart.HasRumble, cart.RAMBankCount)
	default:
		return NewNoMBC(cart.Data())
	}
}
