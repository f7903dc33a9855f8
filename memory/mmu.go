package memory

import (
	"fmt"
	"log/slog"

	"github.com/marcolindberg/gobc/addr"
	"github.com/marcolindberg/gobc/audio"
	"github.com/marcolindberg/gobc/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// PPU scanline modes, mirrored from video.Mode's STAT bit values so the
// memory package can gate VRAM/OAM access without importing video.
const (
	ppuModeHBlank = 0
	ppuModeVBlank = 1
	ppuModeOAM    = 2
	ppuModeVRAM   = 3
)

// dmaTransfer tracks an in-progress OAM-DMA copy, paced at one byte every 4
// cycles (160 bytes, 640 cycles total) instead of landing instantly.
type dmaTransfer struct {
	active bool
	source uint16
	cursor uint16
	cycles int
}

// HDMACallback lets the PPU package observe HBlank boundaries for
// HDMA-during-HBlank transfers without the memory package importing video.
type HDMACallback func(mmu *MMU, cyclesPerLine int)

// MMU is the bus: it owns all directly-addressable memory and routes
// reads/writes for every other component (cartridge/MBC, timer, joypad,
// serial, APU) that lives in the I/O address space.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	vram      [2][0x2000]byte // bank 0/1, CGB only uses bank 1
	wram      [8][0x1000]byte // banks 1-7 switchable in 0xD000-0xDFFF on CGB
	vramBank  int
	wramBank  int
	regionMap [256]memRegion

	APU    *audio.APU
	joypad *Joypad
	serial SerialPort
	timer  *Timer
	boot   *BootROM

	colorMode bool // CGB features enabled

	dma dmaTransfer

	// HDMA state (CGB). Registers are addressable regardless of colorMode
	// to keep Read/Write total; they are inert on DMG.
	hdmaSrc      uint16
	hdmaDst      uint16
	hdmaLength   uint16 // remaining length in 0x10-byte blocks, minus one
	hdmaActive   bool
	hdmaHBlank   bool
	speedDouble  bool
	speedPending bool

	bgPalette  *cgbPalette
	objPalette *cgbPalette

	ppuMode int // current PPU scanline mode, for VRAM/OAM access gating

	RequestInterruptFunc func(addr.Interrupt)
}

// New creates an MMU with no cartridge loaded (an empty NoMBC cartridge),
// matching the platform's "powered on with no game" state.
func New() *MMU {
	mmu := &MMU{
		memory: make([]byte, 0x10000),
		cart:   NewCartridge(),
		mbc:    NewNoMBC(make([]byte, 0x8000)),
		APU:    audio.New(),
		joypad: NewJoypad(),
		timer:  NewTimer(),
		serial: newNoopSerial(),
		boot:   NewBootROM(nil),
	}
	mmu.wramBank = 1
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	mmu.joypad.JoypadInterruptHandler = func() { mmu.RequestInterrupt(addr.JoypadInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// NewWithCartridge creates an MMU with the given cartridge (and its
// corresponding MBC) loaded.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart
	mmu.mbc = NewMBCForCartridge(cart)
	mmu.SetColorMode(cart.ColorSupported)
	return mmu
}

// SetBootROM installs (or clears, via nil/empty data) a boot ROM overlay.
func (m *MMU) SetBootROM(data []byte) {
	m.boot = NewBootROM(data)
}

// SetColorMode forces CGB feature availability independent of the
// cartridge's own color-support flag, for hosts that want DMG compatibility
// mode on a color-capable cartridge.
func (m *MMU) SetColorMode(enabled bool) {
	m.colorMode = enabled
	m.APU.SetColorMode(enabled)
}

func (m *MMU) ColorMode() bool { return m.colorMode }

// ReadVRAMBank reads VRAM at the given bank (0 or 1) regardless of the
// currently selected VBK bank, for the PPU's tile-attribute lookups which
// always read bank 1 independent of what the CPU has selected.
func (m *MMU) ReadVRAMBank(bank int, address uint16) byte {
	return m.vram[bank&0x01][address-0x8000]
}

// SetPPUMode records the PPU's current scanline mode so Read/Write can gate
// CPU-visible VRAM/OAM access the way real hardware does. Called by the PPU
// on every mode transition.
func (m *MMU) SetPPUMode(mode int) {
	m.ppuMode = mode
}

// ReadVRAMAt reads the currently selected VRAM bank directly, bypassing the
// PPU-mode gate applied to Read. The PPU's own scanline renderer uses this
// to see VRAM during VRAMReadMode, the very mode that blocks the CPU.
func (m *MMU) ReadVRAMAt(address uint16) byte {
	return m.vram[m.vramBank][address-0x8000]
}

// ReadOAMAt reads OAM directly, bypassing the PPU-mode gate applied to
// Read, for the PPU's own sprite evaluation during OAMReadMode/VRAMReadMode.
func (m *MMU) ReadOAMAt(address uint16) byte {
	return m.memory[address]
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// Tick advances the timer, serial port, and any in-flight OAM-DMA transfer
// by the given number of CPU cycles.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	m.serial.Tick(cycles)
	m.tickDMA(cycles)
}

func (m *MMU) tickDMA(cycles int) {
	if !m.dma.active {
		return
	}
	m.dma.cycles += cycles
	for m.dma.cycles >= 4 && m.dma.cursor < 160 {
		m.dma.cycles -= 4
		m.memory[0xFE00+m.dma.cursor] = m.rawRead(m.dma.source + m.dma.cursor)
		m.dma.cursor++
	}
	if m.dma.cursor >= 160 {
		m.dma.active = false
	}
}

// SetTimerSeed re-seeds the internal divider counter (used when skipping
// the boot ROM, to match the post-boot DIV value).
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// Joypad exposes the input device for host key-press/release plumbing.
func (m *MMU) Joypad() *Joypad { return m.joypad }

// Cartridge returns the loaded cartridge's metadata.
func (m *MMU) Cartridge() *Cartridge { return m.cart }

// MBC returns the active banking controller, for save-state persistence.
func (m *MMU) MBC() MBC { return m.mbc }

// RequestInterrupt sets the corresponding bit of the IF register. Unknown
// interrupt values are logged and ignored rather than treated as fatal,
// since IF is just a bitmask.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	if interrupt != addr.VBlankInterrupt && interrupt != addr.LCDSTATInterrupt &&
		interrupt != addr.TimerInterrupt && interrupt != addr.SerialInterrupt &&
		interrupt != addr.JoypadInterrupt {
		slog.Warn("requested unknown interrupt", "value", fmt.Sprintf("0x%02X", uint8(interrupt)))
		return
	}
	flags := m.Read(addr.IF)
	m.Write(addr.IF, flags|uint8(interrupt))
	if m.RequestInterruptFunc != nil {
		m.RequestInterruptFunc(interrupt)
	}
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

// rawRead bypasses the boot ROM overlay, for internal callers (OAM-DMA
// source reads) that must see cartridge memory underneath the overlay.
func (m *MMU) rawRead(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return m.mbc.Read(address)
	case regionVRAM:
		return m.vram[m.vramBank][address-0x8000]
	case regionWRAM:
		return m.readWRAM(address)
	case regionEcho:
		return m.readWRAM(address - 0x2000)
	case regionOAM:
		return m.memory[address]
	default:
		return m.readIO(address)
	}
}

func (m *MMU) readWRAM(address uint16) byte {
	if address < 0xD000 {
		return m.wram[0][address-0xC000]
	}
	bank := m.wramBank
	if bank == 0 {
		bank = 1
	}
	return m.wram[bank][address-0xD000]
}

func (m *MMU) writeWRAM(address uint16, value byte) {
	if address < 0xD000 {
		m.wram[0][address-0xC000] = value
		return
	}
	bank := m.wramBank
	if bank == 0 {
		bank = 1
	}
	m.wram[bank][address-0xD000] = value
}

func (m *MMU) Read(address uint16) byte {
	if m.boot.covers(address) {
		return m.boot.Read(address)
	}

	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return m.mbc.Read(address)
	case regionVRAM:
		if m.ppuMode == ppuModeVRAM {
			return 0xFF
		}
		return m.vram[m.vramBank][address-0x8000]
	case regionWRAM:
		return m.readWRAM(address)
	case regionEcho:
		return m.readWRAM(address - 0x2000)
	case regionOAM:
		if address > addr.OAMEnd {
			return 0x00 // 0xFEA0-0xFEFF is unusable and always reads 0
		}
		if m.dma.active || m.ppuMode == ppuModeOAM || m.ppuMode == ppuModeVRAM {
			return 0xFF
		}
		return m.memory[address]
	case regionIO:
		return m.readIO(address)
	default:
		slog.Warn("read at unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		return m.timer.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.APU.ReadRegister(address)
	case address == addr.IF:
		return m.memory[address] | 0xE0
	case address == addr.VBK:
		return byte(m.vramBank) | 0xFE
	case address == addr.SVBK:
		return byte(m.wramBank) | 0xF8
	case address == addr.KEY1:
		v := byte(0x7E)
		if m.speedDouble {
			v |= 0x80
		}
		if m.speedPending {
			v |= 0x01
		}
		return v
	case address == addr.HDMA5:
		return m.readHDMA5()
	case address == addr.BootLock:
		return m.memory[address] | 0xFE
	default:
		if v, ok := m.readCGBPaletteIO(address); ok {
			return v
		}
		return m.memory[address]
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.mbc.Write(address, value)
	case regionVRAM:
		if m.ppuMode == ppuModeVRAM {
			return
		}
		m.vram[m.vramBank][address-0x8000] = value
	case regionWRAM:
		m.writeWRAM(address, value)
	case regionEcho:
		m.writeWRAM(address-0x2000, value)
	case regionOAM:
		if address > addr.OAMEnd {
			return // 0xFEA0-0xFEFF is unusable; writes are ignored
		}
		if m.dma.active || m.ppuMode == ppuModeOAM || m.ppuMode == ppuModeVRAM {
			return
		}
		m.memory[address] = value
	case regionIO:
		m.writeIO(address, value)
	default:
		slog.Warn("write at unmapped address", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		m.timer.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.APU.WriteRegister(address, value)
	case address == addr.IF:
		m.memory[address] = value | 0xE0
	case address == addr.DMA:
		m.startDMA(value)
	case address == addr.VBK:
		if m.colorMode {
			m.vramBank = int(value & 0x01)
		}
	case address == addr.SVBK:
		if m.colorMode {
			m.wramBank = int(value & 0x07)
		}
	case address == addr.KEY1:
		if m.colorMode {
			m.speedPending = value&0x01 != 0
		}
	case address == addr.HDMA1:
		m.hdmaSrc = (m.hdmaSrc & 0x00FF) | (uint16(value) << 8)
	case address == addr.HDMA2:
		m.hdmaSrc = (m.hdmaSrc & 0xFF00) | uint16(value&0xF0)
	case address == addr.HDMA3:
		m.hdmaDst = (m.hdmaDst & 0x00FF) | (uint16(value&0x1F) << 8)
	case address == addr.HDMA4:
		m.hdmaDst = (m.hdmaDst & 0xFF00) | uint16(value&0xF0)
	case address == addr.HDMA5:
		m.writeHDMA5(value)
	case address == addr.BootLock:
		m.memory[address] = value
		if m.boot.Active() {
			m.boot.Lock()
		}
	default:
		if m.writeCGBPaletteIO(address, value) {
			return
		}
		m.memory[address] = value
	}
}

// startDMA begins a paced 160-byte copy from (value<<8) into OAM, spread
// over 640 cycles (4 cycles/byte) rather than landing in a single step.
func (m *MMU) startDMA(value byte) {
	m.memory[addr.DMA] = value
	m.dma = dmaTransfer{active: true, source: uint16(value) << 8}
}
