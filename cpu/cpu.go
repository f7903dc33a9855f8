// Package cpu implements the LR35902-derived instruction interpreter:
// decode/execute for the full base and CB-prefixed opcode sets, interrupt
// dispatch, HALT/STOP, and the per-memory-access cycle accounting the rest
// of the core's timing depends on.
package cpu

import "github.com/marcolindberg/gobc/addr"

// Bus is the capability surface the CPU needs from its host: raw memory
// access and a cycle sink. Passing this narrow handle instead of the
// concrete MMU breaks the CPU<->bus back-pointer cycle and keeps the CPU
// independently testable (see the core's design notes).
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	// Sync fans a cycle count (always a multiple of 4) out to every
	// sub-instruction observer (PPU, timers, APU, DMA engines).
	Sync(cycles int)
}

// Hooks are optional debugger observer callbacks held in the CPU's Hooks
// field. The core never requires one to be set; a nil Hooks (the zero
// value) is always safe to use.
type Hooks struct {
	OnCPUStep     func(pc uint16, opcode uint8)
	OnMemoryRead  func(address uint16, value byte)
	OnMemoryWrite func(address uint16, value byte)
	OnStackPush   func(value uint16)
	OnStackPop    func(value uint16)
}

// CPU is the Z80-derived register file plus execution state. colorMode
// gates the CGB-specific HALT/STOP behaviors.
type CPU struct {
	Reg Registers
	bus Bus

	IME       bool
	imeDelay  int // countdown to IME taking effect after EI; 0 = inactive
	halted    bool
	haltBug   bool
	stopped   bool
	colorMode bool

	Hooks Hooks
}

// New creates a CPU bound to bus. colorMode selects CGB HALT-bug/STOP
// semantics (spec §4.3) over the classic variant's.
func New(bus Bus, colorMode bool) *CPU {
	return &CPU{bus: bus, colorMode: colorMode}
}

// Reset reinitializes register state to the documented post-boot power-up
// values (used when skip_boot_rom is set or no boot ROM image is
// supplied).
func (c *CPU) Reset(colorMode bool) {
	c.Reg = Registers{PC: 0x0100, SP: 0xFFFE}
	if colorMode {
		c.Reg.SetAF(0x1180)
		c.Reg.SetBC(0x0000)
		c.Reg.SetDE(0xFF56)
		c.Reg.SetHL(0x000D)
	} else {
		c.Reg.SetAF(0x01B0)
		c.Reg.SetBC(0x0013)
		c.Reg.SetDE(0x00D8)
		c.Reg.SetHL(0x014D)
	}
	c.IME = false
	c.imeDelay = 0
	c.halted = false
	c.haltBug = false
	c.stopped = false
}

// IsStopped reports whether the CPU is frozen awaiting joypad input
// (classic STOP). A color STOP that toggles double speed never sets this
// state; the host/emulator glue uses this to know when a joypad edge
// should resume execution.
func (c *CPU) IsStopped() bool { return c.stopped }

// Resume clears a classic-variant STOP freeze; called by Emulator.Press on
// any joypad press.
func (c *CPU) Resume() { c.stopped = false }

// read performs a bus read and accounts the canonical 4-cycle memory
// access, fanning the tick out to every sub-instruction observer before
// returning the byte to the opcode handler.
func (c *CPU) read(address uint16) byte {
	value := c.bus.Read(address)
	c.bus.Sync(4)
	if c.Hooks.OnMemoryRead != nil {
		c.Hooks.OnMemoryRead(address, value)
	}
	return value
}

// write performs a bus write with the same 4-cycle accounting as read.
func (c *CPU) write(address uint16, value byte) {
	c.bus.Write(address, value)
	c.bus.Sync(4)
	if c.Hooks.OnMemoryWrite != nil {
		c.Hooks.OnMemoryWrite(address, value)
	}
}

// delay accounts cycles consumed with no bus access: taken-branch
// penalties and the internal step of 16-bit ALU operations.
func (c *CPU) delay(cycles int) {
	c.bus.Sync(cycles)
}

func (c *CPU) fetch() byte {
	v := c.read(c.Reg.PC)
	c.Reg.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	low := c.fetch()
	high := c.fetch()
	return uint16(high)<<8 | uint16(low)
}

func (c *CPU) push(value uint16) {
	c.Reg.SP--
	c.write(c.Reg.SP, byte(value>>8))
	c.Reg.SP--
	c.write(c.Reg.SP, byte(value))
	if c.Hooks.OnStackPush != nil {
		c.Hooks.OnStackPush(value)
	}
}

func (c *CPU) pop() uint16 {
	low := c.read(c.Reg.SP)
	c.Reg.SP++
	high := c.read(c.Reg.SP)
	c.Reg.SP++
	value := uint16(high)<<8 | uint16(low)
	if c.Hooks.OnStackPop != nil {
		c.Hooks.OnStackPop(value)
	}
	return value
}

// Step first checks for a pending, enabled interrupt; if one is dispatched,
// the dispatch is the whole step. Otherwise it executes exactly one
// instruction (or, while halted/stopped, idles one M-cycle). It returns
// nothing; all timing has already been fanned out to the bus via Sync.
func (c *CPU) Step() {
	if c.serviceInterrupts() {
		return
	}

	if c.stopped {
		c.bus.Sync(4)
		return
	}

	if c.halted {
		if c.pendingInterruptBits() != 0 {
			c.halted = false
		} else {
			c.bus.Sync(4)
			return
		}
	}

	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.IME = true
		}
	}

	pc := c.Reg.PC
	opcode := c.fetch()

	if c.haltBug {
		// The halt bug re-fetches the byte after HALT without advancing
		// PC a second time, causing it to be executed twice.
		c.Reg.PC--
		c.haltBug = false
	}

	if c.Hooks.OnCPUStep != nil {
		c.Hooks.OnCPUStep(pc, opcode)
	}

	if opcode == 0xCB {
		cbOpcode := c.fetch()
		cbOpcodeTable[cbOpcode](c)
		return
	}

	opcodeTable[opcode](c)
}

func (c *CPU) pendingInterruptBits() byte {
	ie := c.bus.Read(addr.IE)
	iflag := c.bus.Read(addr.IF)
	return ie & iflag & 0x1F
}

// serviceInterrupts dispatches the lowest-indexed pending, enabled
// interrupt when IME is set, consuming the documented 20 cycles (2
// internal, 2 for the PC push, 1 for the jump). It reports whether an
// interrupt was dispatched.
func (c *CPU) serviceInterrupts() bool {
	pending := c.pendingInterruptBits()
	if pending == 0 {
		return false
	}

	// HALT exits on any pending interrupt regardless of IME; IME alone
	// gates whether dispatch (vector jump) actually happens.
	if !c.IME {
		return false
	}

	var which addr.Interrupt
	for bitPos := 0; bitPos < 5; bitPos++ {
		if pending&(1<<uint(bitPos)) != 0 {
			which = addr.Interrupt(1 << uint(bitPos))
			break
		}
	}

	c.IME = false
	c.halted = false
	iflag := c.bus.Read(addr.IF)
	c.bus.Write(addr.IF, iflag&^byte(which))

	c.bus.Sync(8) // two internal cycles before the push
	c.push(c.Reg.PC)
	c.Reg.PC = addr.Vector(which)
	c.bus.Sync(4)
	return true
}
