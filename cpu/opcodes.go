package cpu

import (
	"log/slog"

	"github.com/marcolindberg/gobc/addr"
)

// opcodeTable dispatches the 256 base opcodes. Regular instruction families
// (register-register loads, 8-bit ALU, INC/DEC) are generated in init() over
// the standard 3-bit register encoding; everything else gets a named
// handler below.
var opcodeTable [256]func(*CPU)

// speedSwitcher is implemented by hosts that support the CGB double-speed
// switch; STOP checks for it via a type assertion so the cpu package never
// imports the memory package directly.
type speedSwitcher interface {
	ToggleSpeed()
}

func init() {
	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue // HALT occupies the LD (HL),(HL) slot
		}
		dst := uint8((op >> 3) & 7)
		src := uint8(op & 7)
		opcodeTable[op] = func(c *CPU) { c.setReg8(dst, c.getReg8(src)) }
	}

	for idx := uint8(0); idx < 8; idx++ {
		idx := idx
		opcodeTable[idx*8+0x06] = func(c *CPU) { c.setReg8(idx, c.fetch()) }
		opcodeTable[idx*8+0x04] = func(c *CPU) { c.incReg8(idx) }
		opcodeTable[idx*8+0x05] = func(c *CPU) { c.decReg8(idx) }
	}

	for op := 0x80; op <= 0xBF; op++ {
		aluIdx := uint8((op >> 3) & 7)
		src := uint8(op & 7)
		opcodeTable[op] = func(c *CPU) { c.aluOp(aluIdx, c.getReg8(src)) }
	}

	for aluIdx := uint8(0); aluIdx < 8; aluIdx++ {
		aluIdx := aluIdx
		opcodeTable[aluIdx*8+0xC6] = func(c *CPU) { c.aluOp(aluIdx, c.fetch()) }
	}

	rr16 := []struct {
		get func(*CPU) uint16
		set func(*CPU, uint16)
	}{
		{func(c *CPU) uint16 { return c.Reg.BC() }, func(c *CPU, v uint16) { c.Reg.SetBC(v) }},
		{func(c *CPU) uint16 { return c.Reg.DE() }, func(c *CPU, v uint16) { c.Reg.SetDE(v) }},
		{func(c *CPU) uint16 { return c.Reg.HL() }, func(c *CPU, v uint16) { c.Reg.SetHL(v) }},
		{func(c *CPU) uint16 { return c.Reg.SP }, func(c *CPU, v uint16) { c.Reg.SP = v }},
	}
	for i, pair := range rr16 {
		pair := pair
		base := uint16(i) * 0x10
		opcodeTable[0x01+base] = func(c *CPU) { pair.set(c, c.fetch16()) }
		opcodeTable[0x03+base] = func(c *CPU) { c.delay(4); pair.set(c, pair.get(c)+1) }
		opcodeTable[0x0B+base] = func(c *CPU) { c.delay(4); pair.set(c, pair.get(c)-1) }
		opcodeTable[0x09+base] = func(c *CPU) { c.addToHL(pair.get(c)) }
	}

	stackPairs := []struct {
		get func(*CPU) uint16
		set func(*CPU, uint16)
	}{
		{func(c *CPU) uint16 { return c.Reg.BC() }, func(c *CPU, v uint16) { c.Reg.SetBC(v) }},
		{func(c *CPU) uint16 { return c.Reg.DE() }, func(c *CPU, v uint16) { c.Reg.SetDE(v) }},
		{func(c *CPU) uint16 { return c.Reg.HL() }, func(c *CPU, v uint16) { c.Reg.SetHL(v) }},
		{func(c *CPU) uint16 { return c.Reg.AF() }, func(c *CPU, v uint16) { c.Reg.SetAF(v) }},
	}
	for i, pair := range stackPairs {
		pair := pair
		base := uint16(i) * 0x10
		opcodeTable[0xC5+base] = func(c *CPU) { c.delay(4); c.push(pair.get(c)) }
		opcodeTable[0xC1+base] = func(c *CPU) { pair.set(c, c.pop()) }
	}

	for i := 0; i < 8; i++ {
		i := i
		opcodeTable[0xC7+uint16(i)*8] = func(c *CPU) {
			c.delay(4)
			c.push(c.Reg.PC)
			c.Reg.PC = uint16(i) * 8
		}
	}

	conditions := []func(*CPU) bool{
		func(c *CPU) bool { return !c.Reg.HasFlag(FlagZ) },
		func(c *CPU) bool { return c.Reg.HasFlag(FlagZ) },
		func(c *CPU) bool { return !c.Reg.HasFlag(FlagC) },
		func(c *CPU) bool { return c.Reg.HasFlag(FlagC) },
	}
	for i, cond := range conditions {
		cond := cond
		base := uint16(i) * 0x08
		opcodeTable[0x20+base] = func(c *CPU) {
			offset := int8(c.fetch())
			if cond(c) {
				c.delay(4)
				c.Reg.PC = uint16(int32(c.Reg.PC) + int32(offset))
			}
		}
		opcodeTable[0xC2+base] = func(c *CPU) {
			target := c.fetch16()
			if cond(c) {
				c.delay(4)
				c.Reg.PC = target
			}
		}
		opcodeTable[0xC4+base] = func(c *CPU) {
			target := c.fetch16()
			if cond(c) {
				c.delay(4)
				c.push(c.Reg.PC)
				c.Reg.PC = target
			}
		}
		opcodeTable[0xC0+base] = func(c *CPU) {
			c.delay(4)
			if cond(c) {
				c.Reg.PC = c.pop()
				c.delay(4)
			}
		}
	}

	opcodeTable[0x00] = func(c *CPU) {}

	opcodeTable[0x10] = func(c *CPU) {
		c.fetch() // STOP's mandatory padding byte
		if c.colorMode {
			key1 := c.bus.Read(addr.KEY1)
			if key1&0x01 != 0 {
				if sw, ok := c.bus.(speedSwitcher); ok {
					sw.ToggleSpeed()
				}
				return
			}
		}
		c.stopped = true
	}

	opcodeTable[0x76] = func(c *CPU) {
		if !c.IME && c.pendingInterruptBits() != 0 {
			if c.colorMode {
				c.delay(4) // implicit NOP, no double-fetch
			} else {
				c.haltBug = true
			}
			return
		}
		c.halted = true
	}

	opcodeTable[0x07] = func(c *CPU) {
		c.Reg.A = c.rlc(c.Reg.A)
		c.Reg.SetFlag(FlagZ, false)
	}
	opcodeTable[0x0F] = func(c *CPU) {
		c.Reg.A = c.rrc(c.Reg.A)
		c.Reg.SetFlag(FlagZ, false)
	}
	opcodeTable[0x17] = func(c *CPU) {
		c.Reg.A = c.rl(c.Reg.A)
		c.Reg.SetFlag(FlagZ, false)
	}
	opcodeTable[0x1F] = func(c *CPU) {
		c.Reg.A = c.rr(c.Reg.A)
		c.Reg.SetFlag(FlagZ, false)
	}

	opcodeTable[0x27] = func(c *CPU) { c.daa() }
	opcodeTable[0x2F] = func(c *CPU) {
		c.Reg.A = ^c.Reg.A
		c.Reg.SetFlag(FlagN, true)
		c.Reg.SetFlag(FlagH, true)
	}
	opcodeTable[0x37] = func(c *CPU) {
		c.Reg.SetFlag(FlagN, false)
		c.Reg.SetFlag(FlagH, false)
		c.Reg.SetFlag(FlagC, true)
	}
	opcodeTable[0x3F] = func(c *CPU) {
		c.Reg.SetFlag(FlagN, false)
		c.Reg.SetFlag(FlagH, false)
		c.Reg.SetFlag(FlagC, !c.Reg.HasFlag(FlagC))
	}

	opcodeTable[0xF3] = func(c *CPU) { c.IME = false; c.imeDelay = 0 }
	opcodeTable[0xFB] = func(c *CPU) { c.imeDelay = 1 }

	opcodeTable[0x02] = func(c *CPU) { c.write(c.Reg.BC(), c.Reg.A) }
	opcodeTable[0x12] = func(c *CPU) { c.write(c.Reg.DE(), c.Reg.A) }
	opcodeTable[0x0A] = func(c *CPU) { c.Reg.A = c.read(c.Reg.BC()) }
	opcodeTable[0x1A] = func(c *CPU) { c.Reg.A = c.read(c.Reg.DE()) }

	opcodeTable[0x22] = func(c *CPU) {
		c.write(c.Reg.HL(), c.Reg.A)
		c.Reg.SetHL(c.Reg.HL() + 1)
	}
	opcodeTable[0x32] = func(c *CPU) {
		c.write(c.Reg.HL(), c.Reg.A)
		c.Reg.SetHL(c.Reg.HL() - 1)
	}
	opcodeTable[0x2A] = func(c *CPU) {
		c.Reg.A = c.read(c.Reg.HL())
		c.Reg.SetHL(c.Reg.HL() + 1)
	}
	opcodeTable[0x3A] = func(c *CPU) {
		c.Reg.A = c.read(c.Reg.HL())
		c.Reg.SetHL(c.Reg.HL() - 1)
	}

	opcodeTable[0xE0] = func(c *CPU) { c.write(0xFF00+uint16(c.fetch()), c.Reg.A) }
	opcodeTable[0xF0] = func(c *CPU) { c.Reg.A = c.read(0xFF00 + uint16(c.fetch())) }
	opcodeTable[0xE2] = func(c *CPU) { c.write(0xFF00+uint16(c.Reg.C), c.Reg.A) }
	opcodeTable[0xF2] = func(c *CPU) { c.Reg.A = c.read(0xFF00 + uint16(c.Reg.C)) }
	opcodeTable[0xEA] = func(c *CPU) { c.write(c.fetch16(), c.Reg.A) }
	opcodeTable[0xFA] = func(c *CPU) { c.Reg.A = c.read(c.fetch16()) }

	opcodeTable[0x08] = func(c *CPU) {
		addr16 := c.fetch16()
		c.write(addr16, byte(c.Reg.SP))
		c.write(addr16+1, byte(c.Reg.SP>>8))
	}
	opcodeTable[0xF9] = func(c *CPU) { c.delay(4); c.Reg.SP = c.Reg.HL() }
	opcodeTable[0xE8] = func(c *CPU) { c.Reg.SP = c.addSPSigned(); c.delay(8) }
	opcodeTable[0xF8] = func(c *CPU) { c.Reg.SetHL(c.addSPSigned()); c.delay(4) }

	opcodeTable[0xC3] = func(c *CPU) { c.Reg.PC = c.fetch16(); c.delay(4) }
	opcodeTable[0xE9] = func(c *CPU) { c.Reg.PC = c.Reg.HL() }
	opcodeTable[0x18] = func(c *CPU) {
		offset := int8(c.fetch())
		c.delay(4)
		c.Reg.PC = uint16(int32(c.Reg.PC) + int32(offset))
	}
	opcodeTable[0xCD] = func(c *CPU) {
		target := c.fetch16()
		c.delay(4)
		c.push(c.Reg.PC)
		c.Reg.PC = target
	}
	opcodeTable[0xC9] = func(c *CPU) { c.Reg.PC = c.pop(); c.delay(4) }
	opcodeTable[0xD9] = func(c *CPU) { c.Reg.PC = c.pop(); c.delay(4); c.IME = true }

	illegal := []byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
	for _, op := range illegal {
		op := op
		opcodeTable[op] = func(c *CPU) {
			slog.Warn("illegal opcode executed, treating as NOP", "opcode", op, "pc", c.Reg.PC-1)
		}
	}
}
