package cpu

// cbOpcodeTable dispatches the 256 CB-prefixed opcodes: rotate/shift/swap
// (0x00-0x3F), BIT (0x40-0x7F), RES (0x80-0xBF), SET (0xC0-0xFF), each
// addressing one of B,C,D,E,H,L,(HL),A via the standard 3-bit encoding.
var cbOpcodeTable [256]func(*CPU)

func init() {
	shiftOps := []func(*CPU, byte) byte{
		(*CPU).rlc,
		(*CPU).rrc,
		(*CPU).rl,
		(*CPU).rr,
		(*CPU).sla,
		(*CPU).sra,
		(*CPU).swap,
		(*CPU).srl,
	}
	for group, op := range shiftOps {
		op := op
		for reg := uint8(0); reg < 8; reg++ {
			reg := reg
			cbOpcodeTable[uint16(group)*8+uint16(reg)] = func(c *CPU) {
				c.setReg8(reg, op(c, c.getReg8(reg)))
			}
		}
	}

	for bitIdx := uint8(0); bitIdx < 8; bitIdx++ {
		bitIdx := bitIdx
		for reg := uint8(0); reg < 8; reg++ {
			reg := reg
			cbOpcodeTable[0x40+uint16(bitIdx)*8+uint16(reg)] = func(c *CPU) {
				c.bitTest(bitIdx, c.getReg8(reg))
			}
			cbOpcodeTable[0x80+uint16(bitIdx)*8+uint16(reg)] = func(c *CPU) {
				c.setReg8(reg, c.getReg8(reg)&^(1<<bitIdx))
			}
			cbOpcodeTable[0xC0+uint16(bitIdx)*8+uint16(reg)] = func(c *CPU) {
				c.setReg8(reg, c.getReg8(reg)|1<<bitIdx)
			}
		}
	}
}
