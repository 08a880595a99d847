package cpu

import (
	"github.com/dmgo-emu/dmgo-core/internal/dmgerr"
	"github.com/dmgo-emu/dmgo-core/internal/types"
)

// illegalOpcodes are the eleven byte values the DMG decoder has no
// instruction for; real hardware locks up, so the core reports it as a
// fatal decode failure instead.
var illegalOpcodes = map[byte]bool{
	0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
	0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
}

// incDecBit/incDecMask parameterize the INC/DEC-by-16-bit and
// INC/DEC-by-8-bit blocks below over increment (index 0) vs decrement
// (index 1), since the two only differ in the added value and the
// half-carry comparison mask.
var incDecBit = []uint16{0x0001, 0xFFFF}
var incDecMask = []uint8{0x0F, 0x00}

// decode executes a single non-prefixed opcode. Opcodes with irregular
// encodings are special-cased; everything else falls through to the
// quadrant/row/column decomposition in the default case, which covers
// the regular structure of the LR35902 table.
func (c *CPU) decode(instr byte) {
	if illegalOpcodes[instr] {
		c.err = dmgerr.UnknownOpcode(instr, false)
		return
	}

	switch instr {
	case 0x00: // NOP
	case 0x08: // LD (a16), SP
		lo, hi := c.readOperand(), c.readOperand()
		addr := uint16(hi)<<8 | uint16(lo)
		c.writeByte(addr, uint8(c.SP&0xFF))
		c.writeByte(addr+1, uint8(c.SP>>8))
	case 0x10: // STOP
		c.mode = modeStop
		if !c.irq.Pending() {
			c.PC++ // STOP is nominally a 2-byte opcode
		}
	case 0x31: // LD SP, d16
		lo, hi := c.readOperand(), c.readOperand()
		c.SP = uint16(hi)<<8 | uint16(lo)
	case 0x33: // INC SP
		c.SP++
		c.tickCycle()
	case 0x3B: // DEC SP
		c.SP--
		c.tickCycle()
	case 0x40: // LD B, B
		if c.Debug {
			c.DebugBreakpoint = true
		}
	case 0x76: // HALT
		if !c.irq.IME && c.irq.Pending() {
			c.mode = modeHaltBug
		} else {
			c.mode = modeHalt
		}
	case 0xC3: // JP a16
		c.jumpAbsolute(true)
	case 0xC9: // RET
		c.ret(true)
	case 0xCB: // CB prefix
		c.decodeCB(c.readOperand())
	case 0xCD: // CALL a16
		c.call(true)
	case 0xD9: // RETI
		c.ret(true)
		c.irq.IME = true
	case 0xE0: // LDH (a8), A
		c.writeByte(0xFF00+uint16(c.readOperand()), c.A)
	case 0xE2: // LD (C), A
		c.writeByte(0xFF00+uint16(c.C), c.A)
	case 0xE8: // ADD SP, r8
		c.SP = c.addSPSigned()
		c.tickCycle()
	case 0xE9: // JP HL
		c.PC = c.HL.Uint16()
	case 0xEA: // LD (a16), A
		lo, hi := c.readOperand(), c.readOperand()
		c.writeByte(uint16(hi)<<8|uint16(lo), c.A)
	case 0xF0: // LDH A, (a8)
		c.A = c.readByte(0xFF00 + uint16(c.readOperand()))
	case 0xF2: // LD A, (C)
		c.A = c.readByte(0xFF00 + uint16(c.C))
	case 0xF3: // DI
		c.irq.IME = false
	case 0xF8: // LD HL, SP+r8
		c.HL.SetUint16(c.addSPSigned())
	case 0xF9: // LD SP, HL
		c.SP = c.HL.Uint16()
		c.tickCycle()
	case 0xFA: // LD A, (a16)
		lo, hi := c.readOperand(), c.readOperand()
		c.A = c.readByte(uint16(hi)<<8 | uint16(lo))
	case 0xFB: // EI
		// The enable takes effect after the instruction following EI
		// has run, per the documented one-instruction delay.
		c.mode = modeEnableIME
	default:
		switch instr >> 6 & 0x3 {
		case 0: // 0x00-0x3F
			switch instr & 0x7 {
			case 0: // JR cc, s8
				if instr == 0x18 || c.getFlagCondition(instr) {
					offset := int8(c.readOperand())
					c.tickCycle()
					c.PC = uint16(int16(c.PC) + int16(offset))
				} else {
					c.readOperand()
				}
			case 1:
				if instr>>3&1 == 1 { // ADD HL, rr
					hl, nn := c.HL.Uint16(), c.getRegisterPairValue(instr)
					sum := uint32(hl) + uint32(nn)
					c.setFlags(c.isFlagSet(FlagZero), false, (hl&0xFFF)+(nn&0xFFF) > 0xFFF, sum > 0xFFFF)
					c.HL.SetUint16(uint16(sum))
					c.tickCycle()
				} else { // LD rr, d16
					lo, hi := c.readOperand(), c.readOperand()
					c.getRegisterPair(instr).SetUint16(uint16(hi)<<8 | uint16(lo))
				}
			case 2:
				if instr>>3&1 == 1 { // LD A, (rr)
					c.A = c.readByte(c.getRegisterPairValue(instr))
					if instr == 0x2A || instr == 0x3A {
						c.HL.SetUint16(c.HL.Uint16() + incDecBit[instr>>4&1])
					}
				} else { // LD (rr), A
					c.writeByte(c.getRegisterPairValue(instr), c.A)
					if instr == 0x22 || instr == 0x32 {
						c.HL.SetUint16(c.HL.Uint16() + incDecBit[instr>>4&1])
					}
				}
			case 3: // INC/DEC rr
				p := c.getRegisterPair(instr)
				p.SetUint16(p.Uint16() + incDecBit[instr>>3&1])
				c.tickCycle()
			case 4, 5: // INC/DEC r
				src, srcMem := c.getSourceRegister(instr >> 3)
				val := *src + uint8(incDecBit[instr&1])
				c.setFlags(val == 0, instr&1 == 1, *src&0xF == incDecMask[instr&1], c.isFlagSet(FlagCarry))
				*src = val
				if srcMem {
					c.writeByte(c.HL.Uint16(), val)
				}
			case 6: // LD r, d8
				src, srcMem := c.getSourceRegister(instr >> 3)
				*src = c.readOperand()
				if srcMem {
					c.writeByte(c.HL.Uint16(), *src)
				}
			case 7: // rotates and flag/accumulator ops
				switch instr >> 3 & 0x7 {
				case 0: // RLCA
					carry := c.A&types.Bit7 != 0
					c.A = c.A<<1 | c.A>>7
					c.setFlags(false, false, false, carry)
				case 1: // RRCA
					carry := c.A&types.Bit0 != 0
					c.A = c.A>>1 | c.A<<7
					c.setFlags(false, false, false, carry)
				case 2: // RLA
					carry := c.A&types.Bit7 != 0
					old := uint8(0)
					if c.isFlagSet(FlagCarry) {
						old = 1
					}
					c.A = c.A<<1 | old
					c.setFlags(false, false, false, carry)
				case 3: // RRA
					carry := c.A&types.Bit0 != 0
					old := uint8(0)
					if c.isFlagSet(FlagCarry) {
						old = 0x80
					}
					c.A = c.A>>1 | old
					c.setFlags(false, false, false, carry)
				case 4: // DAA
					c.daa()
				case 5: // CPL
					c.A = 0xFF ^ c.A
					c.setFlags(c.isFlagSet(FlagZero), true, true, c.isFlagSet(FlagCarry))
				case 6: // SCF
					c.setFlags(c.isFlagSet(FlagZero), false, false, true)
				case 7: // CCF
					c.setFlags(c.isFlagSet(FlagZero), false, false, !c.isFlagSet(FlagCarry))
				}
			}
		case 1: // 0x40-0x7F: 8-bit LD r, r'
			src, srcMem := c.getSourceRegister(instr)
			dst, dstMem := c.getSourceRegister(instr >> 3)
			*dst = *src
			if dstMem {
				c.writeByte(c.HL.Uint16(), *dst)
			}
			_ = srcMem
		case 2: // 0x80-0xBF: ALU A, r
			src, _ := c.getSourceRegister(instr)
			c.decodeALU(instr, *src)
		case 3: // 0xC0-0xFF
			switch instr & 0x7 {
			case 0: // RET cc
				c.tickCycle()
				c.ret(c.getFlagCondition(instr))
			case 1: // POP rr
				p := c.getRegisterPair(instr)
				hi, lo := c.pop()
				*p[1] = lo
				*p[0] = hi
				if instr&0xF0 == 0xF0 {
					c.F &= 0xF0 // the low nibble of F is always zero
				}
			case 2, 3: // JP cc, a16 / JP a16
				c.jumpAbsolute(instr&1 == 1 || c.getFlagCondition(instr))
			case 4: // CALL cc, a16
				c.call(c.getFlagCondition(instr))
			case 5: // PUSH rr
				p := c.getRegisterPair(instr)
				c.tickCycle()
				lo := *p[1]
				if instr&0xF0 == 0xF0 {
					lo &= 0xF0 // the low nibble of F is always zero
				}
				c.push(*p[0], lo)
			case 6: // ALU A, d8
				c.decodeALU(instr, c.readOperand())
			case 7: // RST n
				c.tickCycle()
				c.push(uint8(c.PC>>8), uint8(c.PC&0xFF))
				c.PC = uint16(instr>>3&0x7) * 8
			}
		}
	}
}

func (c *CPU) daa() {
	if !c.isFlagSet(FlagSubtract) {
		if c.isFlagSet(FlagCarry) || c.A > 0x99 {
			c.A += 0x60
			c.setFlag(FlagCarry)
		}
		if c.isFlagSet(FlagHalfCarry) || c.A&0xF > 0x9 {
			c.A += 0x06
		}
	} else {
		if c.isFlagSet(FlagCarry) {
			c.A -= 0x60
		}
		if c.isFlagSet(FlagHalfCarry) {
			c.A -= 0x06
		}
	}
	c.clearFlag(FlagHalfCarry)
	c.shouldZeroFlag(c.A)
}

func (c *CPU) shouldZeroFlag(v uint8) {
	if v == 0 {
		c.setFlag(FlagZero)
	} else {
		c.clearFlag(FlagZero)
	}
}

// decodeCB executes a CB-prefixed opcode: bit 6-7 select the operation
// group (rotate/shift, BIT, RES, SET), bits 3-5 select the bit index or
// rotate/shift variant, bits 0-2 select the operand register.
func (c *CPU) decodeCB(instr byte) {
	src, srcMem := c.getSourceRegister(instr)
	val := *src

	switch instr >> 6 & 0x3 {
	case 0: // rotate/shift
		var carry bool
		switch instr >> 3 & 0x7 {
		case 0: // RLC
			carry = val&types.Bit7 != 0
			val = val<<1 | val>>7
		case 1: // RRC
			carry = val&types.Bit0 != 0
			val = val>>1 | val<<7
		case 2: // RL
			carry = val&types.Bit7 != 0
			old := uint8(0)
			if c.isFlagSet(FlagCarry) {
				old = 1
			}
			val = val<<1 | old
		case 3: // RR
			carry = val&types.Bit0 != 0
			old := uint8(0)
			if c.isFlagSet(FlagCarry) {
				old = 0x80
			}
			val = val>>1 | old
		case 4: // SLA
			carry = val&types.Bit7 != 0
			val <<= 1
		case 5: // SRA
			carry = val&types.Bit0 != 0
			val = val&types.Bit7 | val>>1
		case 6: // SWAP
			val = val<<4 | val>>4
			c.setFlags(val == 0, false, false, false)
			*src = val
			if srcMem {
				c.writeByte(c.HL.Uint16(), val)
			}
			return
		case 7: // SRL
			carry = val&types.Bit0 != 0
			val >>= 1
		}
		c.setFlags(val == 0, false, false, carry)
	case 1: // BIT b, r
		bit := uint8(1) << (instr >> 3 & 0x7)
		c.setFlags(val&bit == 0, false, true, c.isFlagSet(FlagCarry))
		return // BIT never writes back
	case 2: // RES b, r
		val &^= 1 << (instr >> 3 & 0x7)
	case 3: // SET b, r
		val |= 1 << (instr >> 3 & 0x7)
	}

	*src = val
	if srcMem {
		c.writeByte(c.HL.Uint16(), val)
	}
}

// decodeALU performs the ALU op selected by instr's bits 3-5 against A
// and operand.
func (c *CPU) decodeALU(instr, operand byte) {
	switch instr >> 3 & 0x7 {
	case 0, 1: // ADD/ADC
		carryIn := uint16(0)
		if instr>>3&1 == 1 && c.isFlagSet(FlagCarry) {
			carryIn = 1
		}
		sum := uint16(c.A) + uint16(operand) + carryIn
		c.setFlags(uint8(sum) == 0, false, (c.A&0xF)+(operand&0xF)+uint8(carryIn) > 0xF, sum > 0xFF)
		c.A = uint8(sum)
	case 2, 3: // SUB/SBC
		carryIn := uint16(0)
		if instr>>3&1 == 1 && c.isFlagSet(FlagCarry) {
			carryIn = 1
		}
		diff := uint16(c.A) - uint16(operand) - carryIn
		c.setFlags(uint8(diff) == 0, true, (c.A&0xF) < (operand&0xF)+uint8(carryIn), diff > 0xFF)
		c.A = uint8(diff)
	case 4: // AND
		c.A &= operand
		c.setFlags(c.A == 0, false, true, false)
	case 5: // XOR
		c.A ^= operand
		c.setFlags(c.A == 0, false, false, false)
	case 6: // OR
		c.A |= operand
		c.setFlags(c.A == 0, false, false, false)
	case 7: // CP
		c.setFlags(c.A == operand, true, c.A&0xF < operand&0xF, c.A < operand)
	}
}

// getSourceRegister returns a pointer to the register named by the 3-bit
// index reg (B C D E H L (HL) A) and whether it is the (HL) memory
// pseudo-register. For the memory case it pre-loads the current byte at
// HL so callers can read through the pointer uniformly; they must write
// it back via HL themselves if the instruction mutates it.
func (c *CPU) getSourceRegister(reg byte) (*Register, bool) {
	reg &= 0x7
	isMem := reg == 6
	if isMem {
		c.memOperand = c.readByte(c.HL.Uint16())
	}
	return c.regByIndex[reg], isMem
}

// getFlagCondition evaluates the cc field of a conditional opcode (NZ,
// Z, NC, C, selected by bits 3-4).
func (c *CPU) getFlagCondition(instr byte) bool {
	var f bool
	if instr>>4&1 == 0 {
		f = c.isFlagSet(FlagZero)
	} else {
		f = c.isFlagSet(FlagCarry)
	}
	if instr>>3&1 == 0 {
		f = !f
	}
	return f
}

// getRegisterPair returns the register pair named by bits 4-5 of instr:
// BC, DE, HL and, for PUSH/POP (top two bits both set), AF; otherwise HL
// stands in for the SP slot, since every opcode that actually needs SP
// in that position is special-cased ahead of this table.
func (c *CPU) getRegisterPair(instr byte) RegisterPair {
	switch instr >> 4 & 0x3 {
	case 0:
		return c.BC
	case 1:
		return c.DE
	case 2:
		return c.HL
	default:
		if instr&0xC0 == 0xC0 {
			return c.AF
		}
		return c.HL
	}
}

func (c *CPU) getRegisterPairValue(instr byte) uint16 {
	switch instr >> 4 & 0x3 {
	case 0:
		return c.BC.Uint16()
	case 1:
		return c.DE.Uint16()
	case 2:
		return c.HL.Uint16()
	default:
		if instr == 0x32 || instr == 0x3A {
			return c.HL.Uint16()
		}
		return c.SP
	}
}

func (c *CPU) jumpAbsolute(take bool) {
	lo, hi := c.readOperand(), c.readOperand()
	if take {
		c.PC = uint16(hi)<<8 | uint16(lo)
		c.tickCycle()
	}
}

func (c *CPU) call(take bool) {
	lo, hi := c.readOperand(), c.readOperand()
	if take {
		c.tickCycle()
		c.push(uint8(c.PC>>8), uint8(c.PC&0xFF))
		c.PC = uint16(hi)<<8 | uint16(lo)
	}
}

func (c *CPU) ret(take bool) {
	if take {
		hi, lo := c.pop()
		c.PC = uint16(hi)<<8 | uint16(lo)
		c.tickCycle()
	}
}

// addSPSigned computes SP + signed r8, setting flags per the carry out
// of bits 3 and 7 of the low byte addition (the documented, slightly
// unintuitive ADD SP/LD HL,SP+r8 flag behavior).
func (c *CPU) addSPSigned() uint16 {
	offset := int8(c.readOperand())
	c.tickCycle()
	sum := uint32(c.SP) + uint32(int32(offset))
	c.setFlags(false, false, (c.SP&0xF)+uint16(uint8(offset)&0xF) > 0xF, (c.SP&0xFF)+uint16(uint8(offset)) > 0xFF)
	return uint16(sum)
}
