// Package cpu implements the Sharp LR35902 instruction set and interrupt
// handshake used by the DMG.
package cpu

import (
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
)

// Bus is the memory-mapped address space the CPU reads and writes
// through. internal/mmu.MMU satisfies this.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

type mode uint8

const (
	modeNormal mode = iota
	modeHalt
	modeStop
	modeHaltBug
	modeEnableIME
)

// CPU executes instructions against a Bus, ticking currentTick by one
// M-cycle (4 T-states) per memory access or internal delay. Step runs exactly one
// instruction (or one halted/stopped tick) and returns the T-states it
// consumed; the caller is responsible for advancing Timer/PPU/APU by
// that amount afterward.
type CPU struct {
	PC, SP uint16
	Registers

	mmu Bus
	irq *interrupts.Controller

	// Debug mirrors the teacher's LD B,B breakpoint convention: a
	// debugger can poll DebugBreakpoint after Step to implement a
	// software breakpoint without instrumenting every opcode.
	Debug           bool
	DebugBreakpoint bool

	mode        mode
	currentTick uint8

	// err latches an unrecoverable decode failure (an opcode the DMG
	// itself treats as illegal). Step returns it once set; the CPU does
	// not execute further instructions afterward.
	err    error
	faultPC uint16
}

// New returns a CPU wired to bus and irq. Registers start zeroed; callers
// that want the documented post-boot register values should set them
// via Reset.
func New(bus Bus, irq *interrupts.Controller) *CPU {
	c := &CPU{
		mmu: bus,
		irq: irq,
	}
	c.Registers.init()
	return c
}

// Reset sets PC, SP and the registers to the documented DMG post-boot
// state (as if the boot ROM had just handed off to the cartridge).
func (c *CPU) Reset() {
	c.PC = 0x0100
	c.SP = 0xFFFE
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.mode = modeNormal
}

// Step executes one instruction (or, while halted/stopped, one idle
// tick) and services a pending interrupt if one is latched afterward.
// It returns the number of T-states consumed and, if the opcode fetched
// was one of the DMG's illegal opcodes, zero cycles and a non-nil error;
// PC is left just past the opcode that failed, whose address is kept in
// faultPC, and the CPU stops decoding further opcodes until the host
// decides how to proceed.
func (c *CPU) Step() (uint8, error) {
	if c.err != nil {
		return 0, c.err
	}

	c.currentTick = 0

	switch c.mode {
	case modeNormal:
		pc := c.PC
		c.decode(c.fetch())
		if c.err == nil {
			c.serviceIfPending()
		} else {
			c.faultPC = pc
		}
	case modeEnableIME:
		c.irq.IME = true
		c.mode = modeNormal
		pc := c.PC
		c.decode(c.fetch())
		if c.err == nil {
			c.serviceIfPending()
		} else {
			c.faultPC = pc
		}
	case modeHaltBug:
		// The HALT bug: PC fails to advance past the opcode that
		// follows HALT, so that opcode executes twice.
		pc := c.PC
		op := c.fetch()
		c.PC--
		c.mode = modeNormal
		c.decode(op)
		if c.err == nil {
			c.serviceIfPending()
		} else {
			c.faultPC = pc
		}
	case modeHalt, modeStop:
		c.tickCycle()
		if c.irq.Pending() {
			c.mode = modeNormal
			if c.irq.IME {
				c.serviceIfPending()
			}
		}
	}

	if c.err != nil {
		return 0, c.err
	}
	return c.currentTick, nil
}

func (c *CPU) serviceIfPending() {
	if !c.irq.IME {
		return
	}
	bit, vector, ok := c.irq.Next()
	if !ok {
		return
	}
	c.serviceInterrupt(bit, vector)
}

// serviceInterrupt pushes PC and jumps to vector, consuming the
// documented 20 cycles: two internal delay cycles, one per pushed byte,
// and one to load PC.
func (c *CPU) serviceInterrupt(bit int, vector uint16) {
	c.tickCycle()
	c.tickCycle()
	c.SP--
	c.writeByte(c.SP, uint8(c.PC>>8))
	c.SP--
	c.writeByte(c.SP, uint8(c.PC&0xFF))
	c.irq.Ack(bit)
	c.PC = vector
	c.irq.IME = false
	c.tickCycle()
	c.mode = modeNormal
}

// fetch reads the opcode at PC and advances it, ticking one M-cycle.
func (c *CPU) fetch() uint8 {
	return c.readOperand()
}

// readOperand reads the byte at PC and advances PC, ticking one M-cycle.
func (c *CPU) readOperand() uint8 {
	c.tickCycle()
	v := c.mmu.Read(c.PC)
	c.PC++
	return v
}

// readByte reads addr, ticking one M-cycle.
func (c *CPU) readByte(addr uint16) uint8 {
	c.tickCycle()
	return c.mmu.Read(addr)
}

// writeByte writes value to addr, ticking one M-cycle.
func (c *CPU) writeByte(addr uint16, value uint8) {
	c.tickCycle()
	c.mmu.Write(addr, value)
}

// tickCycle advances the instruction's cycle counter by one M-cycle (4
// T-states). The CPU does not tick Timer/PPU/APU itself; the owning
// tick loop advances those by CPU.Step's return value once the whole
// instruction has run.
func (c *CPU) tickCycle() {
	c.currentTick += 4
}

func (c *CPU) push(hi, lo uint8) {
	c.SP--
	c.writeByte(c.SP, hi)
	c.SP--
	c.writeByte(c.SP, lo)
}

func (c *CPU) pop() (hi, lo uint8) {
	lo = c.readByte(c.SP)
	c.SP++
	hi = c.readByte(c.SP)
	c.SP++
	return
}

func (c *CPU) setFlags(zero, subtract, halfCarry, carry bool) {
	var f uint8
	if zero {
		f |= 1 << FlagZero
	}
	if subtract {
		f |= 1 << FlagSubtract
	}
	if halfCarry {
		f |= 1 << FlagHalfCarry
	}
	if carry {
		f |= 1 << FlagCarry
	}
	c.F = f
}
