package cpu

import (
	"errors"
	"testing"

	"github.com/dmgo-emu/dmgo-core/internal/dmgerr"
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
)

// memBus is a flat 64KB array standing in for the MMU in CPU-only
// tests; it has none of the real memory map's region semantics.
type memBus [65536]byte

func (m *memBus) Read(addr uint16) uint8         { return m[addr] }
func (m *memBus) Write(addr uint16, value uint8) { m[addr] = value }

func newTestCPU() *CPU {
	bus := &memBus{}
	return New(bus, interrupts.New())
}

func loadProgram(c *CPU, at uint16, program ...byte) {
	bus := c.mmu.(*memBus)
	for i, b := range program {
		bus.Write(at+uint16(i), b)
	}
	c.PC = at
}

func TestStep_LDHRoundTrip(t *testing.T) {
	c := newTestCPU()
	c.A = 0x42
	// LDH (0x80), A ; LDH A, (0x80) with A cleared in between
	loadProgram(c, 0x0100, 0xE0, 0x80, 0x3E, 0x00, 0xF0, 0x80)

	cycles, _ := c.Step()
	if cycles != 12 {
		t.Fatalf("LDH (a8),A: expected 12 cycles, got %d", cycles)
	}
	if got := c.mmu.Read(0xFF80); got != 0x42 {
		t.Fatalf("expected 0xFF80 == 0x42, got %#02x", got)
	}

	c.Step() // LD A, 0x00
	if c.A != 0 {
		t.Fatalf("expected A cleared, got %#02x", c.A)
	}

	cycles, _ = c.Step() // LDH A, (0x80)
	if cycles != 12 {
		t.Fatalf("LDH A,(a8): expected 12 cycles, got %d", cycles)
	}
	if c.A != 0x42 {
		t.Fatalf("expected round-tripped A == 0x42, got %#02x", c.A)
	}
}

func TestStep_JRNZBranch(t *testing.T) {
	t.Run("taken", func(t *testing.T) {
		c := newTestCPU()
		c.clearFlag(FlagZero)
		loadProgram(c, 0x0100, 0x20, 0x05) // JR NZ, +5
		cycles, _ := c.Step()
		if cycles != 12 {
			t.Fatalf("expected taken JR NZ to cost 12 cycles, got %d", cycles)
		}
		if c.PC != 0x0107 {
			t.Fatalf("expected PC == 0x0107, got %#04x", c.PC)
		}
	})
	t.Run("not taken", func(t *testing.T) {
		c := newTestCPU()
		c.setFlag(FlagZero)
		loadProgram(c, 0x0100, 0x20, 0x05)
		cycles, _ := c.Step()
		if cycles != 8 {
			t.Fatalf("expected untaken JR NZ to cost 8 cycles, got %d", cycles)
		}
		if c.PC != 0x0102 {
			t.Fatalf("expected PC == 0x0102, got %#04x", c.PC)
		}
	})
}

func TestStep_PushPopAF_MasksLowNibble(t *testing.T) {
	c := newTestCPU()
	c.SP = 0xFFFE
	c.A, c.F = 0x12, 0x5F // low nibble of F is never meaningful
	loadProgram(c, 0x0100, 0xF5, 0xC1) // PUSH AF ; POP BC

	cycles, _ := c.Step()
	if cycles != 16 {
		t.Fatalf("PUSH AF: expected 16 cycles, got %d", cycles)
	}
	cycles, _ = c.Step()
	if cycles != 12 {
		t.Fatalf("POP BC: expected 12 cycles, got %d", cycles)
	}
	if c.B != 0x12 {
		t.Fatalf("expected B == A == 0x12, got %#02x", c.B)
	}
	if c.C != 0x50 {
		t.Fatalf("expected popped F's low nibble masked to 0, got %#02x", c.C)
	}
}

func TestStep_InterruptDispatch(t *testing.T) {
	c := newTestCPU()
	c.SP = 0xFFFE
	c.PC = 0x0150
	c.irq.IME = true
	c.irq.Enable = 1 << 0 // VBlank
	c.irq.Request(0)

	cycles, _ := c.Step() // executes the NOP at 0x0150 (4 cycles), then dispatches (20 cycles)
	if cycles != 24 {
		t.Fatalf("expected NOP+dispatch to cost 24 cycles, got %d", cycles)
	}
	if c.PC != 0x0040 {
		t.Fatalf("expected PC at VBlank vector 0x0040, got %#04x", c.PC)
	}
	if c.irq.IME {
		t.Fatal("expected IME cleared after dispatch")
	}
	if c.irq.Flag&1 != 0 {
		t.Fatal("expected IF bit cleared after dispatch")
	}
	hi, lo := c.mmu.Read(c.SP+1), c.mmu.Read(c.SP)
	if pushed := uint16(hi)<<8 | uint16(lo); pushed != 0x0151 {
		t.Fatalf("expected pushed return address 0x0151 (after the NOP), got %#04x", pushed)
	}
}

func TestStep_HaltWakesOnPendingInterrupt(t *testing.T) {
	c := newTestCPU()
	c.irq.IME = true
	loadProgram(c, 0x0100, 0x76) // HALT
	c.Step()
	if c.mode != modeHalt {
		t.Fatalf("expected CPU to enter halt mode")
	}

	c.irq.Enable = 1 << 2
	c.irq.Request(2) // Timer

	cycles, _ := c.Step()
	if c.mode != modeNormal {
		t.Fatal("expected halt to clear once an interrupt is pending")
	}
	if cycles != 24 { // 4 halted idle cycles + the 20-cycle dispatch
		t.Fatalf("expected the waking step to cost 24 cycles, got %d", cycles)
	}
}

func TestStep_EIDelaysByOneInstruction(t *testing.T) {
	c := newTestCPU()
	c.irq.Enable = 1 << 0
	loadProgram(c, 0x0100, 0xFB, 0x00, 0x00) // EI ; NOP ; NOP
	c.irq.Request(0)

	c.Step() // EI: IME not yet enabled
	if c.irq.IME {
		t.Fatal("expected IME to still be false immediately after EI")
	}

	cycles, _ := c.Step() // NOP after EI runs, IME takes effect, then the pending interrupt dispatches
	if cycles != 24 {
		t.Fatalf("expected NOP+dispatch to cost 24 cycles, got %d", cycles)
	}
	if c.PC != 0x0040 {
		t.Fatalf("expected the interrupt to dispatch on the instruction after EI, got PC=%#04x", c.PC)
	}
}

func TestStep_IllegalOpcodeFaultsAndLatches(t *testing.T) {
	c := newTestCPU()
	loadProgram(c, 0x0100, 0xD3, 0x00) // 0xD3 is not a real DMG opcode

	cycles, err := c.Step()
	if err == nil {
		t.Fatal("expected an error decoding 0xD3")
	}
	var opErr *dmgerr.OpcodeError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected an *dmgerr.OpcodeError, got %T", err)
	}
	if opErr.Opcode != 0xD3 || opErr.CB {
		t.Fatalf("expected OpcodeError{0xD3, false}, got %+v", opErr)
	}
	if !errors.Is(err, dmgerr.ErrUnknownOpcode) {
		t.Fatal("expected error to wrap dmgerr.ErrUnknownOpcode")
	}
	if cycles != 0 {
		t.Fatalf("expected a faulted step to consume no cycles, got %d", cycles)
	}
	if c.faultPC != 0x0100 {
		t.Fatalf("expected faultPC == 0x0100, got %#04x", c.faultPC)
	}

	// The CPU does not recover: every subsequent Step returns the same
	// cached error without advancing PC or decoding further.
	pcBefore := c.PC
	if _, err := c.Step(); !errors.Is(err, dmgerr.ErrUnknownOpcode) {
		t.Fatal("expected the fault to persist across further Step calls")
	}
	if c.PC != pcBefore {
		t.Fatalf("expected PC to stay put once faulted, got %#04x", c.PC)
	}
}
