package timer

import (
	"testing"

	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
)

// tickN advances c by n T-states. Tick takes a uint8 cycle count (one
// CPU step's worth), so longer spans are fed in one cycle at a time.
func tickN(c *Controller, n int) {
	for ; n > 0; n-- {
		c.Tick(1)
	}
}

func TestController_DIVIncrementsEvery256Cycles(t *testing.T) {
	c := New(interrupts.New())
	c.Tick(255)
	if got := c.Read(0xFF04); got != 0 {
		t.Fatalf("expected DIV still 0 after 255 cycles, got %d", got)
	}
	c.Tick(1)
	if got := c.Read(0xFF04); got != 1 {
		t.Fatalf("expected DIV == 1 after 256 cycles, got %d", got)
	}
}

func TestController_WriteToDIVResetsIt(t *testing.T) {
	c := New(interrupts.New())
	tickN(c, 1000)
	c.Write(0xFF04, 0x99) // any write resets DIV to 0
	if got := c.Read(0xFF04); got != 0 {
		t.Fatalf("expected DIV reset to 0, got %d", got)
	}
}

func TestController_TIMAOverflowReloadsAndInterrupts(t *testing.T) {
	irq := interrupts.New()
	c := New(irq)
	c.Write(0xFF06, 0x12) // TMA
	c.Write(0xFF05, 0xFF) // TIMA about to overflow
	c.Write(0xFF07, 0x05) // TAC: enabled, rate = 16 cycles

	c.Tick(16)

	if got := c.Read(0xFF05); got != 0x00 {
		t.Fatalf("expected TIMA == 0x00 the cycle it overflows, got %#02x", got)
	}
	if irq.Flag&(1<<2) != 0 {
		t.Fatal("expected Timer interrupt not yet requested the cycle TIMA overflows")
	}

	c.Tick(1)

	if got := c.Read(0xFF05); got != 0x12 {
		t.Fatalf("expected TIMA reloaded from TMA (0x12) one cycle later, got %#02x", got)
	}
	if irq.Flag&(1<<2) == 0 {
		t.Fatal("expected Timer interrupt flag (IF bit 2) set one cycle after overflow")
	}
}

func TestController_DisabledTACDoesNotIncrementTIMA(t *testing.T) {
	c := New(interrupts.New())
	c.Write(0xFF07, 0x01) // rate selected, but enable bit clear
	tickN(c, 1024)
	if got := c.Read(0xFF05); got != 0 {
		t.Fatalf("expected TIMA to stay 0 while disabled, got %d", got)
	}
}
