package mmu

import (
	"testing"

	"github.com/dmgo-emu/dmgo-core/internal/cartridge"
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
)

// fakeCart is a minimal Cartridge stub for MMU-level tests that don't
// care about bank switching.
type fakeCart struct{ ram [0x2000]uint8 }

func (f *fakeCart) Read(addr uint16) uint8 {
	if addr >= 0xA000 {
		return f.ram[addr-0xA000]
	}
	return 0
}
func (f *fakeCart) Write(addr uint16, v uint8) {
	if addr >= 0xA000 {
		f.ram[addr-0xA000] = v
	}
}
func (f *fakeCart) Header() cartridge.Header { return cartridge.Header{} }
func (f *fakeCart) Save() []byte             { return nil }
func (f *fakeCart) Load(data []byte)         {}

type fakeVideo struct{ mem [0x2000 + 0xA0]uint8 }

func (v *fakeVideo) Read(addr uint16) uint8 {
	if addr <= 0x9FFF {
		return v.mem[addr-0x8000]
	}
	return v.mem[0x2000+(addr-0xFE00)]
}
func (v *fakeVideo) Write(addr uint16, value uint8) {
	if addr <= 0x9FFF {
		v.mem[addr-0x8000] = value
		return
	}
	v.mem[0x2000+(addr-0xFE00)] = value
}

func TestMMU_EchoRAMAliasesWRAM(t *testing.T) {
	m := New(nil, interrupts.New())
	m.Write(0xC010, 0x42)
	if got := m.Read(0xE010); got != 0x42 {
		t.Fatalf("expected echo read to see WRAM write, got %#02x", got)
	}
	m.Write(0xE020, 0x99)
	if got := m.Read(0xC020); got != 0x99 {
		t.Fatalf("expected WRAM read to see echo write, got %#02x", got)
	}
}

func TestMMU_UnusableRegionReadsFF(t *testing.T) {
	m := New(nil, interrupts.New())
	if got := m.Read(0xFEA0); got != 0xFF {
		t.Fatalf("expected unusable region to read 0xFF, got %#02x", got)
	}
}

func TestMMU_DMACopiesToOAM(t *testing.T) {
	m := New(&fakeCart{}, interrupts.New())
	video := &fakeVideo{}
	m.Video = video

	for i := uint16(0); i < 0xA0; i++ {
		m.Write(0xC000+i, uint8(i))
	}
	m.Write(0xFF46, 0xC0) // DMA from 0xC000

	for i := uint16(0); i < 0xA0; i++ {
		if got := m.Read(0xFE00 + i); got != uint8(i) {
			t.Fatalf("expected OAM[%d] == %d after DMA, got %d", i, i, got)
		}
	}
}

func TestMMU_IERegisterSharesInterruptController(t *testing.T) {
	irq := interrupts.New()
	m := New(nil, irq)
	m.Write(0xFFFF, 0x1F)
	if irq.Enable != 0x1F {
		t.Fatalf("expected IE write to update the interrupt controller, got %#02x", irq.Enable)
	}
	if got := m.Read(0xFFFF); got != 0x1F {
		t.Fatalf("expected IE read to reflect the controller, got %#02x", got)
	}
}
