// Package mmu implements the DMG's 64 KiB address space dispatch: it owns
// WRAM, HRAM, and the OAM DMA trigger, routes the cartridge's ROM/external
// RAM windows to the attached Cartridge, and routes I/O register addresses
// to Video, Sound, Timer, and Joypad. It is otherwise stateless with
// respect to the components it dispatches to.
package mmu

import (
	"github.com/dmgo-emu/dmgo-core/internal/cartridge"
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
	"github.com/dmgo-emu/dmgo-core/internal/types"
)

// Video is the subset of the PPU the MMU dispatches VRAM/OAM/LCD register
// reads and writes to.
type Video interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Sound is the subset of the APU the MMU dispatches the NR1x-NR5x and
// wave RAM windows to.
type Sound interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Timer is the subset of internal/timer the MMU dispatches DIV/TIMA/TMA/TAC
// to.
type Timer interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Joypad is the subset of internal/joypad the MMU dispatches 0xFF00 to.
type Joypad interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// MMU dispatches the full 64 KiB DMG address space across the
// cartridge, video, sound, timer, and joypad components, and owns the
// regions no other component claims: WRAM and HRAM. It also handles the
// OAM DMA trigger.
type MMU struct {
	Cart   cartridge.Cartridge
	Video  Video
	Sound  Sound
	Timer  Timer
	Joypad Joypad
	irq    *interrupts.Controller

	wram [0x2000]uint8
	hram [0x7F]uint8
}

// New returns an MMU wired to its components. Video, Sound, Timer, and
// Joypad may be attached after construction via the exported fields, to
// break the natural construction cycle where the PPU/APU often want a
// reference back to the MMU for DMA or bus snooping.
func New(cart cartridge.Cartridge, irq *interrupts.Controller) *MMU {
	return &MMU{Cart: cart, irq: irq}
}

// Read returns the byte at addr, dispatching to the owning region.
// Addresses with no backing region (unusable memory, an unattached I/O
// window) return 0xFF, per the documented non-fatal out-of-range policy.
func (m *MMU) Read(addr uint16) uint8 {
	switch {
	case addr < types.ROMBankNEnd+1, addr >= types.ExtRAMStart && addr <= types.ExtRAMEnd:
		return m.Cart.Read(addr)
	case addr >= types.VRAMStart && addr <= types.VRAMEnd:
		return m.Video.Read(addr)
	case addr >= types.WRAMStart && addr <= types.WRAMEnd:
		return m.wram[addr-types.WRAMStart]
	case addr >= types.EchoStart && addr <= types.EchoEnd:
		return m.wram[addr-types.EchoStart]
	case addr >= types.OAMStart && addr <= types.OAMEnd:
		return m.Video.Read(addr)
	case addr >= types.UnusableStart && addr <= types.UnusableEnd:
		return 0xFF
	case addr == types.IF:
		return m.irq.Flag | 0xE0
	case addr == types.P1:
		return m.Joypad.Read(addr)
	case addr >= types.DIV && addr <= types.TAC:
		return m.Timer.Read(addr)
	case addr >= types.NR10 && addr <= types.WaveRAMEnd:
		return m.Sound.Read(addr)
	case addr >= types.LCDC && addr <= types.WX:
		return m.Video.Read(addr)
	case addr >= types.HRAMStart && addr <= types.HRAMEnd:
		return m.hram[addr-types.HRAMStart]
	case addr == types.IE:
		return m.irq.Enable
	default:
		return 0xFF
	}
}

// Write routes value to the owning region. Writes to unbacked regions
// (ROM outside a control register window, unusable memory) are dropped.
func (m *MMU) Write(addr uint16, value uint8) {
	switch {
	case addr < types.ROMBankNEnd+1, addr >= types.ExtRAMStart && addr <= types.ExtRAMEnd:
		m.Cart.Write(addr, value)
	case addr >= types.VRAMStart && addr <= types.VRAMEnd:
		m.Video.Write(addr, value)
	case addr >= types.WRAMStart && addr <= types.WRAMEnd:
		m.wram[addr-types.WRAMStart] = value
	case addr >= types.EchoStart && addr <= types.EchoEnd:
		m.wram[addr-types.EchoStart] = value
	case addr >= types.OAMStart && addr <= types.OAMEnd:
		m.Video.Write(addr, value)
	case addr >= types.UnusableStart && addr <= types.UnusableEnd:
		// dropped
	case addr == types.IF:
		m.irq.Flag = value & 0x1F
	case addr == types.P1:
		m.Joypad.Write(addr, value)
	case addr >= types.DIV && addr <= types.TAC:
		m.Timer.Write(addr, value)
	case addr == types.DMA:
		m.doDMA(value)
	case addr >= types.NR10 && addr <= types.WaveRAMEnd:
		m.Sound.Write(addr, value)
	case addr >= types.LCDC && addr <= types.WX:
		m.Video.Write(addr, value)
	case addr >= types.HRAMStart && addr <= types.HRAMEnd:
		m.hram[addr-types.HRAMStart] = value
	case addr == types.IE:
		m.irq.Enable = value
	default:
		// dropped
	}
}

// doDMA copies 160 bytes from (value<<8) into OAM, modeled as atomic:
// the source read and destination write both happen within this call,
// with no interleaved CPU access to anything but HRAM observable.
func (m *MMU) doDMA(value uint8) {
	src := uint16(value) << 8
	for i := uint16(0); i < 0xA0; i++ {
		b := m.Read(src + i)
		m.Video.Write(types.OAMStart+i, b)
	}
}
