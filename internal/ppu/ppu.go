// Package ppu implements the DMG pixel processing unit: a scanline state
// machine driven by elapsed CPU cycles, owning VRAM/OAM and the LCD
// registers, and a background/window/sprite compositor that produces a
// 160x144 framebuffer of 2-bit palette indices per completed scanline.
package ppu

import (
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
	"github.com/dmgo-emu/dmgo-core/internal/types"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	cyclesOAMScan  = 80
	cyclesDrawing  = 172
	cyclesHBlank   = 204
	cyclesPerLine  = 456
	lastVisibleLY  = 143
	lastScanlineLY = 153
)

// Mode is the PPU's current position within a scanline, mirroring the
// two mode bits of STAT.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeDrawing
)

// PPU owns VRAM, OAM, and the LCD registers, and renders into an
// internal framebuffer one scanline at a time.
type PPU struct {
	vram [0x2000]uint8
	oam  [0xA0]uint8

	lcdc, stat          uint8
	scy, scx            uint8
	ly, lyc             uint8
	bgp, obp0, obp1     uint8
	wy, wx              uint8
	windowLine          uint8

	dot  int
	mode Mode

	irq *interrupts.Controller

	framebuffer [ScreenHeight][ScreenWidth]uint8
	frameReady  bool
}

// New returns a PPU with the documented post-boot register values
// (LCDC=0x91, BGP=0xFC) and VRAM/OAM zeroed.
func New(irq *interrupts.Controller) *PPU {
	p := &PPU{irq: irq, lcdc: 0x91, bgp: 0xFC}
	p.stat = uint8(ModeOAMScan)
	p.mode = ModeOAMScan
	return p
}

// Read returns the byte at addr for the VRAM (0x8000-0x9FFF), OAM
// (0xFE00-0xFE9F), and LCD register (0xFF40-0xFF4B) windows the MMU
// routes here.
func (p *PPU) Read(addr uint16) uint8 {
	switch {
	case addr >= types.VRAMStart && addr <= types.VRAMEnd:
		return p.vram[addr-types.VRAMStart]
	case addr >= types.OAMStart && addr <= types.OAMEnd:
		return p.oam[addr-types.OAMStart]
	case addr == types.LCDC:
		return p.lcdc
	case addr == types.STAT:
		// Bit 7 always reads high on DMG hardware; bits 0-2 are the
		// live mode/coincidence bits, bits 3-6 are the enable latches.
		return 0x80 | p.stat
	case addr == types.SCY:
		return p.scy
	case addr == types.SCX:
		return p.scx
	case addr == types.LY:
		return p.ly
	case addr == types.LYC:
		return p.lyc
	case addr == types.BGP:
		return p.bgp
	case addr == types.OBP0:
		return p.obp0
	case addr == types.OBP1:
		return p.obp1
	case addr == types.WY:
		return p.wy
	case addr == types.WX:
		return p.wx
	default:
		return 0xFF
	}
}

// Write handles the same windows as Read. Writes to LY are ignored;
// STAT's mode bits (0-1) and LYC-coincidence bit (2) are read-only and
// preserved regardless of value.
func (p *PPU) Write(addr uint16, value uint8) {
	switch {
	case addr >= types.VRAMStart && addr <= types.VRAMEnd:
		p.vram[addr-types.VRAMStart] = value
	case addr >= types.OAMStart && addr <= types.OAMEnd:
		p.oam[addr-types.OAMStart] = value
	case addr == types.LCDC:
		p.lcdc = value
	case addr == types.STAT:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == types.SCY:
		p.scy = value
	case addr == types.SCX:
		p.scx = value
	case addr == types.LY:
		// ignored
	case addr == types.LYC:
		p.lyc = value
		p.updateCoincidence()
	case addr == types.BGP:
		p.bgp = value
	case addr == types.OBP0:
		p.obp0 = value
	case addr == types.OBP1:
		p.obp1 = value
	case addr == types.WY:
		p.wy = value
	case addr == types.WX:
		p.wx = value
	}
}

// Tick advances the PPU by cycles T-states, crossing mode and scanline
// boundaries as needed, rendering each visible scanline once Drawing
// ends, and requesting VBLANK/STAT interrupts at the documented
// transitions. It is a no-op while the LCD is off (LCDC bit 7 clear).
func (p *PPU) Tick(cycles uint8) {
	if p.lcdc&types.Bit7 == 0 {
		return
	}
	for i := uint8(0); i < cycles; i++ {
		p.tickOne()
	}
}

func (p *PPU) tickOne() {
	p.dot++

	switch p.mode {
	case ModeOAMScan:
		if p.dot == cyclesOAMScan {
			p.setMode(ModeDrawing)
		}
	case ModeDrawing:
		if p.dot == cyclesOAMScan+cyclesDrawing {
			p.renderScanline()
			p.setMode(ModeHBlank)
		}
	case ModeHBlank, ModeVBlank:
		// handled by the line-boundary check below
	}

	if p.dot >= cyclesPerLine {
		p.dot = 0
		p.advanceLine()
	}
}

func (p *PPU) advanceLine() {
	p.ly++
	if p.ly > lastScanlineLY {
		p.ly = 0
		p.windowLine = 0
	}
	p.updateCoincidence()

	if p.ly > lastVisibleLY {
		if p.mode != ModeVBlank {
			p.setMode(ModeVBlank)
		}
		return
	}
	p.setMode(ModeOAMScan)
}

// setMode updates the STAT mode bits and requests the STAT interrupt
// for modes that enable it (bits 3,4,5 for HBlank, VBlank, OAMScan
// respectively); entry into VBlank unconditionally requests IF bit 0.
func (p *PPU) setMode(mode Mode) {
	p.mode = mode
	p.stat = (p.stat &^ 0x03) | uint8(mode)

	switch mode {
	case ModeHBlank:
		if p.stat&types.Bit3 != 0 {
			p.irq.Request(types.InterruptLCDStat)
		}
	case ModeVBlank:
		p.irq.Request(types.InterruptVBlank)
		if p.stat&types.Bit4 != 0 {
			p.irq.Request(types.InterruptLCDStat)
		}
		p.frameReady = true
	case ModeOAMScan:
		if p.stat&types.Bit5 != 0 {
			p.irq.Request(types.InterruptLCDStat)
		}
	}
}

// updateCoincidence refreshes STAT bit 2 (LY==LYC) and requests a STAT
// interrupt on its rising edge when STAT bit 6 is set.
func (p *PPU) updateCoincidence() {
	was := p.stat&types.Bit2 != 0
	is := p.ly == p.lyc
	if is {
		p.stat |= types.Bit2
	} else {
		p.stat &^= types.Bit2
	}
	if is && !was && p.stat&types.Bit6 != 0 {
		p.irq.Request(types.InterruptLCDStat)
	}
}

// FrameReady reports whether a full frame has been composed since the
// last ConsumeFrame call.
func (p *PPU) FrameReady() bool { return p.frameReady }

// ConsumeFrame returns the completed framebuffer of 2-bit palette
// indices and clears the ready flag.
func (p *PPU) ConsumeFrame() [ScreenHeight][ScreenWidth]uint8 {
	p.frameReady = false
	return p.framebuffer
}
