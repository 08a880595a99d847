package ppu

import (
	"testing"

	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
	"github.com/dmgo-emu/dmgo-core/internal/types"
)

func newTestPPU() *PPU {
	irq := interrupts.New()
	p := New(irq)
	p.lcdc = 0x91
	return p
}

// tickN advances p by n T-states. Tick takes a uint8 cycle count (one
// CPU step's worth), so longer spans are fed in one cycle at a time.
func tickN(p *PPU, n int) {
	for ; n > 0; n-- {
		p.Tick(1)
	}
}

func TestPPU_ModeCycleTable(t *testing.T) {
	p := newTestPPU()

	if p.mode != ModeOAMScan {
		t.Fatalf("expected to start in OAMScan, got %d", p.mode)
	}
	p.Tick(79)
	if p.mode != ModeOAMScan {
		t.Fatalf("expected still OAMScan at 79 cycles, got %d", p.mode)
	}
	p.Tick(1) // 80: OAMScan -> Drawing
	if p.mode != ModeDrawing {
		t.Fatalf("expected Drawing at 80 cycles, got %d", p.mode)
	}
	p.Tick(171)
	if p.mode != ModeDrawing {
		t.Fatalf("expected still Drawing at 251 cycles, got %d", p.mode)
	}
	p.Tick(1) // 252: Drawing -> HBlank
	if p.mode != ModeHBlank {
		t.Fatalf("expected HBlank at 252 cycles, got %d", p.mode)
	}
	p.Tick(203)
	if p.mode != ModeHBlank {
		t.Fatalf("expected still HBlank at 455 cycles, got %d", p.mode)
	}
	p.Tick(1) // 456: line boundary, LY advances to 1, back to OAMScan
	if p.ly != 1 || p.mode != ModeOAMScan {
		t.Fatalf("expected LY=1, OAMScan at line end, got LY=%d mode=%d", p.ly, p.mode)
	}
}

func TestPPU_VBlankEntryRequestsInterruptAndSpans10Lines(t *testing.T) {
	irq := interrupts.New()
	p := New(irq)
	p.lcdc = 0x91

	for line := 0; line < 144; line++ {
		tickN(p, cyclesPerLine)
	}
	if p.ly != 144 {
		t.Fatalf("expected LY==144 entering VBlank, got %d", p.ly)
	}
	if p.mode != ModeVBlank {
		t.Fatalf("expected VBlank mode, got %d", p.mode)
	}
	if irq.Flag&(1<<types.InterruptVBlank) == 0 {
		t.Fatal("expected VBLANK interrupt requested unconditionally on VBlank entry")
	}

	irq.Flag = 0
	tickN(p, cyclesPerLine*10)
	if p.ly != 0 || p.mode != ModeOAMScan {
		t.Fatalf("expected to exit VBlank back to line 0 OAMScan after 10 lines, got LY=%d mode=%d", p.ly, p.mode)
	}
}

func TestPPU_LYCCoincidenceRequestsSTATOnRisingEdge(t *testing.T) {
	irq := interrupts.New()
	p := New(irq)
	p.lcdc = 0x91
	p.Write(types.STAT, 0x40) // enable LYC==LY STAT interrupt
	p.Write(types.LYC, 1)

	tickN(p, cyclesPerLine) // LY: 0 -> 1, should match LYC
	if irq.Flag&(1<<types.InterruptLCDStat) == 0 {
		t.Fatal("expected STAT interrupt requested on LY==LYC rising edge")
	}
	if p.Read(types.STAT)&0x04 == 0 {
		t.Fatal("expected STAT bit 2 set while LY==LYC")
	}
}

func TestPPU_LYWritesAreIgnored(t *testing.T) {
	p := newTestPPU()
	p.Write(types.LY, 50)
	if p.ly != 0 {
		t.Fatalf("expected LY write to be ignored, got %d", p.ly)
	}
}

// TestPPU_SpritePriorityByXThenOAMIndex implements the "sprite priority"
// seed scenario: two overlapping opaque sprite pixels on the same line
// must resolve to the one with the lower X, with OAM index breaking
// ties at equal X.
func TestPPU_SpritePriorityByXThenOAMIndex(t *testing.T) {
	p := newTestPPU()
	p.lcdc = 0x93       // LCD on, BG+sprites on, 8x8 sprites
	p.obp0 = 0xE4       // identity palette: color index n shades to n

	// Tile 1 is opaque color index 1 everywhere; tile 2 is opaque color
	// index 2 everywhere, so the framebuffer value tells us which
	// sprite's pixel won the overlap.
	writeTile(p, 1, 0xFF, 0x00) // lo bit set, hi bit clear -> color index 1
	writeTile(p, 2, 0x00, 0xFF) // lo bit clear, hi bit set -> color index 2

	// Sprite A (OAM index 0, tile 1) at X=10, sprite B (OAM index 1,
	// tile 2) at X=12; both cover Y=20 and overlap in columns 12-17.
	// Per the DMG rule, the lower-X sprite (A) wins the overlap.
	writeSprite(p, 0, 20+16, 10+8, 1, 0)
	writeSprite(p, 1, 20+16, 12+8, 2, 0)

	var bg [ScreenWidth]uint8 // BG transparent (index 0) everywhere
	p.renderSprites(20, bg)

	for x := 12; x < 18; x++ {
		if p.framebuffer[20][x] != 1 {
			t.Fatalf("expected overlap column %d to show sprite A's color index 1, got %d", x, p.framebuffer[20][x])
		}
	}
	for x := 10; x < 12; x++ {
		if p.framebuffer[20][x] != 1 {
			t.Fatalf("expected column %d (A only) to show color index 1, got %d", x, p.framebuffer[20][x])
		}
	}
	for x := 18; x < 20; x++ {
		if p.framebuffer[20][x] != 2 {
			t.Fatalf("expected column %d (B only) to show color index 2, got %d", x, p.framebuffer[20][x])
		}
	}
}

// writeTile fills every row of VRAM tile index with the same lo/hi byte
// pair, so every column decodes to the same color index.
func writeTile(p *PPU, index int, lo, hi uint8) {
	base := uint16(0x8000+index*16) - 0x8000
	for row := uint16(0); row < 8; row++ {
		p.vram[base+row*2] = lo
		p.vram[base+row*2+1] = hi
	}
}

func writeSprite(p *PPU, oamIndex, y, x, tile, attr int) {
	base := oamIndex * 4
	p.oam[base] = uint8(y)
	p.oam[base+1] = uint8(x)
	p.oam[base+2] = uint8(tile)
	p.oam[base+3] = uint8(attr)
}
