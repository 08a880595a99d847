package ppu

import "github.com/dmgo-emu/dmgo-core/internal/types"

// renderScanline composes one row of the framebuffer for the current LY,
// background first, then window, then sprites — each layer only
// overwriting pixels the rules in §4.5 say it should.
func (p *PPU) renderScanline() {
	y := p.ly
	if y > lastVisibleLY {
		return
	}

	var bgColorIndex [ScreenWidth]uint8
	if p.lcdc&types.Bit0 != 0 {
		p.renderBackground(y, &bgColorIndex)
	}
	if p.lcdc&types.Bit5 != 0 {
		p.renderWindow(y, &bgColorIndex)
	}
	for x := 0; x < ScreenWidth; x++ {
		p.framebuffer[y][x] = applyPalette(p.bgp, bgColorIndex[x])
	}
	if p.lcdc&types.Bit1 != 0 {
		p.renderSprites(y, bgColorIndex)
	}
}

// renderBackground fills colorIndex with the pre-palette BG color index
// (0-3) for every x on scanline y, using SCX/SCY to locate the world
// pixel and LCDC bits 3/4 to select the tile map and tile data area.
func (p *PPU) renderBackground(y uint8, colorIndex *[ScreenWidth]uint8) {
	mapBase := uint16(0x9800)
	if p.lcdc&types.Bit3 != 0 {
		mapBase = 0x9C00
	}
	worldY := uint8(int(p.scy) + int(y))
	tileRow := uint16(worldY/8) * 32
	fineY := worldY % 8

	for x := 0; x < ScreenWidth; x++ {
		worldX := uint8(int(p.scx) + x)
		tileCol := uint16(worldX / 8)
		tileNum := p.vramRead(mapBase + tileRow + tileCol)
		colorIndex[x] = p.tilePixel(tileNum, worldX%8, fineY, false)
	}
}

// renderWindow overwrites colorIndex from x=WX-7 onward on lines at or
// past WY, advancing the internal window-line counter only on lines
// that actually draw a window pixel.
func (p *PPU) renderWindow(y uint8, colorIndex *[ScreenWidth]uint8) {
	if p.wx > 166 || y < p.wy {
		return
	}
	startX := int(p.wx) - 7
	if startX >= ScreenWidth {
		return
	}

	mapBase := uint16(0x9800)
	if p.lcdc&types.Bit6 != 0 {
		mapBase = 0x9C00
	}
	tileRow := uint16(p.windowLine/8) * 32
	fineY := p.windowLine % 8

	for x := startX; x < ScreenWidth; x++ {
		if x < 0 {
			continue
		}
		winX := uint8(x - startX)
		tileCol := uint16(winX / 8)
		tileNum := p.vramRead(mapBase + tileRow + tileCol)
		colorIndex[x] = p.tilePixel(tileNum, winX%8, fineY, false)
	}
	p.windowLine++
}

// tilePixel decodes the 2-bit color at (col,row) within the tile
// identified by tileNum. BG/window addressing follows LCDC bit 4:
// 0x8000 with tileNum as an unsigned index, or 0x9000 with tileNum as
// a signed one. Objects ignore LCDC bit 4 entirely and always use the
// 0x8000 unsigned form (objMode true) — only BG/window honor the bit.
func (p *PPU) tilePixel(tileNum uint8, col, row uint8, objMode bool) uint8 {
	var base uint16
	if objMode || p.lcdc&types.Bit4 != 0 {
		base = 0x8000 + uint16(tileNum)*16
	} else {
		base = uint16(int32(0x9000) + int32(int8(tileNum))*16)
	}
	addr := base + uint16(row)*2
	lo := p.vramRead(addr)
	hi := p.vramRead(addr + 1)
	bit := 7 - col
	return ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
}

func (p *PPU) vramRead(addr uint16) uint8 {
	return p.vram[addr-types.VRAMStart]
}

// sprite is one OAM entry's fields, pre-extracted for sorting and
// scanline intersection tests.
type sprite struct {
	y, x       int
	tile, attr uint8
	oamIndex   int
}

// renderSprites scans OAM for up to 10 sprites intersecting y, then
// draws them in reverse priority order (lowest priority first) so that
// higher-priority sprites' per-pixel writes land last — a sprite whose
// X is strictly less than a previously-drawn one, or whose X ties and
// OAM index is lower, wins the pixel per the DMG rule in §4.5.
func (p *PPU) renderSprites(y uint8, bgColorIndex [ScreenWidth]uint8) {
	height := 8
	if p.lcdc&types.Bit2 != 0 {
		height = 16
	}

	var candidates []sprite
	for i := 0; i < 40 && len(candidates) < 10; i++ {
		base := i * 4
		sy := int(p.oam[base]) - 16
		sx := int(p.oam[base+1]) - 8
		if int(y) < sy || int(y) >= sy+height {
			continue
		}
		candidates = append(candidates, sprite{
			y: sy, x: sx,
			tile:     p.oam[base+2],
			attr:     p.oam[base+3],
			oamIndex: i,
		})
	}

	// Priority order is X ascending, then OAM index ascending; drawing
	// in the reverse of that order lets the in-priority-order sprite's
	// write happen last and thus win.
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			iLower := candidates[i].x < candidates[j].x ||
				(candidates[i].x == candidates[j].x && candidates[i].oamIndex < candidates[j].oamIndex)
			if !iLower {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	for k := len(candidates) - 1; k >= 0; k-- {
		p.drawSprite(candidates[k], y, height, bgColorIndex)
	}
}

func (p *PPU) drawSprite(s sprite, y uint8, height int, bgColorIndex [ScreenWidth]uint8) {
	row := int(y) - s.y
	if s.attr&types.Bit6 != 0 {
		row = height - 1 - row
	}
	tile := s.tile
	if height == 16 {
		tile &^= 0x01
		if row >= 8 {
			tile |= 0x01
			row -= 8
		}
	}

	palette := p.obp0
	if s.attr&types.Bit4 != 0 {
		palette = p.obp1
	}
	bgOverObj := s.attr&types.Bit7 != 0
	flipX := s.attr&types.Bit5 != 0

	for col := 0; col < 8; col++ {
		x := s.x + col
		if x < 0 || x >= ScreenWidth {
			continue
		}
		srcCol := uint8(col)
		if flipX {
			srcCol = 7 - srcCol
		}
		ci := p.tilePixel(tile, srcCol, uint8(row), true)
		if ci == 0 {
			continue
		}
		if bgOverObj && bgColorIndex[x] != 0 {
			continue
		}
		p.framebuffer[y][x] = applyPalette(palette, ci)
	}
}

// applyPalette maps a 2-bit color index through a BGP/OBP0/OBP1-style
// palette byte (two bits per index) to its final 2-bit shade.
func applyPalette(palette uint8, colorIndex uint8) uint8 {
	return (palette >> (colorIndex * 2)) & 0x03
}
