// Package cartridge parses the ROM header and implements the memory
// bank controllers (NoMBC, MBC1, MBC2, MBC3, MBC5) that back the
// 0x0000-0x7FFF and 0xA000-0xBFFF regions of the address space.
package cartridge

import (
	"github.com/dmgo-emu/dmgo-core/internal/log"
)

// Cartridge is the MMU's view of the installed ROM/RAM and its bank
// controller.
type Cartridge interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	Header() Header
	// Save returns the external RAM backing store for persistence (empty
	// when the cartridge has no RAM); it does not check whether that RAM
	// is battery-backed.
	Save() []byte
	Load(data []byte)
}

// New parses rom's header and returns the Cartridge implementation for
// its bank controller. Cartridge types outside {NoMBC, MBC1, MBC2,
// MBC3, MBC5} fall back to NoMBC with a one-time warning, per the
// documented "unsupported types may be stubbed" allowance.
func New(rom []byte, logger *log.Logger) (Cartridge, error) {
	header, err := parseHeader(rom)
	if err != nil {
		return nil, err
	}

	switch header.CartridgeType {
	case ROM, ROMRAM, ROMRAMBATT:
		return newNoMBC(rom, header), nil
	case MBC1, MBC1RAM, MBC1RAMBATT:
		return NewMemoryBankedCartridge1(rom, &header), nil
	case MBC2, MBC2BATT:
		return newMBC2(rom, header), nil
	case MBC3TIMERBATT, MBC3TIMERRAMBATT, MBC3, MBC3RAM, MBC3RAMBATT:
		return newMBC3(rom, header), nil
	case MBC5, MBC5RAM, MBC5RAMBATT, MBC5RUMBLE, MBC5RUMBLERAM, MBC5RUMBLERAMBATT:
		return newMBC5(rom, header), nil
	default:
		if logger != nil {
			logger.WarnOnce("unsupported cartridge type, falling back to NoMBC", map[string]interface{}{
				"type": header.CartridgeType,
			})
		}
		return newNoMBC(rom, header), nil
	}
}

// noMBC is a cartridge with no bank controller: a single fixed 32KB ROM
// image and, for the ROM+RAM variants, up to 8KB of unbanked external
// RAM. Writes to ROM are silently dropped.
type noMBC struct {
	rom    []byte
	ram    []byte
	header Header
}

func newNoMBC(rom []byte, header Header) *noMBC {
	return &noMBC{rom: rom, ram: make([]byte, header.RAMSize), header: header}
}

func (c *noMBC) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		idx := int(addr - 0xA000)
		if idx < len(c.ram) {
			return c.ram[idx]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (c *noMBC) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr < 0xC000 {
		idx := int(addr - 0xA000)
		if idx < len(c.ram) {
			c.ram[idx] = value
		}
	}
	// Writes into the ROM region have no controller to catch them.
}

func (c *noMBC) Header() Header   { return c.header }
func (c *noMBC) Save() []byte     { return c.ram }
func (c *noMBC) Load(data []byte) { copy(c.ram, data) }
