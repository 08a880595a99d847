package cartridge

import "github.com/dmgo-emu/dmgo-core/internal/dmgerr"

// Type is the cartridge-type byte at 0x0147, identifying the installed
// memory bank controller (if any) and whether it carries RAM/battery.
type Type uint8

const (
	ROM           Type = 0x00
	MBC1          Type = 0x01
	MBC1RAM       Type = 0x02
	MBC1RAMBATT   Type = 0x03
	MBC2          Type = 0x05
	MBC2BATT      Type = 0x06
	ROMRAM        Type = 0x08
	ROMRAMBATT    Type = 0x09
	MBC3TIMERBATT   Type = 0x0F
	MBC3TIMERRAMBATT Type = 0x10
	MBC3          Type = 0x11
	MBC3RAM       Type = 0x12
	MBC3RAMBATT   Type = 0x13
	MBC5          Type = 0x19
	MBC5RAM       Type = 0x1A
	MBC5RAMBATT   Type = 0x1B
	MBC5RUMBLE       Type = 0x1C
	MBC5RUMBLERAM    Type = 0x1D
	MBC5RUMBLERAMBATT Type = 0x1E
)

// ramSizeBytes maps the 0x0149 RAM-size byte to the external RAM size in
// bytes.
var ramSizeBytes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Header is the parsed and validated content of the ROM header at
// 0x0100-0x014F.
type Header struct {
	Title         string
	CartridgeType Type
	ROMSize       int
	RAMSize       int
}

// parseHeader reads and validates rom's header. It fails with
// dmgerr.InvalidHeader if the ROM is too short for a header or its
// checksum at 0x014D does not match the bytes at 0x0134-0x014C.
func parseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x0150 {
		return Header{}, dmgerr.InvalidHeader("ROM shorter than the fixed header region")
	}

	var sum uint8
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	if want := rom[0x014D]; sum != want {
		return Header{}, dmgerr.InvalidHeader("header checksum mismatch")
	}

	title := make([]byte, 0, 16)
	for _, b := range rom[0x0134:0x0144] {
		if b == 0 {
			break
		}
		title = append(title, b)
	}

	ramSize, ok := ramSizeBytes[rom[0x0149]]
	if !ok {
		ramSize = 0
	}

	return Header{
		Title:         string(title),
		CartridgeType: Type(rom[0x0147]),
		ROMSize:       32 * 1024 << rom[0x0148],
		RAMSize:       ramSize,
	}, nil
}
