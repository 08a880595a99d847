package cartridge

// rtc holds the MBC3 real-time-clock registers. Per the documented
// decision to not model wall-clock time (unspecified and untested by
// any required property), the registers never advance on their own:
// they read back whatever was last latched or written, effectively
// latched-zero on a fresh cartridge.
type rtc struct {
	seconds, minutes, hours     uint8
	daysLower, daysHigherAndCtl uint8

	latchedSeconds, latchedMinutes, latchedHours uint8
	latchedDaysLower, latchedDaysHigherAndCtl    uint8

	register       uint8
	latchFlagValue uint8
}

func (r *rtc) latch() {
	r.latchedSeconds = r.seconds
	r.latchedMinutes = r.minutes
	r.latchedHours = r.hours
	r.latchedDaysLower = r.daysLower
	r.latchedDaysHigherAndCtl = r.daysHigherAndCtl
}

// MemoryBankedCartridge3 supports up to 127 switchable ROM banks, 4 RAM
// banks, and (for the TIMER variants) the RTC register window mapped
// over the same 0xA000-0xBFFF space via bank-select values 0x08-0x0C.
type MemoryBankedCartridge3 struct {
	rom     []byte
	romBank uint32

	ram        []byte
	ramBank    int32
	ramEnabled bool

	hasRTC     bool
	rtc        *rtc
	rtcEnabled bool

	header Header
}

func newMBC3(rom []byte, header Header) *MemoryBankedCartridge3 {
	return &MemoryBankedCartridge3{
		rom:     rom,
		romBank: 1,
		ram:     make([]byte, header.RAMSize),
		hasRTC:  header.CartridgeType == MBC3TIMERBATT || header.CartridgeType == MBC3TIMERRAMBATT,
		rtc:     &rtc{},
		header:  header,
	}
}

func (m *MemoryBankedCartridge3) Header() Header   { return m.header }
func (m *MemoryBankedCartridge3) Save() []byte     { return m.ram }
func (m *MemoryBankedCartridge3) Load(data []byte) { copy(m.ram, data) }

func (m *MemoryBankedCartridge3) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return m.rom[address]
	case address < 0x8000:
		idx := uint32(address-0x4000) + m.romBank*0x4000
		if int(idx) < len(m.rom) {
			return m.rom[idx]
		}
		return 0xFF
	case address >= 0xA000 && address < 0xC000:
		if m.ramBank >= 0 {
			if !m.ramEnabled {
				return 0xFF
			}
			idx := uint32(m.ramBank)*0x2000 + uint32(address&0x1FFF)
			if int(idx) < len(m.ram) {
				return m.ram[idx]
			}
			return 0xFF
		}
		if m.hasRTC && m.rtcEnabled {
			switch m.rtc.register {
			case 0x8:
				return m.rtc.latchedSeconds
			case 0x9:
				return m.rtc.latchedMinutes
			case 0xA:
				return m.rtc.latchedHours
			case 0xB:
				return m.rtc.latchedDaysLower
			case 0xC:
				return m.rtc.latchedDaysHigherAndCtl
			}
		}
		return 0xFF
	}
	return 0xFF
}

func (m *MemoryBankedCartridge3) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		switch m.header.CartridgeType {
		case MBC3RAM, MBC3RAMBATT:
			m.ramEnabled = value&0xF == 0xA
		case MBC3TIMERBATT:
			m.rtcEnabled = value&0xF == 0xA
		case MBC3TIMERRAMBATT:
			m.ramEnabled = value&0xF == 0xA
			m.rtcEnabled = value&0xF == 0xA
		}
	case address < 0x4000:
		m.romBank = uint32(value) & 0x7F
		if banks := uint32(len(m.rom) / 0x4000); banks > 0 && m.romBank >= banks {
			m.romBank = m.romBank % banks
		}
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address < 0x6000:
		switch {
		case value >= 0x08 && value <= 0x0C:
			if m.hasRTC && m.rtcEnabled {
				m.rtc.register = value
				m.ramBank = -1
			}
		case value <= 0x03:
			m.ramBank = int32(value)
			if len(m.ram) == 0 {
				m.ramBank = 0
			} else if banks := int32(len(m.ram) / 0x2000); banks > 0 && m.ramBank >= banks {
				m.ramBank = m.ramBank % banks
			}
		}
	case address < 0x8000:
		if m.hasRTC {
			if m.rtc.latchFlagValue == 0x00 && value == 0x01 {
				m.rtc.latch()
			}
			m.rtc.latchFlagValue = value
		}
	case address >= 0xA000 && address < 0xC000:
		if m.ramBank >= 0 {
			if m.ramEnabled {
				idx := uint32(m.ramBank)*0x2000 + uint32(address&0x1FFF)
				if int(idx) < len(m.ram) {
					m.ram[idx] = value
				}
			}
		} else if m.hasRTC && m.rtcEnabled {
			switch m.rtc.register {
			case 0x8:
				m.rtc.seconds = value & 0x3F
			case 0x9:
				m.rtc.minutes = value & 0x3F
			case 0xA:
				m.rtc.hours = value & 0x1F
			case 0xB:
				m.rtc.daysLower = value
			case 0xC:
				m.rtc.daysHigherAndCtl = value & 0xC1
			}
		}
	}
}
