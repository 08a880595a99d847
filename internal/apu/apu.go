// Package apu implements DMG audio register bookkeeping: the four
// channels' length counters, frequency timers, envelope, and sweep
// state advance exactly as the real hardware's frame sequencer drives
// them, but no samples are generated. A host wanting actual sound
// attaches its own synthesizer in front of the register values this
// package exposes; this package only keeps them correct over time so
// that a game polling NR52/the length/duty registers sees accurate
// state and the tick loop's per-component ordering contract holds.
package apu

import "github.com/dmgo-emu/dmgo-core/internal/types"

const frameSequencerPeriod = 4194304 / 512

// APU owns the NR10-NR52 register bank and wave RAM, and advances the
// four channels' bookkeeping state off a 512 Hz frame sequencer
// derived from the CPU clock.
type APU struct {
	enabled bool

	pulse1 pulseChannel
	pulse2 pulseChannel
	wave   waveChannel
	noise  noiseChannel

	nr50, nr51 uint8

	frameSeqCounter int
	frameSeqStep    uint8
}

// New returns an APU with channels powered off, matching the DMG's
// post-boot audio state.
func New() *APU {
	a := &APU{frameSeqCounter: frameSequencerPeriod}
	a.pulse1.sweepCapable = true
	return a
}

// Tick advances the frame sequencer and each channel's frequency timer
// by cycles T-states.
func (a *APU) Tick(cycles uint8) {
	for i := uint8(0); i < cycles; i++ {
		a.tickOne()
	}
}

func (a *APU) tickOne() {
	a.pulse1.tickFrequency()
	a.pulse2.tickFrequency()
	a.wave.tickFrequency()
	a.noise.tickFrequency()

	a.frameSeqCounter--
	if a.frameSeqCounter > 0 {
		return
	}
	a.frameSeqCounter = frameSequencerPeriod

	switch a.frameSeqStep {
	case 0, 4:
		a.lengthStep()
	case 2, 6:
		a.lengthStep()
		a.pulse1.sweepStep()
	case 7:
		a.pulse1.envelope.step()
		a.pulse2.envelope.step()
		a.noise.envelope.step()
	}
	a.frameSeqStep = (a.frameSeqStep + 1) & 7
}

func (a *APU) lengthStep() {
	a.pulse1.lengthStep()
	a.pulse2.lengthStep()
	a.wave.lengthStep()
	a.noise.lengthStep()
}

// Read returns the value at addr across the NR10-NR52 window and wave
// RAM (0xFF30-0xFF3F). Write-only bits read back as 1.
func (a *APU) Read(addr uint16) uint8 {
	switch {
	case addr >= types.NR10 && addr <= types.NR14:
		return a.pulse1.read(addr - types.NR10)
	case addr >= types.NR21 && addr <= types.NR24:
		return a.pulse2.read(addr - types.NR21 + 1)
	case addr >= types.NR30 && addr <= types.NR34:
		return a.wave.read(addr - types.NR30)
	case addr >= types.NR41 && addr <= types.NR44:
		return a.noise.read(addr - types.NR41 + 1)
	case addr == types.NR50:
		return a.nr50
	case addr == types.NR51:
		return a.nr51
	case addr == types.NR52:
		return a.readNR52()
	case addr >= types.WaveRAMStart && addr <= types.WaveRAMEnd:
		return a.wave.ram[addr-types.WaveRAMStart]
	default:
		return 0xFF
	}
}

// Write updates the register at addr. Writes to any register but NR52
// and the length-load bits are dropped while the APU is powered off,
// matching the real hardware's behavior.
func (a *APU) Write(addr uint16, value uint8) {
	switch {
	case addr >= types.NR10 && addr <= types.NR14:
		if a.enabled {
			a.pulse1.write(addr-types.NR10, value)
		} else if addr == types.NR11 {
			a.pulse1.lengthCounter = 64 - (value & 0x3F)
		}
	case addr >= types.NR21 && addr <= types.NR24:
		if a.enabled {
			a.pulse2.write(addr-types.NR21+1, value)
		} else if addr == types.NR21 {
			a.pulse2.lengthCounter = 64 - (value & 0x3F)
		}
	case addr >= types.NR30 && addr <= types.NR34:
		if a.enabled {
			a.wave.write(addr-types.NR30, value)
		} else if addr == types.NR31 {
			a.wave.lengthCounter = 256 - uint16(value)
		}
	case addr >= types.NR41 && addr <= types.NR44:
		if a.enabled {
			a.noise.write(addr-types.NR41+1, value)
		} else if addr == types.NR41 {
			a.noise.lengthCounter = 64 - (value & 0x3F)
		}
	case addr == types.NR50:
		if a.enabled {
			a.nr50 = value
		}
	case addr == types.NR51:
		if a.enabled {
			a.nr51 = value
		}
	case addr == types.NR52:
		a.writeNR52(value)
	case addr >= types.WaveRAMStart && addr <= types.WaveRAMEnd:
		a.wave.ram[addr-types.WaveRAMStart] = value
	}
}

func (a *APU) readNR52() uint8 {
	b := uint8(0x70)
	if a.enabled {
		b |= types.Bit7
	}
	if a.pulse1.enabled {
		b |= types.Bit0
	}
	if a.pulse2.enabled {
		b |= types.Bit1
	}
	if a.wave.enabled {
		b |= types.Bit2
	}
	if a.noise.enabled {
		b |= types.Bit3
	}
	return b
}

// writeNR52 handles the master power switch: powering off clears every
// other register (length counters are DMG-exempt from the clear) and
// disables all four channels; powering on resets the frame sequencer.
func (a *APU) writeNR52(value uint8) {
	on := value&types.Bit7 != 0
	if on == a.enabled {
		return
	}
	a.enabled = on
	if !on {
		pulse1Length := a.pulse1.lengthCounter
		pulse2Length := a.pulse2.lengthCounter
		waveLength := a.wave.lengthCounter
		noiseLength := a.noise.lengthCounter
		a.pulse1 = pulseChannel{sweepCapable: true, lengthCounter: pulse1Length}
		a.pulse2 = pulseChannel{lengthCounter: pulse2Length}
		a.wave = waveChannel{lengthCounter: waveLength, ram: a.wave.ram}
		a.noise = noiseChannel{lengthCounter: noiseLength}
		a.nr50, a.nr51 = 0, 0
		return
	}
	a.frameSeqStep = 0
}
