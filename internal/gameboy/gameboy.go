// Package gameboy wires the cartridge, interrupt controller, MMU, PPU,
// APU, Timer, Joypad, and CPU into one System and drives the
// single-threaded cooperative tick loop documented for the core: each
// iteration steps the CPU, advances Timer/PPU/APU by the same cycle
// count, and presents a frame and polls input whenever the PPU
// completes one.
package gameboy

import (
	"github.com/dmgo-emu/dmgo-core/internal/apu"
	"github.com/dmgo-emu/dmgo-core/internal/cartridge"
	"github.com/dmgo-emu/dmgo-core/internal/cpu"
	"github.com/dmgo-emu/dmgo-core/internal/host"
	"github.com/dmgo-emu/dmgo-core/internal/interrupts"
	"github.com/dmgo-emu/dmgo-core/internal/joypad"
	"github.com/dmgo-emu/dmgo-core/internal/log"
	"github.com/dmgo-emu/dmgo-core/internal/mmu"
	"github.com/dmgo-emu/dmgo-core/internal/ppu"
	"github.com/dmgo-emu/dmgo-core/internal/timer"
)

// System owns every emulated component and the quit flag the tick loop
// checks at each iteration boundary.
type System struct {
	cart cartridge.Cartridge
	irq  *interrupts.Controller
	mmu  *mmu.MMU
	cpu  *cpu.CPU
	ppu  *ppu.PPU
	apu  *apu.APU
	tmr  *timer.Controller
	pad  *joypad.State

	logger *log.Logger

	quit bool
}

// New parses rom's header, constructs its bank controller, and wires a
// full System ready to run. It returns a *dmgerr.HeaderError (wrapping
// dmgerr.ErrInvalidHeader) if the ROM is malformed.
func New(rom []byte) (*System, error) {
	logger := log.New()

	cart, err := cartridge.New(rom, logger)
	if err != nil {
		return nil, err
	}

	irq := interrupts.New()
	pad := joypad.New(irq)
	tmr := timer.New(irq)
	snd := apu.New()
	vid := ppu.New(irq)

	bus := mmu.New(cart, irq)
	bus.Video = vid
	bus.Sound = snd
	bus.Timer = tmr
	bus.Joypad = pad

	c := cpu.New(bus, irq)
	c.Reset()

	return &System{
		cart:   cart,
		irq:    irq,
		mmu:    bus,
		cpu:    c,
		ppu:    vid,
		apu:    snd,
		tmr:    tmr,
		pad:    pad,
		logger: logger,
	}, nil
}

// RequestQuit sets the quit flag, checked by RunUntilQuit at the next
// loop iteration boundary; it does not interrupt an in-flight Step.
func (s *System) RequestQuit() {
	s.quit = true
}

// SaveRAM returns a read-only view of the cartridge's external RAM
// backing store, for a host that wants to persist battery-backed saves.
func (s *System) SaveRAM() []byte {
	return s.cart.Save()
}

// LoadRAM restores previously saved external RAM contents, normally
// called once before RunUntilQuit.
func (s *System) LoadRAM(data []byte) {
	s.cart.Load(data)
}

// RunUntilQuit runs the tick loop until RequestQuit is called or the
// CPU returns a fatal decode error (an unknown opcode), in which case
// that error is returned to the host for diagnostics. Each iteration:
// steps the CPU, advances Timer, PPU, and APU by the same cycle count,
// and, once the PPU completes a frame, presents it and polls input.
func (s *System) RunUntilQuit(h interface {
	host.Presenter
	host.InputSource
	host.QuitChecker
}) error {
	for !s.quit {
		cycles, err := s.cpu.Step()
		if err != nil {
			return err
		}

		s.tmr.Tick(cycles)
		s.ppu.Tick(cycles)
		s.apu.Tick(cycles)

		if s.ppu.FrameReady() {
			s.Present(h)
			s.pad.SetHeld(h.PollInput())
			if h.QuitRequested() {
				s.RequestQuit()
			}
		}
	}
	return nil
}

// Present hands the current framebuffer to h and clears the PPU's
// ready flag; exported so a host driving its own loop with Step can
// pull frames without running RunUntilQuit.
func (s *System) Present(p host.Presenter) {
	p.Present(s.ppu.ConsumeFrame())
}

// Step runs exactly one CPU instruction and advances Timer/PPU/APU by
// the same cycle count, for callers (tests, a single-step debugger)
// that don't want the full blocking loop.
func (s *System) Step() (uint8, error) {
	cycles, err := s.cpu.Step()
	if err != nil {
		return cycles, err
	}
	s.tmr.Tick(cycles)
	s.ppu.Tick(cycles)
	s.apu.Tick(cycles)
	return cycles, nil
}

// FrameReady reports whether the PPU has completed a frame since the
// last ConsumeFrame/Present call.
func (s *System) FrameReady() bool {
	return s.ppu.FrameReady()
}

// PressButton and ReleaseButton let a host drive input without
// implementing the full InputSource poll, useful for scripted tests.
func (s *System) PressButton(b joypad.Button)   { s.pad.Press(b) }
func (s *System) ReleaseButton(b joypad.Button) { s.pad.Release(b) }
