// Package joypad implements the P1 register: two 4-button nibbles
// (direction and action) selected by bits 4-5, read back inverted
// (0 = pressed) as the hardware documents it.
package joypad

import "github.com/dmgo-emu/dmgo-core/internal/interrupts"

// Button identifies one of the eight physical buttons.
type Button uint8

const (
	ButtonRight Button = 1 << iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

const (
	directionMask = ButtonRight | ButtonLeft | ButtonUp | ButtonDown
	actionMask    = ButtonA | ButtonB | ButtonSelect | ButtonStart
)

// State tracks which buttons are currently held and the host-selected
// nibble (direction vs action) in P1.
type State struct {
	held   Button
	selectBits uint8 // bits 4-5 of P1, as last written by the game

	irq *interrupts.Controller
}

// New returns a State with no buttons held and both nibbles selected
// (select bits 4-5 clear).
func New(irq *interrupts.Controller) *State {
	return &State{irq: irq}
}

// Press marks b held and requests the Joypad interrupt when that makes a
// line of a selected nibble fall from 1 to 0.
func (s *State) Press(b Button) {
	before := s.Read(0xFF00)
	s.held |= b
	if before&^s.Read(0xFF00)&0x0F != 0 {
		s.irq.Request(4) // Joypad
	}
}

// Release clears b.
func (s *State) Release(b Button) {
	s.held &^= b
}

// SetHeld reconciles the full held set against a host's polled button
// mask in one call, requesting the Joypad interrupt if any new button
// in a selected nibble transitions from released to held.
func (s *State) SetHeld(mask Button) {
	before := s.Read(0xFF00)
	s.held = mask
	if before&^s.Read(0xFF00)&0x0F != 0 {
		s.irq.Request(4) // Joypad
	}
}

func (s *State) anyAsserted() bool {
	return s.Read(0xFF00)&0x0F != 0x0F
}

// Read returns P1: bits 0-3 are the selected nibble's buttons, active
// low; bits 4-5 echo the selection; bits 6-7 read as 1.
func (s *State) Read(uint16) uint8 {
	nibble := uint8(0x0F)
	if s.selectBits&0x10 == 0 { // direction nibble selected (active low select bit)
		nibble &^= uint8(s.held & directionMask)
	}
	if s.selectBits&0x20 == 0 { // action nibble selected
		nibble &^= uint8(s.held&actionMask) >> 4
	}
	return 0xC0 | s.selectBits&0x30 | nibble
}

// Write stores the nibble-select bits (4-5); the rest of P1 is
// read-only.
func (s *State) Write(_ uint16, value uint8) {
	s.selectBits = value & 0x30
}
