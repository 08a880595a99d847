// Package host declares the collaborator interfaces the core's tick
// loop consumes, so that internal/gameboy never imports a concrete
// frontend: a terminal UI, a future GUI, or a headless benchmark
// harness all satisfy the same three interfaces.
package host

import "github.com/dmgo-emu/dmgo-core/internal/joypad"

// ROMLoader supplies the raw ROM image the core parses at construction.
type ROMLoader interface {
	LoadROM() ([]byte, error)
}

// InputSource reports which buttons are currently held, polled once per
// emitted frame.
type InputSource interface {
	PollInput() joypad.Button
}

// Presenter receives one completed frame, as 160x144 2-bit DMG palette
// indices, and is responsible for any host wall-clock pacing.
type Presenter interface {
	Present(frame [144][160]uint8)
}

// AudioSink optionally receives audio output; a no-op implementation is
// valid since the core's APU is bookkeeping-only and never calls this
// with real samples today.
type AudioSink interface {
	AudioSample(left, right int16)
}

// QuitChecker reports whether the host has asked the tick loop to stop
// at the next iteration boundary.
type QuitChecker interface {
	QuitRequested() bool
}
