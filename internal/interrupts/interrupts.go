// Package interrupts implements the DMG's interrupt flag/enable pair and
// the IME-gated dispatch handshake between the CPU and every component
// that can raise an interrupt (Timer, PPU, Joypad).
package interrupts

import "github.com/dmgo-emu/dmgo-core/internal/types"

// Controller holds IE and IF and the CPU's interrupt master enable flag.
// It is shared by reference among the CPU and the components that call
// Request.
type Controller struct {
	Enable uint8 // IE, 0xFFFF
	Flag   uint8 // IF, 0xFF0F

	IME bool
}

// New returns a Controller with IE/IF/IME all clear, matching power-on
// state.
func New() *Controller {
	return &Controller{}
}

// Request sets the IF bit for the given interrupt source, regardless of
// whether it is currently enabled in IE. A disabled interrupt still
// latches its flag; it simply won't be dispatched until IE is set.
func (c *Controller) Request(bit int) {
	c.Flag |= 1 << uint(bit)
}

// Pending reports whether any requested interrupt is also enabled,
// independent of IME. HALT and STOP wake on this condition even when
// IME is clear.
func (c *Controller) Pending() bool {
	return c.Enable&c.Flag != 0
}

// Next returns the highest-priority pending-and-enabled interrupt's bit
// index and dispatch vector. ok is false if none is pending.
func (c *Controller) Next() (bit int, vector types.Address, ok bool) {
	pending := c.Enable & c.Flag
	for i := 0; i < 5; i++ {
		if pending&(1<<uint(i)) != 0 {
			return i, types.InterruptVector(i), true
		}
	}
	return 0, 0, false
}

// Ack clears the IF bit for the given interrupt, latching that it has
// been dispatched.
func (c *Controller) Ack(bit int) {
	c.Flag &^= 1 << uint(bit)
}
