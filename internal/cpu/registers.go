package cpu

// Register is an 8-bit CPU register.
type Register = uint8

// RegisterPair is two registers addressed together as a 16-bit value,
// high register first (e.g. {&A, &F} for AF).
type RegisterPair [2]*Register

// Uint16 returns the pair's combined value, high register in the upper byte.
func (r RegisterPair) Uint16() uint16 {
	return uint16(*r[0])<<8 | uint16(*r[1])
}

// SetUint16 splits value across the pair, high register in the upper byte.
func (r RegisterPair) SetUint16(value uint16) {
	*r[0] = uint8(value >> 8)
	*r[1] = uint8(value)
}

// Registers holds the eight 8-bit registers and the four register-pair
// views over them. BC, DE, HL, AF alias B/C, D/E, H/L, A/F respectively;
// there is no separate backing storage for the pairs.
type Registers struct {
	A, B, C, D, E, F, H, L Register

	BC, DE, HL, AF RegisterPair

	// memOperand is scratch storage for the "(HL)" pseudo-register slot
	// (index 6) in the 3-bit register index used throughout the opcode
	// table. getSourceRegister loads it from memory before returning it
	// and the caller writes it back through HL when done.
	memOperand Register

	regByIndex [8]*Register
}

// init seats the register-pair and regByIndex pointers into this
// Registers value's own fields. It must be called on the Registers as
// it finally lives (e.g. CPU.Registers after the CPU is allocated) —
// copying a Registers after init points every pair/index entry at the
// old copy's fields instead of the new one's.
func (r *Registers) init() {
	r.BC = RegisterPair{&r.B, &r.C}
	r.DE = RegisterPair{&r.D, &r.E}
	r.HL = RegisterPair{&r.H, &r.L}
	r.AF = RegisterPair{&r.A, &r.F}
	r.regByIndex = [8]*Register{
		0: &r.B, 1: &r.C, 2: &r.D, 3: &r.E,
		4: &r.H, 5: &r.L, 6: &r.memOperand, 7: &r.A,
	}
}
