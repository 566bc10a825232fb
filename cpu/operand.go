package cpu

const (
	WORD_LIMIT     = 32768      // Size of the word domain.
	WORD_MASK      = 0x7fff     // Mask of the 15 word bits.
	REGISTER_BASE  = WORD_LIMIT // Raw operand encoding of r0.
	REGISTER_COUNT = 8          // Number of registers.
)

// IsLiteral returns true if a raw operand denotes itself.
func IsLiteral(raw uint16) bool {
	return raw < WORD_LIMIT
}

// IsRegister returns true if a raw operand names a register.
func IsRegister(raw uint16) bool {
	return raw >= REGISTER_BASE && raw < REGISTER_BASE+REGISTER_COUNT
}

// MakeRegister returns the raw operand encoding of register index.
func MakeRegister(index int) uint16 {
	return uint16(REGISTER_BASE + index)
}

// RegisterOf resolves a destination operand to a register index.
// Only register references are legal destinations.
func RegisterOf(raw uint16) (index int, err error) {
	if !IsRegister(raw) {
		err = ErrInvalidOperand
		return
	}

	index = int(raw - REGISTER_BASE)
	return
}

// Resolve returns the current value of a raw source operand.
func (cpu *Cpu) Resolve(raw uint16) (value uint16, err error) {
	switch {
	case IsLiteral(raw):
		value = raw
	case IsRegister(raw):
		value = cpu.Register[raw-REGISTER_BASE]
	default:
		err = ErrInvalidOperand
	}

	return
}
