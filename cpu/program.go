package cpu

import (
	"iter"
)

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Location is the source of a memory address in a Program.
type Location struct {
	*Opcode
	Index int // Index into Opcode.Codes.
}

// Locate finds the listing line that generated the code at ip.
// The Opcode is nil if no line covers ip.
func (prog *Program) Locate(ip int) (loc Location) {
	for n, op := range prog.Opcodes {
		addr := op.Ip
		for index, code := range op.Codes {
			if ip >= addr && ip < addr+code.Size() {
				loc = Location{
					Opcode: &prog.Opcodes[n],
					Index:  index,
				}
				return
			}
			addr += code.Size()
		}
	}

	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (bins []uint16) {
	for _, code := range prog.Codes() {
		bins = append(bins, code.Words()...)
	}

	return
}

// Codes iterates over the program codes and their addresses.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(ip int, code Code) bool) {
		for _, op := range prog.Opcodes {
			ip := op.Ip
			for _, code := range op.Codes {
				if !yield(ip, code) {
					return
				}
				ip += code.Size()
			}
		}
	}
}
