package cpu

import (
	"slices"
)

// Memory is the word addressed memory of the machine. Its size is fixed
// to the length of the loaded program image.
type Memory []uint16

// NewMemory creates a memory holding a private copy of image.
func NewMemory(image []uint16) Memory {
	return Memory(slices.Clone(image))
}

// Len returns the number of addressable words.
func (mem Memory) Len() int {
	return len(mem)
}

// Contains returns true if addr is inside memory.
func (mem Memory) Contains(addr int) bool {
	return addr >= 0 && addr < len(mem)
}

// Read returns the word at addr.
func (mem Memory) Read(addr int) (value uint16, err error) {
	if !mem.Contains(addr) {
		err = ErrOutOfBounds
		return
	}

	value = mem[addr]
	return
}

// Write sets the word at addr.
func (mem Memory) Write(addr int, value uint16) (err error) {
	if !mem.Contains(addr) {
		err = ErrOutOfBounds
		return
	}

	mem[addr] = value
	return
}
