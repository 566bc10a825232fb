// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator ties the CPU, its console tape, and the program image
// together into a runnable machine.
package emulator

import (
	"errors"
	"iter"
	"log"

	"github.com/ezrec/synvm/cpu"
	"github.com/ezrec/synvm/internal"
	"github.com/ezrec/synvm/io"
)

// Emulator state. CPU + console tape + program image.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Assembled program listing, if any.

	Tape io.Tape // Console IO channel.
	Rom  io.Rom  // Program image.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     &cpu.Cpu{},
		Program: &cpu.Program{},
	}

	emu.Cpu.Output = &emu.Tape
	emu.Cpu.Input = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Cpu.Defines(),
		emu.Tape.Defines(),
		emu.Rom.Defines(),
	)
}

// Assembler returns an assembler predefined with the emulator defines.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Reset the machine state.
// An assembled Program replaces the contents of the Rom.
func (emu *Emulator) Reset() (err error) {
	if emu.Program != nil && len(emu.Program.Opcodes) != 0 {
		emu.Rom.Data = emu.Program.Binary()
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset(emu.Rom.Words())
	emu.Tape.Rewind()

	if emu.Verbose {
		log.Printf("emulator: reset, %d words", len(emu.Rom.Data))
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return emu.Cpu.Ip
}

// Code returns the current instruction code.
func (emu *Emulator) Code() (code cpu.Code) {
	code, _ = emu.Cpu.FetchCode()
	return
}

// LineNo returns the current line number for the executing opcode.
// It is zero when the program was not assembled.
func (emu *Emulator) LineNo() int {
	return emu.lineAt(emu.Cpu.Ip)
}

// lineAt returns the source line number of the code at ip, or zero.
func (emu *Emulator) lineAt(ip int) int {
	if emu.Program == nil {
		return 0
	}

	loc := emu.Program.Locate(ip)
	if loc.Opcode == nil {
		return 0
	}

	return loc.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	// A fault leaves the IP on the faulting instruction.
	ip := emu.Cpu.Ip
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: emu.lineAt(ip), Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks the emulator until the program halts or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
