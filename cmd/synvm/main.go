// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/ezrec/synvm/cpu"
	"github.com/ezrec/synvm/emulator"
	"github.com/ezrec/synvm/io"
	"github.com/ezrec/synvm/translate"
)

// exitCodes maps fault kinds to process exit status.
var exitCodes = []struct {
	err  error
	code int
}{
	{cpu.ErrInvalidOperand, 3},
	{cpu.ErrUnknownOpcode, 4},
	{cpu.ErrStackUnderflow, 5},
	{cpu.ErrOutOfBounds, 6},
	{cpu.ErrInputExhausted, 7},
	{cpu.ErrDivideByZero, 8},
	{io.ErrUnalignedProgram, 9},
}

func exitCode(err error) int {
	for _, entry := range exitCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return 1
}

// lineWriter tracks whether the last byte written ended a line.
type lineWriter struct {
	*os.File
	midLine bool
}

func (lw *lineWriter) Write(data []byte) (n int, err error) {
	n, err = lw.File.Write(data)
	if n > 0 {
		lw.midLine = data[n-1] != '\n'
	}
	return
}

// fatal reports a load or run failure and exits with its status.
func fatal(out *lineWriter, err error) {
	if out != nil && out.midLine && term.IsTerminal(int(out.Fd())) {
		out.Write([]byte{'\n'})
	}
	translate.Fprintf(os.Stderr, "%v: %v\n", filepath.Base(os.Args[0]), err)
	os.Exit(exitCode(err))
}

// splitPath splits a file path into a directory and a name in it.
func splitPath(path string) (dir string, name string) {
	dir, name = filepath.Split(path)
	if len(dir) == 0 {
		dir = "."
	}
	return
}

func main() {
	var compile string
	var binary string
	var save bool
	var input string
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&binary, "b", "challenge.bin", "Program image")
	flag.BoolVar(&save, "s", false, "Save assembled program to the image, do not execute")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "o", "-", "Console output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if save && len(compile) == 0 {
		log.Fatalf("%v: -s requires -c", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := emu.Assembler()
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if save {
		dir, name := splitPath(binary)
		rom := &io.Rom{Data: emu.Program.Binary()}
		err := io.SaveRom(io.DirFS(dir), name, rom)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		return
	}

	if len(compile) == 0 {
		dir, name := splitPath(binary)
		rom, err := io.LoadRom(os.DirFS(dir), name)
		if err != nil {
			fatal(nil, err)
		}
		emu.Rom = *rom
	}

	if input == "-" {
		emu.Tape.SetInput(os.Stdin)
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tape.SetInput(inf)
	}

	out := &lineWriter{File: os.Stdout}
	if output != "-" {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		out.File = ouf
	}
	emu.Tape.Output = out

	err := emu.Reset()
	if err != nil {
		fatal(out, err)
	}

	err = emu.Run()
	if err != nil {
		if verbose {
			log.Printf("cpu state:\n%v", emu.Cpu.String())
		}
		fatal(out, err)
	}
}
