package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/synvm/io"
)

// CpuState is the run state of the CPU.
type CpuState int

const (
	STATE_RUNNING = CpuState(0) // running
	STATE_HALTED  = CpuState(1) // halted
	STATE_FAULTED = CpuState(2) // faulted
)

var _cpu_defines = map[string]string{
	"WORD_LIMIT":     fmt.Sprintf("%d", WORD_LIMIT),
	"WORD_MASK":      fmt.Sprintf("0x%x", WORD_MASK),
	"REGISTER_BASE":  fmt.Sprintf("%d", REGISTER_BASE),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// Cpu is the simulation context for the virtual machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Ip       int                    // Current instruction pointer.
	Register [REGISTER_COUNT]uint16 // Register bank.
	Stack    Stack                  // Stack simulation.
	Memory   Memory                 // Program memory.

	State CpuState // Run state.
	Fault error    // Terminal fault, when State is STATE_FAULTED.
	Ticks int      // Executed instruction counter.

	Output io.Sink   // Destination of out; nil discards.
	Input  io.Source // Origin of in; nil is exhausted.
}

// NewCpu creates a new CPU running the program image.
func NewCpu(image []uint16) (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset(image)

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"state",
		"ip",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"stack",
		"depth",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "state":
			strval = cpu.State.String()
		case "ip":
			strval = fmt.Sprintf("%04X", cpu.Ip)
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			strval = fmt.Sprintf("%04X", cpu.Register[byte(reg[1]-'0')])
		case "stack":
			val, ok := cpu.Stack.Peek()
			if ok {
				strval = fmt.Sprintf("%04X", val)
			} else {
				strval = "----"
			}
		case "depth":
			strval = fmt.Sprintf("%d", cpu.Stack.Depth())
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Installs a private copy of the program image as memory.
// - Clears the registers and stack.
// - Zeros the tick counter.
// - Starts running at address 0.
func (cpu *Cpu) Reset(image []uint16) {
	if cpu.Verbose {
		log.Printf("cpu: reset, %d words", len(image))
	}

	cpu.Memory = NewMemory(image)
	clear(cpu.Register[:])
	cpu.Stack.Reset()
	cpu.Ip = 0
	cpu.State = STATE_RUNNING
	cpu.Fault = nil
	cpu.Ticks = 0
}

// FetchCode decodes the instruction at the instruction pointer.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	code.Word, err = cpu.Memory.Read(cpu.Ip)
	if err != nil {
		return
	}

	arity, err := code.Op().Arity()
	if err != nil {
		return
	}

	if !cpu.Memory.Contains(cpu.Ip + arity) {
		err = ErrOutOfBounds
		return
	}

	if arity > 0 {
		code.Args = make([]uint16, arity)
		copy(code.Args, cpu.Memory[cpu.Ip+1:])
	}

	return
}

// fault stops the CPU, recording the fault.
func (cpu *Cpu) fault(code *Code, kind error) (err error) {
	err = &ErrFault{Ip: cpu.Ip, Code: code, Err: kind}

	cpu.State = STATE_FAULTED
	cpu.Fault = err

	if cpu.Verbose {
		log.Printf("cpu: %v", err)
	}

	return
}

// Tick executes a single CPU instruction cycle.
// It returns ErrHalted once the program has halted, and an *ErrFault
// if the program faulted.
func (cpu *Cpu) Tick() (err error) {
	switch cpu.State {
	case STATE_HALTED:
		return ErrHalted
	case STATE_FAULTED:
		return cpu.Fault
	}

	code, err := cpu.FetchCode()
	if err != nil {
		var decoded *Code
		if cpu.Memory.Contains(cpu.Ip) {
			decoded = &code
		}
		err = cpu.fault(decoded, err)
		return
	}

	err = cpu.Execute(code)

	return
}

// Run ticks the CPU until it halts or faults. A halt returns nil.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalted) {
			err = nil
			return
		}
		if err != nil {
			return
		}
	}
}

// Execute executes a single decoded instruction.
// Every operand is resolved before any state changes, so a faulting
// instruction leaves registers, stack, and memory untouched.
// A halted or faulted CPU executes nothing, as with Tick.
func (cpu *Cpu) Execute(code Code) (err error) {
	switch cpu.State {
	case STATE_HALTED:
		return ErrHalted
	case STATE_FAULTED:
		return cpu.Fault
	}

	defer func() {
		if err != nil && err != ErrHalted {
			err = cpu.fault(&code, err)
		}
	}()

	op := code.Op()
	arity, err := op.Arity()
	if err != nil {
		return
	}
	if len(code.Args) != arity {
		err = ErrInvalidOperand
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", cpu.Ip, code)
	}

	args := code.Args
	next_ip := cpu.Ip + code.Size()

	switch op {
	case OP_HALT:
		cpu.State = STATE_HALTED
		cpu.Ticks += 1
		if cpu.Verbose {
			log.Printf("cpu: halt")
		}
		err = ErrHalted
		return
	case OP_SET:
		var dst int
		var value uint16
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		value, err = cpu.Resolve(args[1])
		if err != nil {
			return
		}
		cpu.Register[dst] = value
	case OP_PUSH:
		var value uint16
		value, err = cpu.Resolve(args[0])
		if err != nil {
			return
		}
		cpu.Stack.Push(value)
	case OP_POP:
		var dst int
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		value, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		cpu.Register[dst] = value & WORD_MASK
	case OP_EQ, OP_GT, OP_ADD, OP_MULT, OP_MOD, OP_AND, OP_OR:
		var dst int
		var values []uint16
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		values, err = cpu.resolveAll(args[1:])
		if err != nil {
			return
		}
		var output uint16
		output, err = cpu.doAlu(op, values[0], values[1])
		if err != nil {
			return
		}
		cpu.Register[dst] = output
	case OP_NOT:
		var dst int
		var value uint16
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		value, err = cpu.Resolve(args[1])
		if err != nil {
			return
		}
		cpu.Register[dst] = (^value) & WORD_MASK
	case OP_JMP:
		var target uint16
		target, err = cpu.Resolve(args[0])
		if err != nil {
			return
		}
		next_ip = int(target)
	case OP_JT, OP_JF:
		var values []uint16
		values, err = cpu.resolveAll(args)
		if err != nil {
			return
		}
		if (values[0] != 0) == (op == OP_JT) {
			next_ip = int(values[1])
		}
	case OP_RMEM:
		var dst int
		var addr, value uint16
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		addr, err = cpu.Resolve(args[1])
		if err != nil {
			return
		}
		value, err = cpu.Memory.Read(int(addr))
		if err != nil {
			return
		}
		cpu.Register[dst] = value & WORD_MASK
	case OP_WMEM:
		var values []uint16
		values, err = cpu.resolveAll(args)
		if err != nil {
			return
		}
		err = cpu.Memory.Write(int(values[0]), values[1])
		if err != nil {
			return
		}
	case OP_CALL:
		var target uint16
		target, err = cpu.Resolve(args[0])
		if err != nil {
			return
		}
		cpu.Stack.Push(uint16(next_ip))
		next_ip = int(target)
	case OP_RET:
		target, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		next_ip = int(target)
	case OP_OUT:
		var value uint16
		value, err = cpu.Resolve(args[0])
		if err != nil {
			return
		}
		if cpu.Output != nil {
			err = cpu.Output.Send(byte(value))
			if err != nil {
				return
			}
		}
	case OP_IN:
		var dst int
		dst, err = RegisterOf(args[0])
		if err != nil {
			return
		}
		if cpu.Input == nil {
			err = ErrInputExhausted
			return
		}
		var value byte
		value, err = cpu.Input.Receive()
		if err != nil {
			return
		}
		cpu.Register[dst] = uint16(value)
	case OP_NOOP:
		// pass
	}

	cpu.Ip = next_ip
	cpu.Ticks += 1

	return
}

// resolveAll resolves each raw source operand.
func (cpu *Cpu) resolveAll(raws []uint16) (values []uint16, err error) {
	values = make([]uint16, len(raws))
	for n, raw := range raws {
		values[n], err = cpu.Resolve(raw)
		if err != nil {
			return
		}
	}

	return
}

// doAlu performs the requested arithmetic, comparison, or bitwise
// operation, and returns the output value in the word domain.
func (cpu *Cpu) doAlu(op CodeOp, b, c uint16) (output uint16, err error) {
	switch op {
	case OP_EQ:
		if b == c {
			output = 1
		}
	case OP_GT:
		if b > c {
			output = 1
		}
	case OP_ADD:
		output = uint16((uint32(b) + uint32(c)) % WORD_LIMIT)
	case OP_MULT:
		output = uint16((uint32(b) * uint32(c)) % WORD_LIMIT)
	case OP_MOD:
		if c == 0 {
			err = ErrDivideByZero
			return
		}
		output = b % c
	case OP_AND:
		output = (b & c) & WORD_MASK
	case OP_OR:
		output = (b | c) & WORD_MASK
	}

	return
}
