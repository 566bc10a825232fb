package cpu

import (
	"fmt"
	"strings"
)

// CodeOp is an instruction opcode.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp,CpuState -output=codeop_string.go
const (
	OP_HALT = CodeOp(0)  // halt
	OP_SET  = CodeOp(1)  // set
	OP_PUSH = CodeOp(2)  // push
	OP_POP  = CodeOp(3)  // pop
	OP_EQ   = CodeOp(4)  // eq
	OP_GT   = CodeOp(5)  // gt
	OP_JMP  = CodeOp(6)  // jmp
	OP_JT   = CodeOp(7)  // jt
	OP_JF   = CodeOp(8)  // jf
	OP_ADD  = CodeOp(9)  // add
	OP_MULT = CodeOp(10) // mult
	OP_MOD  = CodeOp(11) // mod
	OP_AND  = CodeOp(12) // and
	OP_OR   = CodeOp(13) // or
	OP_NOT  = CodeOp(14) // not
	OP_RMEM = CodeOp(15) // rmem
	OP_WMEM = CodeOp(16) // wmem
	OP_CALL = CodeOp(17) // call
	OP_RET  = CodeOp(18) // ret
	OP_OUT  = CodeOp(19) // out
	OP_IN   = CodeOp(20) // in
	OP_NOOP = CodeOp(21) // noop
)

// _arity is the number of operand words following each opcode.
var _arity = [...]int{
	OP_HALT: 0,
	OP_SET:  2,
	OP_PUSH: 1,
	OP_POP:  1,
	OP_EQ:   3,
	OP_GT:   3,
	OP_JMP:  1,
	OP_JT:   2,
	OP_JF:   2,
	OP_ADD:  3,
	OP_MULT: 3,
	OP_MOD:  3,
	OP_AND:  3,
	OP_OR:   3,
	OP_NOT:  2,
	OP_RMEM: 2,
	OP_WMEM: 2,
	OP_CALL: 1,
	OP_RET:  0,
	OP_OUT:  1,
	OP_IN:   1,
	OP_NOOP: 0,
}

// OP_COUNT is the number of defined opcodes.
const OP_COUNT = len(_arity)

// Valid returns true if the opcode is defined.
func (op CodeOp) Valid() bool {
	return op >= 0 && int(op) < OP_COUNT
}

// Arity returns the number of operand words the opcode consumes.
func (op CodeOp) Arity() (arity int, err error) {
	if !op.Valid() {
		err = ErrUnknownOpcode
		return
	}

	arity = _arity[op]
	return
}

// Jumps returns true if the opcode may set the instruction pointer explicitly.
func (op CodeOp) Jumps() bool {
	switch op {
	case OP_JMP, OP_JT, OP_JF, OP_CALL, OP_RET:
		return true
	}
	return false
}

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo int
	Ip     int
	Words  []string
	Codes  []Code
	Links  []Link
}

// Link is an operand word waiting for a label address.
type Link struct {
	Code  int    // Index into Opcode.Codes.
	Arg   int    // Index into Code.Args; -1 for the Code.Word itself.
	Label string // Label to resolve.
}

// Code represents a single instruction word with its operand words.
// A Code whose Word is not a valid opcode is raw data.
type Code struct {
	Word uint16
	Args []uint16
}

// MakeCode creates an instruction.
func MakeCode(op CodeOp, args ...uint16) Code {
	return Code{
		Word: uint16(op),
		Args: args,
	}
}

// Op returns the opcode of the instruction word.
func (code Code) Op() CodeOp {
	return CodeOp(code.Word)
}

// Size returns the number of memory words the code occupies.
func (code Code) Size() int {
	return 1 + len(code.Args)
}

// Words returns the code as memory words.
func (code Code) Words() []uint16 {
	words := make([]uint16, 0, code.Size())
	words = append(words, code.Word)
	words = append(words, code.Args...)
	return words
}

// operandString returns the assembly representation of a raw operand.
func operandString(raw uint16) string {
	switch {
	case IsLiteral(raw):
		return fmt.Sprintf("%d", raw)
	case IsRegister(raw):
		return fmt.Sprintf("r%d", raw-REGISTER_BASE)
	default:
		return fmt.Sprintf("0x%04x", raw)
	}
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	op := code.Op()
	if !op.Valid() {
		return fmt.Sprintf(".word %d", code.Word)
	}

	words := []string{op.String()}
	for _, arg := range code.Args {
		if op == OP_OUT && arg >= ' ' && arg < 0x7f && arg != '\'' {
			words = append(words, fmt.Sprintf("'%c'", rune(arg)))
			continue
		}
		words = append(words, operandString(arg))
	}

	return strings.Join(words, " ")
}
