package cpu

import (
	"errors"

	"github.com/ezrec/synvm/io"
	"github.com/ezrec/synvm/translate"
)

var f = translate.From

var (
	// Cpu faults
	ErrInvalidOperand = errors.New(f("invalid operand"))
	ErrUnknownOpcode  = errors.New(f("unknown opcode"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrOutOfBounds    = errors.New(f("out of bounds"))
	ErrDivideByZero   = errors.New(f("divide by zero"))
	ErrInputExhausted = io.ErrInputExhausted

	// Cpu state
	ErrHalted = errors.New(f("halted"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrFault is the terminal outcome of a run that did not halt. It records
// where the fault happened; Err is one of the Cpu fault errors.
type ErrFault struct {
	Ip   int   // Address of the faulting instruction.
	Code *Code // Decoded instruction, nil if the fetch failed.
	Err  error // Fault kind.
}

func (err *ErrFault) Error() string {
	if err.Code != nil {
		return f("fault at 0x%04x (%v): %v", err.Ip, *err.Code, err.Err)
	}
	return f("fault at 0x%04x: %v", err.Ip, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrArgumentCount struct {
	Op   CodeOp
	Want int
	Got  int
}

func (err ErrArgumentCount) Error() string {
	return f("%v takes %d arguments, not %d", err.Op, err.Want, err.Got)
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
