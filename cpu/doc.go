// Package cpu implements the processor and assembler for the synvm system.
//
// The CPU consists of an instruction pointer (IP), eight 15-bit registers
// (r0-r7), an unbounded stack, and a word addressed memory sized to the
// loaded program image. Instructions are an opcode word (0-21) followed by a
// fixed number of raw operand words. A raw operand below 32768 is a literal,
// and 32768-32775 name the registers r0-r7.
//
// The assembler provides a small assembly language for the instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
