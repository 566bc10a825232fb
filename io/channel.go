// Package io provides the I/O collaborators of the synvm virtual machine:
// the byte oriented console channel (Tape) used by the out and in
// instructions, and the program image codec (Rom) with its filesystem
// loaders.
package io

// Sink accepts output characters, one per out instruction, in order.
type Sink interface {
	// Send writes a single character to the channel.
	Send(value byte) error
}

// Source yields input characters, one per in instruction.
type Source interface {
	// Receive blocks until a character is available. It returns
	// ErrInputExhausted once no more input will ever arrive.
	Receive() (value byte, err error)
}

// Channel defines the interface for a bidirectional console channel.
type Channel interface {
	Sink
	Source
	// Rewind discards any buffered, unconsumed input.
	Rewind()
}
