package io

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"maps"
)

// Tape provides the console channel of the machine. It wraps an io.Reader
// for input and an io.Writer for output.
//
// Output characters are written as they are sent. Input is line buffered:
// when no characters are pending, Receive reads one full line (terminator
// included) and hands it out a character at a time.
type Tape struct {
	Input  io.Reader // Use SetInput to replace once reading has started.
	Output io.Writer

	reader *bufio.Reader
	line   []byte
}

var _ Channel = (*Tape)(nil)

// Defines returns an iter of defines for the channel.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"NEWLINE": "10",
	})
}

// Rewind drops the partially consumed input line.
// The input stream itself cannot be rewound.
func (tc *Tape) Rewind() {
	tc.line = nil
}

// SetInput replaces the input stream, dropping any buffered input.
func (tc *Tape) SetInput(input io.Reader) {
	tc.Input = input
	tc.reader = nil
	tc.line = nil
}

// Pending returns the number of buffered, unconsumed input characters.
func (tc *Tape) Pending() int {
	return len(tc.line)
}

// fill reads the next line from the input stream.
func (tc *Tape) fill() (err error) {
	if tc.Input == nil {
		err = ErrInputExhausted
		return
	}

	if tc.reader == nil {
		tc.reader = bufio.NewReader(tc.Input)
	}

	line, err := tc.reader.ReadBytes('\n')
	if len(line) > 0 {
		// A final unterminated line is still delivered.
		tc.line = line
		err = nil
		return
	}

	if errors.Is(err, io.EOF) {
		err = ErrInputExhausted
	}

	return
}

// Receive returns the next input character, reading a new line from the
// input stream when the buffered line is used up.
func (tc *Tape) Receive() (value byte, err error) {
	if len(tc.line) == 0 {
		err = tc.fill()
		if err != nil {
			return
		}
	}

	value = tc.line[0]
	tc.line = tc.line[1:]

	return
}

// Send writes a character to the output stream immediately.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		return
	}

	_, err = tc.Output.Write([]byte{value})

	return
}
