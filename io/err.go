package io

import (
	"errors"

	"github.com/ezrec/synvm/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrInputExhausted = errors.New(f("input exhausted"))

	// Image errors
	ErrUnalignedProgram = errors.New(f("unaligned program"))
)

// ErrImage reports a failure to load or save a named program image.
type ErrImage struct {
	Name string
	Err  error
}

func (err *ErrImage) Error() string {
	return f("image %v: %v", err.Name, err.Err)
}

func (err *ErrImage) Unwrap() error {
	return err.Err
}
