package io

import (
	"encoding/binary"
	"io"
	"iter"
	"maps"
	"slices"
)

// Rom is a program image: the words installed into memory, starting at
// address 0. On disk an image is a sequence of little-endian 16-bit words.
type Rom struct {
	Data []uint16
}

// Defines returns an iter of defines for the image.
func (rc *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"WORD_BYTES": "2",
	})
}

// Words returns a copy of the image words.
func (rc *Rom) Words() []uint16 {
	return slices.Clone(rc.Data)
}

// UnmarshalBinary decodes an image. An odd byte count is rejected with
// ErrUnalignedProgram.
func (rc *Rom) UnmarshalBinary(data []byte) (err error) {
	if len(data)%2 != 0 {
		err = ErrUnalignedProgram
		return
	}

	words := make([]uint16, len(data)/2)
	for n := range words {
		words[n] = binary.LittleEndian.Uint16(data[n*2:])
	}

	rc.Data = words

	return
}

// MarshalBinary encodes the image.
func (rc *Rom) MarshalBinary() (data []byte, err error) {
	data = make([]byte, 0, len(rc.Data)*2)
	for _, word := range rc.Data {
		data = binary.LittleEndian.AppendUint16(data, word)
	}

	return
}

// ReadFrom replaces the image with the entire contents of r.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	err = rc.UnmarshalBinary(data)

	return
}

// WriteTo writes the encoded image to w.
func (rc *Rom) WriteTo(w io.Writer) (n int64, err error) {
	data, err := rc.MarshalBinary()
	if err != nil {
		return
	}

	written, err := w.Write(data)
	n = int64(written)

	return
}
