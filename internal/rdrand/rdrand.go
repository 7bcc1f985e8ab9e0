// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rdrand wraps the x86 RDRAND hardware random number instruction.
//
// The instruction is only compiled for amd64.  On every other architecture,
// and on amd64 processors that do not advertise the feature, Available
// reports false and reads fail with ErrUnavailable.
package rdrand

import (
	"encoding/binary"
	"errors"
)

// Width is the operand width, in bits, used when executing the instruction.
type Width int

const (
	// Width32 draws 32 bits per instruction.
	Width32 Width = 32

	// Width64 draws 64 bits per instruction.
	Width64 Width = 64
)

// retries is the number of times a draw is retried when the instruction
// reports that no random data was available.  This is the value recommended
// by the Intel DRNG software implementation guide.
const retries = 10

var (
	// ErrUnavailable is returned when reading from an instruction that is not
	// available on the running processor.
	ErrUnavailable = errors.New("rdrand: instruction not available")

	// ErrUnderflow is returned when the instruction repeatedly fails to
	// return random data.
	ErrUnderflow = errors.New("rdrand: instruction returned no data " +
		"after retries")
)

// Instruction executes RDRAND with a fixed operand width.
type Instruction struct {
	width Width
}

// New returns an instruction wrapper for the given width.  Any width other than
// Width32 is treated as Width64.
func New(width Width) *Instruction {
	if width != Width32 {
		width = Width64
	}
	return &Instruction{width: width}
}

// Width returns the operand width of the instruction.
func (i *Instruction) Width() Width {
	return i.width
}

// Available returns whether the instruction is compiled for this architecture
// and advertised by the processor.
func (i *Instruction) Available() bool {
	return hasRDRAND
}

// Supported executes a single draw and returns whether it succeeded.  It has no
// side effects beyond consuming hardware entropy.
func (i *Instruction) Supported() bool {
	if !hasRDRAND {
		return false
	}
	_, ok := i.word()
	return ok
}

// word executes the instruction, retrying on transient failures.
func (i *Instruction) word() (uint64, bool) {
	for n := 0; n < retries; n++ {
		if i.width == Width32 {
			if v, ok := rdrand32(); ok {
				return uint64(v), true
			}
			continue
		}
		if v, ok := rdrand64(); ok {
			return v, true
		}
	}
	return 0, false
}

// Read overwrites every byte of b with hardware random data, one instruction
// per 4 or 8 bytes depending on the width.
func (i *Instruction) Read(b []byte) error {
	if !hasRDRAND {
		return ErrUnavailable
	}

	step := int(i.width / 8)
	var buf [8]byte
	for len(b) > 0 {
		v, ok := i.word()
		if !ok {
			return ErrUnderflow
		}
		binary.LittleEndian.PutUint64(buf[:], v)
		b = b[copy(b, buf[:step]):]
	}
	return nil
}
