// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"io"
)

// Instruction is the native hardware random number instruction that backs the
// hardware variants.
type Instruction interface {
	// Available returns whether native support for the instruction is
	// present at all.
	Available() bool

	// Supported executes a cheap side-effect-free probe of the instruction
	// and returns whether it produced random data.
	Supported() bool

	// Read overwrites every byte of b with random data.
	Read(b []byte) error
}

// Backend is an immutable random source.  All variants share the Fill
// operation; only hardware variants carry an instruction capability, which
// is nil for the software CSPRNG.
//
// A Backend is safe for concurrent use.
type Backend struct {
	kind Kind
	name string
	fill func([]byte) error
	hw   Instruction
}

// newSoftwareBackend returns the software CSPRNG variant reading from r.  The
// reader must be safe for concurrent access.
func newSoftwareBackend(r io.Reader) *Backend {
	return &Backend{
		kind: SoftwareCSPRNG,
		name: "chacha20-csprng",
		fill: func(b []byte) error {
			_, err := io.ReadFull(r, b)
			return err
		},
	}
}

// newHardwareBackend returns the hardware variant of the given kind backed by
// the provided instruction.
func newHardwareBackend(kind Kind, inst Instruction) *Backend {
	name := "rdrand64"
	if kind == Hardware32 {
		name = "rdrand32"
	}
	return &Backend{
		kind: kind,
		name: name,
		fill: inst.Read,
		hw:   inst,
	}
}

// Fill overwrites every byte of b with random data from the backend.
func (b *Backend) Fill(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if err := b.fill(buf); err != nil {
		str := fmt.Sprintf("%s backend failed to fill %d bytes: %v", b.name,
			len(buf), err)
		return makeError(ErrFillFailed, str)
	}
	return nil
}

// Kind returns the concrete kind of the backend.  It is never AutoDetect.
func (b *Backend) Kind() Kind {
	return b.kind
}

// Name returns the display name of the backend.
func (b *Backend) Name() string {
	return b.name
}

// IsHardware returns whether the backend is a hardware instruction variant.
func (b *Backend) IsHardware() bool {
	return b.hw != nil
}

// IsSupported runs the hardware capability probe for hardware variants.  The
// software variant is always supported.
func (b *Backend) IsSupported() bool {
	if b.hw == nil {
		return true
	}
	return b.hw.Supported()
}

// String returns the display name of the backend.
func (b *Backend) String() string {
	return b.name
}
