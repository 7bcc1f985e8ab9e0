// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package platform classifies the running platform for backend auto-detection.
package platform

import (
	"fmt"
	"math/bits"
	"runtime"
)

// Info describes the properties of the running platform that are consulted
// when automatically selecting a random backend.
type Info struct {
	// GOOS is the operating system the binary was built for.
	GOOS string

	// POSIX is set for Unix-like operating systems.
	POSIX bool

	// PointerBits is the pointer width of the process in bits.
	PointerBits int
}

// Is64Bit returns whether the process uses 64-bit pointers.
func (i Info) Is64Bit() bool {
	return i.PointerBits == 64
}

// String returns a human-readable summary of the platform.
func (i Info) String() string {
	family := "non-posix"
	if i.POSIX {
		family = "posix"
	}
	return fmt.Sprintf("%s (%s, %d-bit)", i.GOOS, family, i.PointerBits)
}

// Detect returns the platform information for the running process.
func Detect() Info {
	return Info{
		GOOS:        runtime.GOOS,
		POSIX:       isPOSIX,
		PointerBits: bits.UintSize,
	}
}
