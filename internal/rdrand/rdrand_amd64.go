// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build amd64 && !purego

package rdrand

import "golang.org/x/sys/cpu"

var hasRDRAND = cpu.X86.HasRDRAND

// rdrand32 executes RDRAND with a 32-bit operand.  ok is false when the
// carry flag was clear, meaning no random data was returned.
func rdrand32() (v uint32, ok bool)

// rdrand64 executes RDRAND with a 64-bit operand.
func rdrand64() (v uint64, ok bool)
