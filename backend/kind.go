// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"strings"
)

// Kind identifies a random backend.
type Kind uint8

// These constants define the supported backend kinds.
const (
	// AutoDetect requests the backend best suited to the running platform.
	// It is resolved to one of the concrete kinds and never identifies a
	// constructed backend.
	AutoDetect Kind = iota

	// SoftwareCSPRNG is the userspace ChaCha20 CSPRNG seeded from the
	// operating system.  It is available everywhere.
	SoftwareCSPRNG

	// Hardware32 is the hardware random instruction with 32-bit draws.
	Hardware32

	// Hardware64 is the hardware random instruction with 64-bit draws.
	Hardware64

	// numKinds is the number of defined kinds.  It must be the final entry.
	numKinds
)

// kindStrings maps kinds to their canonical names.
var kindStrings = [numKinds]string{
	AutoDetect:     "autodetect",
	SoftwareCSPRNG: "software",
	Hardware32:     "hardware32",
	Hardware64:     "hardware64",
}

// kindAliases maps the additionally accepted names to kinds.
var kindAliases = map[string]Kind{
	"auto":     AutoDetect,
	"csprng":   SoftwareCSPRNG,
	"rdrand32": Hardware32,
	"rdrand64": Hardware64,
}

// String returns the Kind as a human-readable name.
func (k Kind) String() string {
	if k < numKinds {
		return kindStrings[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// IsHardware returns whether the kind is one of the hardware instruction
// variants.
func (k Kind) IsHardware() bool {
	return k == Hardware32 || k == Hardware64
}

// ParseKind returns the kind for the provided name.  Both the canonical names
// returned by String and the aliases auto, csprng, rdrand32, and rdrand64 are
// accepted without regard to case.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindStrings {
		if s == name {
			return Kind(k), nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	str := fmt.Sprintf("unknown backend kind %q", name)
	return 0, makeError(ErrInvalidBackendKind, str)
}
