// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"io"
	"sync"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/randsrc/internal/platform"
	"github.com/decred/randsrc/internal/rdrand"
)

// RegistryConfig houses the collaborators used by a Registry.  Nil fields are
// replaced with the defaults for the running process.
type RegistryConfig struct {
	// Platform returns the platform classification consulted when resolving
	// AutoDetect.  Defaults to platform.Detect.
	Platform func() platform.Info

	// Hardware32 and Hardware64 are the native instructions backing the
	// hardware variants.  They default to RDRAND with the matching width.
	Hardware32 Instruction
	Hardware64 Instruction

	// Software is the reader backing the software CSPRNG variant.  It must
	// be safe for concurrent access.  Defaults to the decred userspace
	// CSPRNG returned by rand.Reader.
	Software io.Reader
}

// Registry resolves backend kinds into shared Backend instances.  At most one
// instance is constructed per concrete kind.  Acquisition is serialized by a
// single mutex which the draw path never takes.
//
// NewRegistry must be used to create a usable registry since the zero value
// of this struct is not valid.
type Registry struct {
	// These fields are set at initialization time and never modified after.
	platform func() platform.Info
	hardware [numKinds]Instruction
	software io.Reader

	mtx       sync.Mutex
	instances map[Kind]*Backend
}

// NewRegistry returns an empty registry using the provided collaborators.  A
// nil config uses the defaults for every collaborator.
func NewRegistry(cfg *RegistryConfig) *Registry {
	if cfg == nil {
		cfg = &RegistryConfig{}
	}
	r := &Registry{
		platform:  cfg.Platform,
		software:  cfg.Software,
		instances: make(map[Kind]*Backend, numKinds),
	}
	if r.platform == nil {
		r.platform = platform.Detect
	}
	if r.software == nil {
		r.software = rand.Reader()
	}
	r.hardware[Hardware32] = cfg.Hardware32
	if r.hardware[Hardware32] == nil {
		r.hardware[Hardware32] = rdrand.New(rdrand.Width32)
	}
	r.hardware[Hardware64] = cfg.Hardware64
	if r.hardware[Hardware64] == nil {
		r.hardware[Hardware64] = rdrand.New(rdrand.Width64)
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry using the default
// collaborators.  It is created on first use and lives for the lifetime of the
// process.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// unsupportedError returns an ErrUnsupportedBackend error for the kind.
func unsupportedError(kind Kind, reason string) Error {
	str := fmt.Sprintf("the selected hardware random number generator (%v) "+
		"is not supported: %s", kind, reason)
	return makeError(ErrUnsupportedBackend, str)
}

// Acquire returns the shared backend for the requested kind, constructing it
// on first use.
//
// AutoDetect resolves to the software CSPRNG on POSIX platforms and to the
// hardware variant matching the process pointer width elsewhere.  Whenever an
// auto-detected hardware variant is unavailable or fails its support probe,
// the software CSPRNG is returned instead.  Explicit requests for hardware that
// is unavailable or unsupported fail with ErrUnsupportedBackend.  Unknown
// kinds fail with ErrInvalidBackendKind.
//
// This function is safe for concurrent access.
func (r *Registry) Acquire(kind Kind) (*Backend, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	autodetect := kind == AutoDetect
	if autodetect {
		info := r.platform()
		switch {
		case info.POSIX:
			kind = SoftwareCSPRNG
		case info.Is64Bit():
			kind = Hardware64
		default:
			kind = Hardware32
		}
		log.Debugf("Auto-detected %v backend on %v", kind, info)
	}

	// Check for native support before consulting the cache so explicit
	// requests never silently receive a different kind.
	if kind.IsHardware() && !r.hardware[kind].Available() {
		if !autodetect {
			return nil, unsupportedError(kind, "instruction not available")
		}
		log.Infof("Hardware backend %v is not available, using %v", kind,
			SoftwareCSPRNG)
		kind = SoftwareCSPRNG
	}

	if b, ok := r.instances[kind]; ok {
		return b, nil
	}

	var b *Backend
	switch kind {
	case SoftwareCSPRNG:
		b = newSoftwareBackend(r.software)
	case Hardware32, Hardware64:
		b = newHardwareBackend(kind, r.hardware[kind])
	default:
		str := fmt.Sprintf("unknown backend kind %v", kind)
		return nil, makeError(ErrInvalidBackendKind, str)
	}

	// Unsupported hardware instances are never cached, so a later request
	// for the same kind runs the probe again rather than receiving a
	// backend that cannot produce data.
	if !b.IsSupported() {
		if !autodetect {
			return nil, unsupportedError(kind, "support probe failed")
		}
		log.Infof("Hardware backend %v failed its support probe, using %v",
			kind, SoftwareCSPRNG)
		sw, ok := r.instances[SoftwareCSPRNG]
		if !ok {
			sw = newSoftwareBackend(r.software)
			r.instances[SoftwareCSPRNG] = sw
			log.Debugf("Constructed %v backend (%s)", SoftwareCSPRNG, sw)
		}
		return sw, nil
	}

	r.instances[kind] = b
	log.Debugf("Constructed %v backend (%s)", kind, b)
	return b, nil
}

// Cached returns the backend previously constructed for the kind, if any.
//
// This function is safe for concurrent access.
func (r *Registry) Cached(kind Kind) (*Backend, bool) {
	r.mtx.Lock()
	b, ok := r.instances[kind]
	r.mtx.Unlock()
	return b, ok
}
