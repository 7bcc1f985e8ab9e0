// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package randsrc

import (
	"github.com/decred/randsrc/backend"
	"github.com/decred/randsrc/pool"
	"github.com/gammazero/workerpool"
)

// Config houses the options used to create a Source.  The zero value requests
// an auto-detected backend with pooling enabled.
type Config struct {
	// Backend is the requested backend kind.
	Backend backend.Kind

	// DisablePooling makes every draw read from the backend directly.
	DisablePooling bool

	// Registry resolves and caches backends.  Defaults to the process-wide
	// backend.DefaultRegistry.
	Registry *backend.Registry

	// BufferSize and LargeRequest tune the pool.  See pool.Config.
	BufferSize   int
	LargeRequest int

	// Workers is the worker pool used for background refills.  Defaults to
	// pool.SharedWorkers.
	Workers *workerpool.WorkerPool
}

// Source is a random byte source backed by a software or hardware backend.
//
// A Source is safe for concurrent use.
type Source struct {
	requested backend.Kind
	backend   *backend.Backend

	// gen is nil when pooling is disabled.
	gen *pool.Generator
}

// New returns a source using the provided configuration.  A nil config uses the
// defaults.
//
// Explicitly requesting a hardware backend that is unavailable fails with
// backend.ErrUnsupportedBackend.
func New(cfg *Config) (*Source, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	registry := c.Registry
	if registry == nil {
		registry = backend.DefaultRegistry()
	}

	b, err := registry.Acquire(c.Backend)
	if err != nil {
		return nil, err
	}
	s := &Source{requested: c.Backend, backend: b}

	if !c.DisablePooling {
		s.gen, err = pool.New(b, &pool.Config{
			Size:         c.BufferSize,
			LargeRequest: c.LargeRequest,
			Workers:      c.Workers,
		})
		if err != nil {
			return nil, err
		}
	}

	log.Debugf("Created random source using %s backend (requested %v, "+
		"pooled %v)", b, c.Backend, s.gen != nil)
	return s, nil
}

// Read fills b with random bytes and returns len(b).  It implements io.Reader.
//
// This function is safe for concurrent access.
func (s *Source) Read(b []byte) (int, error) {
	if s.gen != nil {
		return s.gen.Read(b)
	}
	if err := s.backend.Fill(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Bytes returns n random bytes.  It panics if n < 0.
//
// This function is safe for concurrent access.
func (s *Source) Bytes(n int) ([]byte, error) {
	if n < 0 {
		panic("randsrc: invalid argument to Bytes")
	}
	b := make([]byte, n)
	if _, err := s.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// IsHardware returns whether the active backend is a hardware instruction.
func (s *Source) IsHardware() bool {
	return s.backend.IsHardware()
}

// Name returns the display name of the active backend.
func (s *Source) Name() string {
	return s.backend.Name()
}

// RequestedKind returns the backend kind originally requested, which may be
// backend.AutoDetect.
func (s *Source) RequestedKind() backend.Kind {
	return s.requested
}

// Kind returns the concrete kind of the active backend.
func (s *Source) Kind() backend.Kind {
	return s.backend.Kind()
}

// Pooled returns whether draws are served through the prefetch pool.
func (s *Source) Pooled() bool {
	return s.gen != nil
}

// Buffered returns the number of prefetched bytes not yet handed out.  It is
// always zero when pooling is disabled.
//
// This function is safe for concurrent access.
func (s *Source) Buffered() int {
	if s.gen == nil {
		return 0
	}
	return s.gen.Buffered()
}

// Close waits for any background refill to complete.  Draws after Close fail
// when pooling is enabled.  The shared backend itself remains usable by other
// sources.
func (s *Source) Close() error {
	if s.gen == nil {
		return nil
	}
	return s.gen.Close()
}
