// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package backend selects and caches the concrete random sources used by randsrc.

A Backend is either the software CSPRNG or one of the hardware instruction
variants.  Every variant fills byte slices with random data; the hardware
variants additionally carry a capability probe that is consulted once when the
backend is acquired.

A Registry resolves a requested Kind into a Backend.  Explicit requests for
hardware that is not available fail with ErrUnsupportedBackend, while requests
for AutoDetect pick a backend suited to the platform and silently fall back to
the software CSPRNG whenever the preferred hardware cannot be used.  At most one
Backend is constructed per Kind for the lifetime of a Registry, and all callers
acquiring the same Kind share it.
*/
package backend
