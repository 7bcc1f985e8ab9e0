// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package randsrc provides a uniform random byte source that draws from either a
software CSPRNG or a hardware random number instruction, optionally amortizing
the per-call cost of the backend through a double-buffered prefetch pool.

A Source is created with New.  The backend is selected by Config.Backend, where
backend.AutoDetect picks the software CSPRNG on POSIX platforms and the hardware
instruction elsewhere, falling back to the software CSPRNG whenever the
hardware cannot be used.  Explicit requests for unavailable hardware fail with
backend.ErrUnsupportedBackend.

Pooling is enabled by default.  Draws smaller than the large request size are
then served from an in-memory buffer that is refilled in the background, while
larger draws always read from the backend directly.

In addition to raw bytes, a Source converts random bytes into booleans, floats
uniformly distributed in [0, 1) with 53 bits of precision, and bounded
integers.

Example usage:

	src, err := randsrc.New(nil)
	if err != nil {
		// Handle error.
	}
	defer src.Close()

	roll, err := src.IntN(6)
	...
*/
package randsrc
