// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
//
// Uniform random algorithms modified from the Go math/rand/v2 package with
// the following license:
//
// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package randsrc

import (
	"encoding/binary"
	"math/bits"
)

// Uint32 returns a uniform random uint32 composed from 4 random bytes in
// little-endian order.
//
// This function is safe for concurrent access.
func (s *Source) Uint32() (uint32, error) {
	var b [4]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Uint64 returns a uniform random uint64 composed from 8 random bytes in
// little-endian order.
//
// This function is safe for concurrent access.
func (s *Source) Uint64() (uint64, error) {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Uint64N returns a random uint64 in range [0,n) without modulo bias.
//
// Panics if n == 0.
//
// This function is safe for concurrent access.
func (s *Source) Uint64N(n uint64) (uint64, error) {
	if n == 0 {
		panic("randsrc: invalid argument to Uint64N")
	}
	x, err := s.Uint64()
	if err != nil {
		return 0, err
	}
	if n&(n-1) == 0 { // n is power of two, can mask
		return x & (n - 1), nil
	}

	// The high word of the 128-bit product x*n is a scaling of x into
	// [0,n).  Products whose low word falls below 2⁶⁴ % n are rejected, which
	// leaves exactly floor(2⁶⁴/n) inputs mapping to each output.  Since
	// 2⁶⁴ % n < n, the division is only needed when lo < n.
	//
	// See also:
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction
	hi, lo := bits.Mul64(x, n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			if x, err = s.Uint64(); err != nil {
				return 0, err
			}
			hi, lo = bits.Mul64(x, n)
		}
	}
	return hi, nil
}

// Int64N returns, as an int64, a random non-negative integer in [0,n) without
// modulo bias.
//
// Panics if n <= 0.
//
// This function is safe for concurrent access.
func (s *Source) Int64N(n int64) (int64, error) {
	if n <= 0 {
		panic("randsrc: invalid argument to Int64N")
	}
	v, err := s.Uint64N(uint64(n))
	return int64(v), err
}
