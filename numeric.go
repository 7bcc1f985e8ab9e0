// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package randsrc

import (
	"encoding/binary"
)

// float64FromBytes converts 8 random bytes into a float64 uniformly distributed
// in [0, 1).
//
// The bytes are composed into a uint64 in the host's native byte order.  The
// most significant byte is cleared and the remaining value is shifted right by
// 3 bits, which leaves exactly 53 random bits to match the significand width
// of a float64.  The result is then scaled by 2^-53.
func float64FromBytes(b [8]byte) float64 {
	v := binary.NativeEndian.Uint64(b[:])
	v &^= 0xff << 56
	v >>= 3
	return float64(v) / (1 << 53)
}

// Byte returns a random byte.
//
// This function is safe for concurrent access.
func (s *Source) Byte() (byte, error) {
	var b [1]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool returns a random bool determined by the low bit of a random byte.
//
// This function is safe for concurrent access.
func (s *Source) Bool() (bool, error) {
	b, err := s.Byte()
	if err != nil {
		return false, err
	}
	return b&1 == 1, nil
}

// Float64 returns a random float64 uniformly distributed in [0, 1) with 53
// bits of precision.
//
// This function is safe for concurrent access.
func (s *Source) Float64() (float64, error) {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return float64FromBytes(b), nil
}

// IntN returns a random int in [0, n) computed as floor(n * Float64()).  This
// is fast but not exactly uniform for n that are large relative to 2^53.  Use
// Uint64N when exact uniformity is required.
//
// Panics if n <= 0.
//
// This function is safe for concurrent access.
func (s *Source) IntN(n int) (int, error) {
	if n <= 0 {
		panic("randsrc: invalid argument to IntN")
	}
	f, err := s.Float64()
	if err != nil {
		return 0, err
	}

	// Rounding of very large n to a float64 can push the product to n.
	v := int(float64(n) * f)
	if v >= n {
		v = n - 1
	}
	return v, nil
}
