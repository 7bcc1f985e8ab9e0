// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !amd64 || purego

package rdrand

const hasRDRAND = false

func rdrand32() (uint32, bool) { return 0, false }
func rdrand64() (uint64, bool) { return 0, false }
