// Copyright (c) 2017-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sampleconfig provides the commented example configuration file for
// randsrc.
package sampleconfig

import (
	_ "embed"
)

// sampleRandsrcConf is a string containing the commented example config for
// randsrc.
//
//go:embed sample-randsrc.conf
var sampleRandsrcConf string

// Randsrc returns a string containing the commented example config for
// randsrc.
func Randsrc() string {
	return sampleRandsrcConf
}
