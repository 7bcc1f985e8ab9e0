// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/decred/randsrc"
)

// outputFormat identifies how random data is rendered on standard output.
type outputFormat int

const (
	formatHex outputFormat = iota
	formatRaw
	formatBool
	formatDouble
	formatInt
	formatUint64
)

// formatNames maps the output formats to their configuration names.
var formatNames = map[outputFormat]string{
	formatHex:    "hex",
	formatRaw:    "raw",
	formatBool:   "bool",
	formatDouble: "double",
	formatInt:    "int",
	formatUint64: "uint64",
}

// String returns the configuration name of the format.
func (f outputFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// parseOutputFormat returns the output format with the provided name.
func parseOutputFormat(name string) (outputFormat, error) {
	for f, s := range formatNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown output format %q", name)
}

// isByteFormat returns whether counts for the format are measured in bytes
// rather than values.
func (f outputFormat) isByteFormat() bool {
	return f == formatHex || f == formatRaw
}

// streamChunk is the number of bytes or values written per iteration when
// streaming.
const streamChunk = 64

// emitter renders random data drawn from a source in a given format.
type emitter struct {
	w      io.Writer
	src    *randsrc.Source
	format outputFormat
	bound  uint64
}

// emit writes n bytes of random data for byte formats, or n values one per
// line for the other formats.  Hex output of a non-empty chunk is terminated by
// a newline.
func (e *emitter) emit(n int) error {
	if e.format.isByteFormat() {
		b, err := e.src.Bytes(n)
		if err != nil {
			return err
		}
		if e.format == formatRaw {
			_, err = e.w.Write(b)
			return err
		}
		if n == 0 {
			return nil
		}
		_, err = io.WriteString(e.w, hex.EncodeToString(b)+"\n")
		return err
	}

	var buf []byte
	for i := 0; i < n; i++ {
		var err error
		buf, err = e.appendValue(buf[:0])
		if err != nil {
			return err
		}
		buf = append(buf, '\n')
		if _, err := e.w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// appendValue appends the textual form of a single random value to buf.
func (e *emitter) appendValue(buf []byte) ([]byte, error) {
	switch e.format {
	case formatBool:
		v, err := e.src.Bool()
		if err != nil {
			return nil, err
		}
		return strconv.AppendBool(buf, v), nil

	case formatDouble:
		v, err := e.src.Float64()
		if err != nil {
			return nil, err
		}
		return strconv.AppendFloat(buf, v, 'g', -1, 64), nil

	case formatInt:
		v, err := e.src.IntN(int(e.bound))
		if err != nil {
			return nil, err
		}
		return strconv.AppendInt(buf, int64(v), 10), nil

	case formatUint64:
		var v uint64
		var err error
		if e.bound == 0 {
			v, err = e.src.Uint64()
		} else {
			v, err = e.src.Uint64N(e.bound)
		}
		if err != nil {
			return nil, err
		}
		return strconv.AppendUint(buf, v, 10), nil
	}

	return nil, fmt.Errorf("unsupported output format %v", e.format)
}
