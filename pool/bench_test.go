// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"testing"

	"github.com/decred/dcrd/crypto/rand"
)

// prngFiller adapts the default decred userspace CSPRNG to a Filler.
type prngFiller struct{}

func (prngFiller) Fill(b []byte) error {
	rand.Read(b)
	return nil
}

// BenchmarkRead benchmarks pooled and bypassed draws against direct backend
// reads of the same size.
func BenchmarkRead(b *testing.B) {
	benches := []struct {
		name string
		n    int
	}{
		{name: "1b", n: 1},
		{name: "8b", n: 8},
		{name: "32b", n: 32},
		{name: "64b", n: 64},
	}

	for _, bench := range benches {
		b.Run("pooled/"+bench.name, func(b *testing.B) {
			g, err := New(prngFiller{}, nil)
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			defer g.Close()
			buf := make([]byte, bench.n)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				g.Read(buf)
			}
		})
		b.Run("direct/"+bench.name, func(b *testing.B) {
			buf := make([]byte, bench.n)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				prngFiller{}.Fill(buf)
			}
		})
	}
}
