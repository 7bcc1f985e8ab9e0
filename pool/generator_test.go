// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gammazero/workerpool"
	"go.uber.org/goleak"
)

// pattern returns the byte written at offset i by the given fill number of a
// seqFiller.
func pattern(fill, i int) byte {
	return byte(fill*37 + i)
}

// seqFiller writes a pattern identifying the fill number into each buffer.
// Fills after the first block until gate is closed when gate is non-nil, and
// fills listed in fail return the associated error.
type seqFiller struct {
	mtx   sync.Mutex
	fills int
	gate  chan struct{}
	fail  map[int]error
}

func (f *seqFiller) Fill(b []byte) error {
	f.mtx.Lock()
	f.fills++
	n := f.fills
	err := f.fail[n]
	f.mtx.Unlock()

	if f.gate != nil && n > 1 {
		<-f.gate
	}
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = pattern(n, i)
	}
	return nil
}

func (f *seqFiller) numFills() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.fills
}

// expected returns the bytes in [from, to) of the given fill number.
func expected(fill, from, to int) []byte {
	b := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		b = append(b, pattern(fill, i))
	}
	return b
}

// newTestGenerator returns a generator using a dedicated worker pool which is
// stopped, along with the generator, when the test completes.
func newTestGenerator(t *testing.T, src Filler, size, large int) *Generator {
	t.Helper()

	workers := workerpool.New(2)
	g, err := New(src, &Config{
		Size:         size,
		LargeRequest: large,
		Workers:      workers,
	})
	if err != nil {
		workers.StopWait()
		t.Fatalf("unexpected error creating generator: %v", err)
	}
	t.Cleanup(func() {
		g.Close()
		workers.StopWait()
	})
	return g
}

// mustRead draws n bytes from the generator, failing the test on error.
func mustRead(t *testing.T, g *Generator, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	if _, err := g.Read(b); err != nil {
		t.Fatalf("unexpected error reading %d bytes: %v", n, err)
	}
	return b
}

// TestNewConfig ensures configurations are validated and defaulted.
func TestNewConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		wantSize  int
		wantLarge int
		wantErr   error
	}{{
		name:      "nil config",
		cfg:       nil,
		wantSize:  DefaultSize,
		wantLarge: DefaultLargeRequest,
	}, {
		name:      "small buffer clamps large request",
		cfg:       &Config{Size: 16},
		wantSize:  16,
		wantLarge: 16,
	}, {
		name:      "explicit values",
		cfg:       &Config{Size: 1024, LargeRequest: 128},
		wantSize:  1024,
		wantLarge: 128,
	}, {
		name:    "large request exceeds size",
		cfg:     &Config{Size: 32, LargeRequest: 33},
		wantErr: ErrInvalidConfig,
	}, {
		name:    "negative size",
		cfg:     &Config{Size: -1, LargeRequest: 1},
		wantErr: ErrInvalidConfig,
	}, {
		name:    "negative large request",
		cfg:     &Config{Size: 64, LargeRequest: -1},
		wantErr: ErrInvalidConfig,
	}}

	t.Logf("Running %d tests", len(tests))
	for _, test := range tests {
		g, err := New(&seqFiller{}, test.cfg)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%q: got error %v, want %v", test.name, err, test.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if g.Size() != test.wantSize || g.LargeRequest() != test.wantLarge {
			t.Errorf("%q: got size %d large %d, want size %d large %d",
				test.name, g.Size(), g.LargeRequest(), test.wantSize,
				test.wantLarge)
		}
		if err := g.Close(); err != nil {
			t.Errorf("%q: unexpected close error: %v", test.name, err)
		}
	}
}

// TestNewInitialFillFailure ensures a failure of the synchronous initial fill
// is returned from New.
func TestNewInitialFillFailure(t *testing.T) {
	src := &seqFiller{fail: map[int]error{1: errors.New("no entropy")}}
	workers := workerpool.New(1)
	defer workers.StopWait()
	_, err := New(src, &Config{Size: 16, Workers: workers})
	if !errors.Is(err, ErrFillFailed) {
		t.Fatalf("got error %v, want %v", err, ErrFillFailed)
	}
}

// TestDrawsConsumeInitialFill ensures a sequence of pooled draws which stays
// within the working buffer returns the initial fill in order without
// repeating any byte.
func TestDrawsConsumeInitialFill(t *testing.T) {
	const size = 64
	src := &seqFiller{}
	g := newTestGenerator(t, src, size, 16)

	var got []byte
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 8} {
		got = append(got, mustRead(t, g, n)...)
	}
	if len(got) != size-1 {
		t.Fatalf("drew %d bytes, want %d", len(got), size-1)
	}
	if want := expected(1, 0, size-1); !bytes.Equal(got, want) {
		t.Fatalf("mismatched bytes\ngot:  %x\nwant: %x", got, want)
	}
	if buffered := g.Buffered(); buffered != 1 {
		t.Fatalf("buffered: got %d, want 1", buffered)
	}
}

// TestSwapAtBoundary ensures a draw which would reach the end of the working
// buffer swaps in the standby buffer and returns bytes from it.
func TestSwapAtBoundary(t *testing.T) {
	const size = 16
	src := &seqFiller{}
	g := newTestGenerator(t, src, size, size)

	if got, want := mustRead(t, g, size-1), expected(1, 0, size-1); !bytes.Equal(got, want) {
		t.Fatalf("first draw: got %x, want %x", got, want)
	}

	// index + c == size requires a swap.
	if got, want := mustRead(t, g, 1), expected(2, 0, 1); !bytes.Equal(got, want) {
		t.Fatalf("boundary draw: got %x, want %x", got, want)
	}
	if buffered := g.Buffered(); buffered != size-1 {
		t.Fatalf("buffered: got %d, want %d", buffered, size-1)
	}
}

// TestSwapBlocksUntilFill ensures a draw that straddles the buffer boundary
// only returns after the background fill of the standby buffer completes and
// then returns bytes from the newly filled buffer.
func TestSwapBlocksUntilFill(t *testing.T) {
	src := &seqFiller{gate: make(chan struct{})}
	g := newTestGenerator(t, src, 16, 8)

	for i := 0; i < 3; i++ {
		if got, want := mustRead(t, g, 4), expected(1, i*4, i*4+4); !bytes.Equal(got, want) {
			t.Fatalf("draw %d: got %x, want %x", i, got, want)
		}
	}

	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b := make([]byte, 4)
		_, err := g.Read(b)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("draw returned before the standby fill completed: %x %v",
			r.b, r.err)
	case <-time.After(100 * time.Millisecond):
	}

	close(src.gate)
	var r result
	select {
	case r = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("draw did not return after the standby fill completed")
	}
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if want := expected(2, 0, 4); !bytes.Equal(r.b, want) {
		t.Fatalf("got %x, want %x", r.b, want)
	}
}

// countingFiller counts the fills it performs.
type countingFiller struct {
	mtx   sync.Mutex
	fills int
}

func (f *countingFiller) Fill(b []byte) error {
	f.mtx.Lock()
	f.fills++
	f.mtx.Unlock()
	for i := range b {
		b[i] = 0xff
	}
	return nil
}

// TestLargeRequestBypass ensures requests at or above the large request size
// go straight to the backend and that backend invocations are exactly the
// large requests plus the buffer-level fills.
func TestLargeRequestBypass(t *testing.T) {
	src := &countingFiller{}
	g := newTestGenerator(t, src, 64, 16)

	largeSizes := []int{16, 17, 64, 100, 1000}
	for i := 0; i < 20; i++ {
		mustRead(t, g, 8)
		if i < len(largeSizes) {
			before := g.Buffered()
			mustRead(t, g, largeSizes[i])
			if after := g.Buffered(); after != before {
				t.Fatalf("large request consumed pooled bytes: %d -> %d",
					before, after)
			}
		}
	}

	// Seven 8 byte draws fit per 64 byte buffer, so the 8th and 15th draws
	// swap.  That leaves the 15th through 20th draws in the current buffer.
	if buffered := g.Buffered(); buffered != 64-6*8 {
		t.Fatalf("buffered: got %d, want %d", buffered, 64-6*8)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	// Initial synchronous fill, initial background fill, and one background
	// fill per swap.
	const bufferFills = 1 + 1 + 2
	src.mtx.Lock()
	fills := src.fills
	src.mtx.Unlock()
	if want := len(largeSizes) + bufferFills; fills != want {
		t.Fatalf("backend fills: got %d, want %d", fills, want)
	}
}

// TestBackgroundFillFailure ensures a failed background fill is surfaced to
// the draw that needed it, that no consumed byte is handed out again, and that
// the fill is retried by the next draw.
func TestBackgroundFillFailure(t *testing.T) {
	src := &seqFiller{fail: map[int]error{2: errors.New("underflow")}}
	g := newTestGenerator(t, src, 16, 8)

	var got []byte
	for i := 0; i < 3; i++ {
		got = append(got, mustRead(t, g, 4)...)
	}

	_, err := g.Read(make([]byte, 4))
	if !errors.Is(err, ErrFillFailed) {
		t.Fatalf("got error %v, want %v", err, ErrFillFailed)
	}
	if buffered := g.Buffered(); buffered != 4 {
		t.Fatalf("failed draw consumed bytes: buffered %d, want 4", buffered)
	}

	got = append(got, mustRead(t, g, 4)...)
	want := append(expected(1, 0, 12), expected(3, 0, 4)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("mismatched bytes\ngot:  %x\nwant: %x", got, want)
	}
}

// TestCloseJoinsFill ensures Close waits for the background fill in flight,
// reports its failure, rejects further draws, and leaves no goroutines behind.
func TestCloseJoinsFill(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &seqFiller{
		gate: make(chan struct{}),
		fail: map[int]error{2: errors.New("underflow")},
	}
	workers := workerpool.New(1)
	g, err := New(src, &Config{Size: 16, LargeRequest: 8, Workers: workers})
	if err != nil {
		t.Fatalf("unexpected error creating generator: %v", err)
	}

	closed := make(chan error, 1)
	go func() {
		closed <- g.Close()
	}()
	select {
	case err := <-closed:
		t.Fatalf("close returned before the pending fill completed: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(src.gate)
	select {
	case err := <-closed:
		if !errors.Is(err, ErrFillFailed) {
			t.Fatalf("got close error %v, want %v", err, ErrFillFailed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return after the pending fill completed")
	}

	for _, n := range []int{1, 8} {
		if _, err := g.Read(make([]byte, n)); !errors.Is(err, ErrClosed) {
			t.Fatalf("read %d bytes after close: got %v, want %v", n, err,
				ErrClosed)
		}
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}
	if n := src.numFills(); n != 2 {
		t.Fatalf("fills after close: got %d, want 2", n)
	}
	workers.StopWait()
}

// wordFiller writes an increasing sequence of little endian uint32 words
// across all fills.
type wordFiller struct {
	mtx  sync.Mutex
	next uint32
}

func (f *wordFiller) Fill(b []byte) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for i := 0; i+4 <= len(b); i += 4 {
		binary.LittleEndian.PutUint32(b[i:], f.next)
		f.next++
	}
	return nil
}

// TestConcurrentDraws ensures concurrent callers never receive the same bytes
// and each observe bytes in production order.
func TestConcurrentDraws(t *testing.T) {
	const (
		numGoroutines = 16
		numDraws      = 2000
	)
	g := newTestGenerator(t, &wordFiller{}, 4096, 64)

	results := make([][]uint32, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			words := make([]uint32, 0, numDraws)
			var b [4]byte
			for j := 0; j < numDraws; j++ {
				if _, err := g.Read(b[:]); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				words = append(words, binary.LittleEndian.Uint32(b[:]))
			}
			results[i] = words
		}(i)
	}
	wg.Wait()

	seen := make(map[uint32]struct{}, numGoroutines*numDraws)
	for i, words := range results {
		for j, w := range words {
			if _, ok := seen[w]; ok {
				t.Fatalf("goroutine %d draw %d: word %d handed out twice",
					i, j, w)
			}
			seen[w] = struct{}{}
			if j > 0 && w <= words[j-1] {
				t.Fatalf("goroutine %d draw %d: word %d not after %d", i,
					j, w, words[j-1])
			}
		}
	}
}

// TestStopWaitRunsPendingFill ensures stopping a dedicated worker pool with
// StopWait runs the queued fill so a later Close does not block.
func TestStopWaitRunsPendingFill(t *testing.T) {
	src := &seqFiller{gate: make(chan struct{})}
	workers := workerpool.New(1)
	g, err := New(src, &Config{Size: 16, LargeRequest: 4, Workers: workers})
	if err != nil {
		workers.StopWait()
		t.Fatalf("New: unexpected error: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		workers.StopWait()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("StopWait returned before the pending fill ran")
	case <-time.After(50 * time.Millisecond):
	}

	close(src.gate)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("StopWait did not return after the fill was released")
	}

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close: unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked after the pool was stopped with StopWait")
	}
	if n := src.numFills(); n != 2 {
		t.Fatalf("unexpected fill count -- got %d, want 2", n)
	}
}
