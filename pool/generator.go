// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gammazero/workerpool"
)

const (
	// DefaultSize is the default size of each of the two buffers.
	DefaultSize = 65536

	// DefaultLargeRequest is the default request size at and above which
	// draws bypass the buffers and read from the backend directly.
	DefaultLargeRequest = 64
)

// Filler is a random backend.  Fill must overwrite every byte of the provided
// buffer with random data and must be safe for concurrent use.
type Filler interface {
	Fill(b []byte) error
}

// Config houses the tunables of a Generator.  The zero value uses the
// defaults.
type Config struct {
	// Size is the size of each buffer.  Defaults to DefaultSize.
	Size int

	// LargeRequest is the request size at and above which draws bypass the
	// buffers.  It must not exceed Size.  Defaults to the smaller of
	// DefaultLargeRequest and Size.
	LargeRequest int

	// Workers is the worker pool background fills are submitted to.  It
	// must outlive the generator.  Defaults to a process-wide pool shared by
	// all generators.
	//
	// Stopping the pool with Stop while a fill is queued abandons the fill,
	// which deadlocks the next swap and Close.  Call Close on every generator
	// before stopping the pool, or stop it with StopWait.
	Workers *workerpool.WorkerPool
}

var (
	sharedWorkersOnce sync.Once
	sharedWorkers     *workerpool.WorkerPool
)

// SharedWorkers returns the process-wide worker pool used for background fills
// by generators that are not configured with their own pool.  It is created on
// first use with one worker per CPU and is never stopped.
func SharedWorkers() *workerpool.WorkerPool {
	sharedWorkersOnce.Do(func() {
		sharedWorkers = workerpool.New(runtime.NumCPU())
	})
	return sharedWorkers
}

// pendingFill tracks a single background fill of the standby buffer.  err is
// only valid once done is closed.
type pendingFill struct {
	done chan struct{}
	err  error
}

// Generator is an unbounded stream of random bytes drawn in bulk from a
// backend through a working and a standby buffer.
//
// A Generator is safe for concurrent use.  New must be used to create a usable
// generator since the zero value of this struct is not valid.
type Generator struct {
	// These fields are set at initialization time and never modified after.
	src          Filler
	size         int
	largeRequest int
	workers      *workerpool.WorkerPool

	// fills joins the background fill in flight on Close.
	fills  sync.WaitGroup
	closed atomic.Bool

	// mtx protects working, standby, index, and pending as a unit.  Bytes in
	// working before index have been handed out and must never be handed
	// out again.
	mtx     sync.Mutex
	working []byte
	standby []byte
	index   int
	pending *pendingFill
}

// New returns a generator drawing from src.  The working buffer is filled
// before returning and a background fill of the standby buffer is scheduled.
// A nil config uses the defaults.
func New(src Filler, cfg *Config) (*Generator, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.LargeRequest == 0 {
		c.LargeRequest = min(DefaultLargeRequest, c.Size)
	}
	if c.Size < 0 || c.LargeRequest <= 0 || c.LargeRequest > c.Size {
		str := fmt.Sprintf("invalid pool config: buffer size %d, large "+
			"request %d (want 0 < large request <= buffer size)", c.Size,
			c.LargeRequest)
		return nil, makeError(ErrInvalidConfig, str)
	}
	if c.Workers == nil {
		c.Workers = SharedWorkers()
	}

	g := &Generator{
		src:          src,
		size:         c.Size,
		largeRequest: c.LargeRequest,
		workers:      c.Workers,
		working:      make([]byte, c.Size),
		standby:      make([]byte, c.Size),
	}
	if err := src.Fill(g.working); err != nil {
		str := fmt.Sprintf("initial fill of %d byte buffer failed: %v",
			c.Size, err)
		return nil, makeError(ErrFillFailed, str)
	}

	g.mtx.Lock()
	g.scheduleFill()
	g.mtx.Unlock()
	return g, nil
}

// scheduleFill submits a fill of the standby buffer to the worker pool.
//
// This function MUST be called with the mutex held and no fill in flight.
func (g *Generator) scheduleFill() {
	fill := &pendingFill{done: make(chan struct{})}
	buf := g.standby
	g.pending = fill
	g.fills.Add(1)
	g.workers.Submit(func() {
		defer g.fills.Done()
		fill.err = g.src.Fill(buf)
		if fill.err != nil {
			log.Errorf("Background fill of %d byte buffer failed: %v",
				len(buf), fill.err)
		}
		close(fill.done)
	})
}

// checkSwap ensures the working buffer holds at least c unconsumed bytes by
// swapping in the standby buffer when needed.  A swap blocks until the pending
// background fill completes.  When that fill failed, the failure is returned,
// nothing is swapped, and the fill is scheduled again.
//
// This function MUST be called with the mutex held.
func (g *Generator) checkSwap(c int) error {
	if g.index+c < g.size {
		return nil
	}

	fill := g.pending
	<-fill.done
	if fill.err != nil {
		g.scheduleFill()
		str := fmt.Sprintf("background fill of %d byte buffer failed: %v",
			g.size, fill.err)
		return makeError(ErrFillFailed, str)
	}

	g.working, g.standby = g.standby, g.working
	g.index = 0
	g.scheduleFill()
	log.Tracef("Swapped in %d byte standby buffer", g.size)
	return nil
}

// Read fills b with random bytes and returns len(b).  Reads smaller than the
// large request size are served from the working buffer; larger reads are
// served by the backend directly.
//
// This function is safe for concurrent access.
func (g *Generator) Read(b []byte) (int, error) {
	c := len(b)
	if c == 0 {
		return 0, nil
	}
	if g.closed.Load() {
		return 0, makeError(ErrClosed, "read from closed generator")
	}

	if c >= g.largeRequest {
		if err := g.src.Fill(b); err != nil {
			return 0, err
		}
		return c, nil
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	// Close may have completed while waiting for the mutex.  No fill may be
	// scheduled once it has.
	if g.closed.Load() {
		return 0, makeError(ErrClosed, "read from closed generator")
	}
	if err := g.checkSwap(c); err != nil {
		return 0, err
	}
	copy(b, g.working[g.index:g.index+c])
	g.index += c
	return c, nil
}

// Buffered returns the number of unconsumed bytes in the working buffer.
//
// This function is safe for concurrent access.
func (g *Generator) Buffered() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.size - g.index
}

// Size returns the size of each buffer.
func (g *Generator) Size() int {
	return g.size
}

// LargeRequest returns the request size at and above which draws bypass the
// buffers.
func (g *Generator) LargeRequest() int {
	return g.largeRequest
}

// Close waits for the background fill in flight to complete so that no fill
// writes into the buffers after the generator is discarded.  Subsequent reads
// fail with ErrClosed.  The error of the pending fill, if any, is returned.
//
// It is safe to call Close multiple times.
func (g *Generator) Close() error {
	g.mtx.Lock()
	if g.closed.Swap(true) {
		g.mtx.Unlock()
		return nil
	}
	fill := g.pending
	g.mtx.Unlock()

	g.fills.Wait()
	if fill.err != nil {
		str := fmt.Sprintf("background fill of %d byte buffer failed: %v",
			g.size, fill.err)
		return makeError(ErrFillFailed, str)
	}
	return nil
}
