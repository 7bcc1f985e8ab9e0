// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package pool amortizes the per-call cost of a random backend with a
double-buffered prefetch pool.

A Generator owns two equally sized buffers.  Callers drain the working buffer
while the standby buffer is filled by a task running on a background worker
pool.  When a draw would reach the end of the working buffer, the generator
waits for the standby fill to complete, swaps the roles of the two buffers,
and schedules a fill of the new standby buffer.  Backend calls therefore
happen once per buffer rather than once per draw, and their latency is hidden
behind the time callers spend between draws.

Requests of at least the configured large request size bypass the buffers and
are read from the backend directly, since pooling offers no amortization for
them.

Bytes are handed out in strict production order and no byte is ever handed out
twice.  A failure of a background fill is reported to the caller whose draw
needed the failed buffer, and the fill is retried by the next draw.
*/
package pool
