// SPDX-License-Identifier: MIT
/*
Package capture implements the double-buffered handoff between the sample
producer and the window consumer.

Two SamplingBuffers are allocated once inside a Pair. At any instant one of
them has the sampling role (appended to by the Producer) and the other has
the processing role (read and cleared by the Consumer). The role assignment
and the "processing buffer holds a window" flag live in a single atomic word,
so the producer decides between append, swap and drop with one load and at
most one compare-and-swap.

Thread Safety:
  - Producer methods may only be called from one goroutine.
  - Consumer methods may only be called from one (other) goroutine.
  - Deliver never blocks and never allocates.
*/
package capture

import (
	"sync/atomic"
)

// Result reports which of the three arbiter actions Deliver took.
type Result uint8

const (
	Appended Result = iota // sample stored in the sampling buffer
	Swapped                // full window handed to the consumer
	Dropped                // consumer busy, full window discarded
)

func (r Result) String() string {
	switch r {
	case Appended:
		return "appended"
	case Swapped:
		return "swapped"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// State word layout.
const (
	samplingMask uint32 = 1 << 0 // index of the buffer in the sampling role
	busyFlag     uint32 = 1 << 1 // processing buffer holds an unreleased window
)

// Pair owns both buffers and the role state. It is only reachable through
// the Producer and Consumer endpoints returned by New.
type Pair struct {
	buffers [2]SamplingBuffer
	state   atomic.Uint32
	ready   chan struct{}

	delivered atomic.Uint64
	swapped   atomic.Uint64
	dropped   atomic.Uint64
}

// Stats is a snapshot of the arbiter counters.
type Stats struct {
	Delivered uint64 // samples passed to Deliver
	Swapped   uint64 // windows handed to the consumer
	Dropped   uint64 // full windows discarded because the consumer was busy
}

// Producer is the write endpoint. It can only append samples.
type Producer struct {
	p *Pair
}

// Consumer is the read endpoint. It can only read and release the
// processing buffer.
type Consumer struct {
	p *Pair
}

// New allocates a buffer pair and returns its two endpoints. Buffer 0 starts
// in the sampling role.
func New() (*Producer, *Consumer) {
	p := &Pair{ready: make(chan struct{}, 1)}
	return &Producer{p: p}, &Consumer{p: p}
}

// Deliver is called once per converter event. Exactly one of append, swap or
// drop happens per call.
func (pr *Producer) Deliver(s Sample) Result {
	p := pr.p
	p.delivered.Add(1)

	st := p.state.Load()
	sampling := &p.buffers[st&samplingMask]
	if sampling.push(s) {
		return Appended
	}

	// Sampling buffer is full. Only the producer flips the role bit and only
	// the consumer clears the busy flag, so a failed CAS means busy was set.
	if st&busyFlag == 0 && p.state.CompareAndSwap(st, (st^samplingMask)|busyFlag) {
		p.swapped.Add(1)
		select {
		case p.ready <- struct{}{}:
		default:
		}
		return Swapped
	}

	sampling.clear()
	p.dropped.Add(1)
	return Dropped
}

// SamplingIndex returns the index of the buffer in the sampling role.
func (pr *Producer) SamplingIndex() int {
	return int(pr.p.state.Load() & samplingMask)
}

// Window returns the processing buffer contents when it holds a full window.
// The slice aliases the buffer and is valid until Release.
func (c *Consumer) Window() ([]Sample, bool) {
	st := c.p.state.Load()
	if st&busyFlag == 0 {
		return nil, false
	}
	b := &c.p.buffers[(st&samplingMask)^1]
	if !b.Full() {
		return nil, false
	}
	return b.Samples(), true
}

// Release clears the processing buffer and makes it available for the next
// swap. Calling Release without a held window is a no-op.
func (c *Consumer) Release() {
	for {
		st := c.p.state.Load()
		if st&busyFlag == 0 {
			return
		}
		c.p.buffers[(st&samplingMask)^1].clear()
		if c.p.state.CompareAndSwap(st, st&^busyFlag) {
			return
		}
	}
}

// Ready returns a channel that receives a value after each swap. The
// channel has capacity one; several swaps between reads coalesce.
func (c *Consumer) Ready() <-chan struct{} {
	return c.p.ready
}

// ProcessingIndex returns the index of the buffer in the processing role.
func (c *Consumer) ProcessingIndex() int {
	return int(c.p.state.Load()&samplingMask) ^ 1
}

// Stats returns a snapshot of the arbiter counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Delivered: c.p.delivered.Load(),
		Swapped:   c.p.swapped.Load(),
		Dropped:   c.p.dropped.Load(),
	}
}
