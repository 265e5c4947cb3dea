// SPDX-License-Identifier: MIT
package source

import (
	"math"

	"tuner/internal/capture"
)

// rateConverter re-times a sample stream from one rate to another by linear
// interpolation. It keeps only the previous input sample, so the stream
// callback can run it without allocating.
type rateConverter struct {
	sink  Sink
	step  float64 // input samples per output sample
	phase float64 // position of the next output between prev (0) and the next input (1)
	prev  float64
	armed bool
}

func newRateConverter(from, to float64, sink Sink) *rateConverter {
	return &rateConverter{sink: sink, step: from / to}
}

// push consumes one input sample and delivers every output sample that falls
// between it and the previous one.
func (r *rateConverter) push(s capture.Sample) {
	x := float64(s)
	if !r.armed {
		r.prev, r.armed = x, true
		return
	}
	for r.phase < 1 {
		r.sink.Deliver(capture.Sample(math.Round(r.prev + (x-r.prev)*r.phase)))
		r.phase += r.step
	}
	r.phase--
	r.prev = x
}
