// SPDX-License-Identifier: MIT
package capture

// SmpPoints is the number of samples in one analysis window.
const SmpPoints = 2048

// MaxSample is the largest value the converter produces (14-bit).
const MaxSample Sample = 0x3FFF

// Sample is one converter reading.
type Sample uint16

// SamplingBuffer is a fixed-capacity sample container. It never grows; once
// full it must be cleared before it accepts another sample.
type SamplingBuffer struct {
	data [SmpPoints]Sample
	n    int
}

// Len returns the number of samples currently held.
func (b *SamplingBuffer) Len() int { return b.n }

// Cap returns the fixed capacity, always SmpPoints.
func (b *SamplingBuffer) Cap() int { return SmpPoints }

// Full reports whether the buffer holds a complete window.
func (b *SamplingBuffer) Full() bool { return b.n == SmpPoints }

// push appends s and reports whether there was room for it.
func (b *SamplingBuffer) push(s Sample) bool {
	if b.n == SmpPoints {
		return false
	}
	b.data[b.n] = s
	b.n++
	return true
}

// Samples returns a view of the held samples. The view aliases the buffer.
func (b *SamplingBuffer) Samples() []Sample { return b.data[:b.n] }

func (b *SamplingBuffer) clear() { b.n = 0 }

// midScale is the converter reading for a zero signal.
const midScale = 1 << 13

// FromSigned maps a signed PCM value of the given bit depth onto the
// converter range, clamping at the rails.
func FromSigned(v int, bitDepth int) Sample {
	shift := bitDepth - 14
	if shift > 0 {
		v >>= shift
	} else if shift < 0 {
		v <<= -shift
	}
	v += midScale
	switch {
	case v < 0:
		return 0
	case v > int(MaxSample):
		return MaxSample
	}
	return Sample(v)
}

// Signed is the inverse of FromSigned.
func (s Sample) Signed(bitDepth int) int {
	v := int(s) - midScale
	shift := bitDepth - 14
	if shift > 0 {
		return v << shift
	}
	return v >> -shift
}
