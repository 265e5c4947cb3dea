// SPDX-License-Identifier: MIT
package pitch

import "tuner/internal/capture"

// Normalize rescales in from its [min, max] range onto [0, NormalizedMax],
// writing the result to out, and returns the mean of out.
//
// A window whose range exceeds threshold is an onset strike or clipping and
// is rejected as RejectTransient. A window with max == min has no range to
// scale and is rejected as RejectFlat. On rejection out is left untouched.
//
// len(out) must be at least len(in).
func Normalize(in []capture.Sample, out []float64, threshold int) (float64, Verdict) {
	if len(in) == 0 {
		return 0, RejectFlat
	}

	lo, hi := in[0], in[0]
	for _, s := range in[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	span := uint32(hi - lo)
	if int(span) > threshold {
		return 0, RejectTransient
	}
	if span == 0 {
		return 0, RejectFlat
	}

	// Integer scale factor keeps every output inside the target range.
	scale := uint32(NormalizedMax) / span
	var sum uint64
	for i, s := range in {
		v := uint32(s-lo) * scale
		out[i] = float64(v)
		sum += uint64(v)
	}

	return float64(sum) / float64(len(in)), Accepted
}
