// SPDX-License-Identifier: MIT
package pitch

// Edge bands excluded by the filters. The moving average needs tapRadius
// samples on either side; the edge scan drops a few more at the tail where
// the hysteresis passes never reach.
const (
	tapRadius  = 3
	pairTrail  = tapRadius + 1
	edgeTrail  = 5
	windowTaps = 2*tapRadius + 1
)

// Span is a half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Interior returns the indices of an n-length window that have at least
// lead samples before them and trail samples after them (counting the index
// itself as part of the trail). An empty Span is returned when n is too short.
func Interior(n, lead, trail int) Span {
	hi := n - trail
	if hi < lead {
		return Span{Lo: lead, Hi: lead}
	}
	return Span{Lo: lead, Hi: hi}
}

// Len returns the number of indices in the span.
func (s Span) Len() int { return s.Hi - s.Lo }
