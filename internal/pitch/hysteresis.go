// SPDX-License-Identifier: MIT
package pitch

// Pass is one step of a hysteresis policy: Count inflation passes toward
// Target.
type Pass struct {
	Target uint8
	Count  int
}

// Policy is an ordered list of inflation steps.
type Policy []Pass

// DefaultPolicy grows 1-runs twice, 0-runs four times, then 1-runs twice.
// Short 0-dips are suppressed harder than short 1-spikes.
func DefaultPolicy() Policy {
	return Policy{
		{Target: 1, Count: 2},
		{Target: 0, Count: 4},
		{Target: 1, Count: 2},
	}
}

// Passes returns the total number of inflate passes in the policy.
func (p Policy) Passes() int {
	total := 0
	for _, step := range p {
		total += step.Count
	}
	return total
}

// Apply runs every pass of the policy over binary in order. scratch must be
// at least as long as binary and is clobbered.
func (p Policy) Apply(binary, scratch []uint8) {
	for _, step := range p {
		for range step.Count {
			Inflate(binary, scratch, step.Target)
		}
	}
}

// Inflate grows every run of target by one sample at each boundary. The
// boundary test reads a snapshot taken into scratch, so a pass moves each
// edge by exactly one position regardless of scan order.
func Inflate(binary, scratch []uint8, target uint8) {
	span := Interior(len(binary), tapRadius, pairTrail)
	if span.Len() <= 0 {
		return
	}
	copy(scratch[span.Lo:span.Hi+1], binary[span.Lo:span.Hi+1])

	for i := span.Lo; i < span.Hi; i++ {
		a, b := scratch[i], scratch[i+1]
		switch {
		case a == target && b != target:
			binary[i+1] = target
		case a != target && b == target:
			binary[i] = target
		}
	}
}
