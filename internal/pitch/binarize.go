// SPDX-License-Identifier: MIT
package pitch

// Binarize collapses the normalized window to a square wave. Each interior
// sample becomes 1 when its 7-tap centered moving average is at or above the
// window mean, 0 otherwise. The first and last three positions are set to 0
// and never read by later stages.
func Binarize(norm []float64, mean float64, out []uint8) {
	n := len(norm)
	span := Interior(n, tapRadius, tapRadius)

	for i := 0; i < span.Lo && i < n; i++ {
		out[i] = 0
	}
	for i := span.Hi; i < n; i++ {
		out[i] = 0
	}

	for i := span.Lo; i < span.Hi; i++ {
		var sum float64
		for k := i - tapRadius; k <= i+tapRadius; k++ {
			sum += norm[k]
		}
		if sum/windowTaps-mean >= 0 {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
}
