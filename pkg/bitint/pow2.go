// SPDX-License-Identifier: MIT
//
// Package bitint holds the power-of-two helpers used for FFT sizing.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Sizes of zero or
// less return 1.
//
// size-1 keeps exact powers of 2 unchanged:
//
//	8 -> Len(7) = 3 -> 1<<3 = 8
//	9 -> Len(8) = 4 -> 1<<4 = 16
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of 2 has
// one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
