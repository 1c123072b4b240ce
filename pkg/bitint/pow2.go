// SPDX-License-Identifier: MIT
//
// Package bitint holds the power-of-2 helpers used when sizing FFT
// windows and capture buffers. Everything here is allocation-free and
// constant time.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Exact powers
// of 2 map to themselves; zero and negatives map to 1. The size-1
// before bits.Len keeps exact powers from doubling.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of
// 2 has a single set bit, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
