// Package fibonacci provides three ways of computing the n-th Fibonacci number:
// the textbook recursion, an iterative accumulation, and a recursion backed by
// a fixed-capacity memoization table. The raw kernels in this file are pure;
// the Calculator layer wraps them with cancellation, progress reporting,
// metrics and a single result-or-error contract.
package fibonacci

import "math"

// Recursive returns F(x) using the direct definition F(0)=0, F(1)=1,
// F(x)=F(x-1)+F(x-2). It runs in Θ(φ^x) time and does not check for
// integer overflow.
//
// Negative input returns 0 rather than recursing without end.
func Recursive(x int) int {
	if x <= 0 {
		return 0
	}
	if x == 1 {
		return 1
	}
	return Recursive(x-1) + Recursive(x-2)
}

// Iterative returns F(x) as a float64 in O(x) time and O(1) space.
// A negative x yields NaN; it is not treated as an error.
func Iterative(x int) float64 {
	if x < 0 {
		return math.NaN()
	}
	if x < 2 {
		return float64(x)
	}
	first, second, third := 0.0, 1.0, 0.0
	// After k rotations first holds F(k).
	for i := 0; i < x; i++ {
		third = first + second
		first = second
		second = third
	}
	return first
}
