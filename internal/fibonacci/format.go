package fibonacci

import (
	"math"
	"strconv"
)

// FormatValue renders a result as a decimal string. Non-finite values are
// rendered as "NaN", "+Inf" and "-Inf", which JSON numbers cannot carry.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsExact reports whether F(x) is exactly representable as a float64.
func IsExact(x int) bool {
	return x >= 0 && x <= MaxExactIndex
}

// SameValue reports whether two results agree. NaN matches NaN, infinities
// match by sign and finite values match within a relative tolerance of
// 1e-12, which absorbs the rounding difference between integer and float
// accumulation.
func SameValue(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}
