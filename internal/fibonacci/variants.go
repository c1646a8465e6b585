package fibonacci

import (
	"context"
	"fmt"
	"math"
)

// Registry keys of the three variants.
const (
	AlgoRecursive = "recursive"
	AlgoIterative = "iterative"
	AlgoCached    = "cached"
)

// Names returns the registry keys of NewDefaultFactory in List order,
// without building a factory.
func Names() []string {
	return []string{AlgoCached, AlgoIterative, AlgoRecursive}
}

// MaxExactIndex is the largest index whose Fibonacci number is exactly
// representable as a float64 (F(78) < 2^53 < F(79)).
const MaxExactIndex = 78

// RecursiveCalculator is the textbook exponential recursion.
type RecursiveCalculator struct{}

// Name returns the display name.
func (c *RecursiveCalculator) Name() string { return "Naive Recursive (O(φⁿ))" }

// CalculateCore recurses like Recursive and checks ctx every progressStride
// calls, so a large x can be cut short by a timeout.
func (c *RecursiveCalculator) CalculateCore(ctx context.Context, _ ProgressReporter, x int) (float64, error) {
	var calls uint64
	v, err := recurse(ctx, x, &calls)
	if err != nil {
		return math.NaN(), err
	}
	return float64(v), nil
}

func recurse(ctx context.Context, x int, calls *uint64) (int, error) {
	*calls++
	if *calls%progressStride == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	if x < 2 {
		return x, nil
	}
	a, err := recurse(ctx, x-1, calls)
	if err != nil {
		return 0, err
	}
	b, err := recurse(ctx, x-2, calls)
	if err != nil {
		return 0, err
	}
	return a + b, nil
}

// IterativeCalculator runs the three-variable rotation of Iterative.
type IterativeCalculator struct{}

// Name returns the display name.
func (c *IterativeCalculator) Name() string { return "Iterative (O(n))" }

// CalculateCore returns the same value as Iterative(x), reporting progress and
// checking ctx every progressStride iterations.
func (c *IterativeCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, x int) (float64, error) {
	if x < 2 {
		return float64(x), nil
	}
	first, second, third := 0.0, 1.0, 0.0
	for i := 0; i < x; i++ {
		if i%progressStride == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return math.NaN(), err
			}
			if reporter != nil {
				reporter(float64(i) / float64(x))
			}
		}
		third = first + second
		first = second
		second = third
	}
	return first, nil
}

// CachedCalculator reads and fills a shared memoization table.
type CachedCalculator struct {
	cache *Cache
}

// NewCachedCalculator returns a calculator backed by cache. It panics if
// cache is nil.
func NewCachedCalculator(cache *Cache) *CachedCalculator {
	if cache == nil {
		panic("fibonacci: CachedCalculator requires a non-nil cache")
	}
	return &CachedCalculator{cache: cache}
}

// Name returns the display name.
func (c *CachedCalculator) Name() string {
	return fmt.Sprintf("Memoized Cache (capacity %d)", c.cache.Capacity())
}

// Cache returns the table the calculator reads from.
func (c *CachedCalculator) Cache() *Cache {
	return c.cache
}

// CalculateCore delegates to the cache. Progress is reported while slots are
// being filled.
func (c *CachedCalculator) CalculateCore(_ context.Context, reporter ProgressReporter, x int) (float64, error) {
	v, err := c.cache.get(x, reporter)
	if err != nil {
		return math.NaN(), err
	}
	return v, nil
}
