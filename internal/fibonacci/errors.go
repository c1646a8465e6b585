package fibonacci

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the root of every input-related failure. Both a
	// negative index and an index beyond the cache capacity match it.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNegativeIndex is returned by the calculator layer for x < 0.
	ErrNegativeIndex = fmt.Errorf("%w: negative index", ErrInvalidInput)
	// ErrCapacityExceeded is returned when x is at or beyond the capacity of
	// the memoization table.
	ErrCapacityExceeded = fmt.Errorf("%w: x too large for implementation", ErrInvalidInput)
	// ErrInvalidCapacity is returned by NewCache when the requested capacity
	// cannot hold the two seed values.
	ErrInvalidCapacity = errors.New("cache capacity must be at least 2")
)

// IndexError reports a negative Fibonacci index.
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("fibonacci: negative index %d", e.Index)
}

// Unwrap allows errors.Is(err, ErrNegativeIndex) and errors.Is(err, ErrInvalidInput).
func (e *IndexError) Unwrap() error { return ErrNegativeIndex }

// CapacityError reports an index the cache cannot store. Retrying with the
// same cache always fails; a larger cache has to be constructed instead.
type CapacityError struct {
	Index    int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("fibonacci: index %d exceeds cache capacity %d (x too large for implementation)", e.Index, e.Capacity)
}

// Unwrap allows errors.Is(err, ErrCapacityExceeded) and errors.Is(err, ErrInvalidInput).
func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }
