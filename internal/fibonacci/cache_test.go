package fibonacci

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNewCacheSeeds(t *testing.T) {
	t.Parallel()
	c, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	table := c.Snapshot()
	if len(table) != 8 {
		t.Fatalf("len(Snapshot()) = %d, want 8", len(table))
	}
	if table[0] != 0 || table[1] != 1 {
		t.Errorf("seeds = %v, %v; want 0, 1", table[0], table[1])
	}
	for i := 2; i < len(table); i++ {
		if !math.IsNaN(table[i]) {
			t.Errorf("slot %d = %v, want NaN", i, table[i])
		}
	}
	if c.Capacity() != 8 {
		t.Errorf("Capacity() = %d, want 8", c.Capacity())
	}
}

func TestNewCacheRejectsSmallCapacity(t *testing.T) {
	t.Parallel()
	for _, capacity := range []int{-1, 0, 1} {
		if _, err := NewCache(capacity); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewCache(%d) error = %v, want ErrInvalidCapacity", capacity, err)
		}
	}
	if _, err := NewCache(2); err != nil {
		t.Errorf("NewCache(2) error = %v, want nil", err)
	}
}

func TestMustNewCachePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("MustNewCache(0) should panic")
		}
	}()
	MustNewCache(0)
}

func TestCacheIdempotentWithoutRecompute(t *testing.T) {
	t.Parallel()
	c := MustNewCache(DefaultCacheCapacity)

	first, err := c.Get(100)
	if err != nil {
		t.Fatal(err)
	}
	afterFirst := c.Stats()
	if afterFirst.Misses != 1 || afterFirst.Fills != 99 {
		t.Fatalf("after first Get(100): %+v, want 1 miss and 99 fills", afterFirst)
	}

	second, err := c.Get(100)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("Get(100) not idempotent: %v then %v", first, second)
	}
	afterSecond := c.Stats()
	if afterSecond.Fills != afterFirst.Fills {
		t.Errorf("second Get(100) recomputed: fills %d -> %d", afterFirst.Fills, afterSecond.Fills)
	}
	if afterSecond.Hits != afterFirst.Hits+1 {
		t.Errorf("second Get(100) was not a hit: hits %d -> %d", afterFirst.Hits, afterSecond.Hits)
	}
}

func TestCacheCapacityBoundary(t *testing.T) {
	t.Parallel()
	const capacity = 50
	c := MustNewCache(capacity)

	if _, err := c.Get(capacity - 1); err != nil {
		t.Fatalf("Get(capacity-1) error = %v", err)
	}

	before := c.Snapshot()
	_, err := c.Get(capacity)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Get(capacity) error = %v, want ErrCapacityExceeded", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("capacity error should also match ErrInvalidInput")
	}
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("error %T is not *CapacityError", err)
	}
	if capErr.Index != capacity || capErr.Capacity != capacity {
		t.Errorf("CapacityError = %+v", capErr)
	}

	// Retrying fails the same way.
	if _, err := c.Get(capacity); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("retry error = %v, want ErrCapacityExceeded", err)
	}
	after := c.Snapshot()
	for i := range before {
		if before[i] != after[i] && !(math.IsNaN(before[i]) && math.IsNaN(after[i])) {
			t.Fatalf("slot %d changed on a failed Get", i)
		}
	}
}

func TestCacheMonotonicFill(t *testing.T) {
	t.Parallel()
	c := MustNewCache(DefaultCacheCapacity)
	if _, err := c.Get(50); err != nil {
		t.Fatal(err)
	}
	if !c.Known(30) {
		t.Fatal("slot 30 should be known after Get(50)")
	}

	hits := c.Stats().Hits
	got, err := c.Get(30)
	if err != nil {
		t.Fatalf("Get(30) error = %v", err)
	}
	if got != 832040 {
		t.Errorf("Get(30) = %v, want 832040", got)
	}
	if c.Stats().Hits != hits+1 {
		t.Error("Get(30) after Get(50) should be a hit")
	}
}

// TestCacheFillOrderCapacityFive covers the capacity-5 scenario: index 4
// needs every slot 0..4 and index 5 is out of range.
func TestCacheFillOrderCapacityFive(t *testing.T) {
	t.Parallel()
	c := MustNewCache(5)

	var progress []float64
	got, err := c.get(4, func(p float64) { progress = append(progress, p) })
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("Get(4) = %v, want 3", got)
	}
	want := []float64{0, 1, 1, 2, 3}
	table := c.Snapshot()
	for i, v := range want {
		if table[i] != v {
			t.Errorf("slot %d = %v, want %v", i, table[i], v)
		}
	}
	// Slots 2, 3 and 4 are filled in that order.
	if len(progress) != 3 || progress[len(progress)-1] != 1.0 {
		t.Errorf("progress = %v, want three steps ending at 1.0", progress)
	}
	if s := c.Stats(); s.Fills != 3 || s.Filled != 5 {
		t.Errorf("stats = %+v, want 3 fills and 5 filled", s)
	}

	if _, err := c.Get(5); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Get(5) error = %v, want ErrCapacityExceeded", err)
	}
}

func TestCacheSeedsBypassLookup(t *testing.T) {
	t.Parallel()
	c := MustNewCache(4)
	for x := 0; x < 2; x++ {
		got, err := c.Get(x)
		if err != nil || got != float64(x) {
			t.Errorf("Get(%d) = %v, %v", x, got, err)
		}
	}
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("seed lookups counted: %+v", s)
	}
}

func TestCacheConcurrentFill(t *testing.T) {
	t.Parallel()
	c := MustNewCache(DefaultCacheCapacity)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			x := 60 + w%10
			got, err := c.Get(x)
			if err != nil {
				errs <- err
				return
			}
			if got != Iterative(x) {
				errs <- errors.New("concurrent Get returned a wrong value")
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	// Every slot up to 69 is filled exactly once.
	if s := c.Stats(); s.Fills != 68 {
		t.Errorf("Fills = %d, want 68", s.Fills)
	}
}

func TestCacheOverflowToInf(t *testing.T) {
	t.Parallel()
	c := MustNewCache(DefaultCacheCapacity)
	got, err := c.Get(DefaultCacheCapacity - 1)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("Get(%d) = %v, want +Inf", DefaultCacheCapacity-1, got)
	}
	if !c.Known(DefaultCacheCapacity - 1) {
		t.Error("an Inf slot must count as known")
	}
}

func TestCacheOptions(t *testing.T) {
	t.Parallel()
	c := MustNewCache(3, WithCacheName("unit"), WithCacheName(""))
	if c.Name() != "unit" {
		t.Errorf("Name() = %q, want %q", c.Name(), "unit")
	}
	if c.Known(-1) || c.Known(3) {
		t.Error("out of range slots must not be known")
	}
}
