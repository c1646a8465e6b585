package fibonacci

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultCacheCapacity is the number of slots of the process-wide cache used
// by GlobalFactory.
const DefaultCacheCapacity = 2000

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibtrio_cache_lookups_total",
			Help: "Lookups in the memoization table, by outcome (hit or miss)",
		},
		[]string{"cache", "result"},
	)
	cacheFilledSlots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fibtrio_cache_filled_slots",
			Help: "Number of known slots in the memoization table",
		},
		[]string{"cache"},
	)
)

// CacheStats is a point-in-time view of a Cache.
type CacheStats struct {
	// Hits counts lookups answered from an already known slot.
	Hits uint64 `json:"hits"`
	// Misses counts lookups that had to compute at least one slot.
	Misses uint64 `json:"misses"`
	// Fills counts slots computed since construction.
	Fills uint64 `json:"fills"`
	// Filled is the number of known slots, seeds included.
	Filled int `json:"filled"`
	// Capacity is the fixed number of slots.
	Capacity int `json:"capacity"`
}

// Cache is a fixed-capacity memoization table for the Fibonacci sequence.
//
// Slot i holds F(i) once known and NaN otherwise. Slots 0 and 1 are seeded at
// construction. Known slots are never invalidated and the capacity never
// changes. Because every fill walks upward from the lowest unknown slot, the
// known slots always form a prefix of the table.
//
// Cache is safe for concurrent use: lookups of known slots share a read lock
// and fills are serialized under the write lock.
type Cache struct {
	mu    sync.RWMutex
	table []float64
	// top is the highest known index; every slot <= top is known.
	top int

	hits   atomic.Uint64
	misses atomic.Uint64
	fills  atomic.Uint64

	name   string
	logger zerolog.Logger
}

// CacheOption configures a Cache at construction.
type CacheOption func(*Cache)

// WithCacheName sets the label under which the cache reports its metrics.
func WithCacheName(name string) CacheOption {
	return func(c *Cache) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCacheLogger sets the logger used to trace fills at debug level.
func WithCacheLogger(logger zerolog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache allocates a table of the given capacity with every slot unknown
// except the two seeds.
//
// Parameters:
//   - capacity: The number of slots; valid indices are 0..capacity-1.
//   - opts: Optional configuration.
//
// Returns:
//   - *Cache: The new cache.
//   - error: ErrInvalidCapacity if capacity < 2.
func NewCache(capacity int, opts ...CacheOption) (*Cache, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	c := &Cache{
		table:  make([]float64, capacity),
		top:    1,
		name:   "default",
		logger: zerolog.Nop(),
	}
	for i := range c.table {
		c.table[i] = math.NaN()
	}
	c.table[0] = 0
	c.table[1] = 1
	for _, opt := range opts {
		opt(c)
	}
	cacheFilledSlots.WithLabelValues(c.name).Set(2)
	return c, nil
}

// MustNewCache is like NewCache but panics on an invalid capacity. It is meant
// for package-level initialization with constant capacities.
func MustNewCache(capacity int, opts ...CacheOption) *Cache {
	c, err := NewCache(capacity, opts...)
	if err != nil {
		panic(fmt.Sprintf("fibonacci: %v", err))
	}
	return c
}

// Capacity returns the fixed number of slots.
func (c *Cache) Capacity() int {
	return len(c.table)
}

// Get returns F(x), computing and storing any missing slots up to x.
//
//   - x < 0 returns NaN and a nil error; the table is untouched.
//   - x >= Capacity() returns a *CapacityError; the table is untouched.
//   - x of 0 or 1 is returned directly.
func (c *Cache) Get(x int) (float64, error) {
	return c.get(x, nil)
}

func (c *Cache) get(x int, reporter ProgressReporter) (float64, error) {
	if x < 0 {
		return math.NaN(), nil
	}
	if x >= len(c.table) {
		return 0, &CapacityError{Index: x, Capacity: len(c.table)}
	}
	if x < 2 {
		return float64(x), nil
	}
	return c.lookup(x, reporter), nil
}

// lookup assumes 2 <= x < len(c.table).
func (c *Cache) lookup(x int, reporter ProgressReporter) float64 {
	c.mu.RLock()
	v := c.table[x]
	c.mu.RUnlock()
	if !math.IsNaN(v) {
		c.recordHit()
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have filled the slot while we waited.
	if v := c.table[x]; !math.IsNaN(v) {
		c.recordHit()
		return v
	}

	c.misses.Add(1)
	cacheLookupsTotal.WithLabelValues(c.name, "miss").Inc()

	from := c.top + 1
	total := float64(x - from + 1)
	for i := from; i <= x; i++ {
		c.table[i] = c.table[i-1] + c.table[i-2]
		if reporter != nil {
			reporter(float64(i-from+1) / total)
		}
	}
	filled := x - c.top
	c.top = x
	c.fills.Add(uint64(filled))
	cacheFilledSlots.WithLabelValues(c.name).Set(float64(c.top + 1))

	c.logger.Debug().
		Str("cache", c.name).
		Int("from", from).
		Int("to", x).
		Int("filled", filled).
		Msg("cache slots filled")

	return c.table[x]
}

func (c *Cache) recordHit() {
	c.hits.Add(1)
	cacheLookupsTotal.WithLabelValues(c.name, "hit").Inc()
}

// Known reports whether slot x currently holds a computed value.
func (c *Cache) Known(x int) bool {
	if x < 0 || x >= len(c.table) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !math.IsNaN(c.table[x])
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	top := c.top
	c.mu.RUnlock()
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fills:    c.fills.Load(),
		Filled:   top + 1,
		Capacity: len(c.table),
	}
}

// Snapshot returns a copy of the table. Unknown slots are NaN.
func (c *Cache) Snapshot() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]float64, len(c.table))
	copy(out, c.table)
	return out
}

// Name returns the metrics label of the cache.
func (c *Cache) Name() string {
	return c.name
}
