package fibonacci

// Note: CalculatorFactory is not mockable with mockgen because Register()
// uses the unexported coreCalculator type. Use TestFactory instead.

import (
	"fmt"
	"sort"
	"sync"
)

// CalculatorFactory creates and caches Calculator instances by name.
type CalculatorFactory interface {
	// Create returns a fresh Calculator for name.
	Create(name string) (Calculator, error)

	// Get returns the shared Calculator for name, creating it on first use.
	Get(name string) (Calculator, error)

	// List returns the registered names, sorted.
	List() []string

	// Register adds or replaces a calculator type.
	Register(name string, creator func() coreCalculator) error

	// GetAll returns every registered calculator, keyed by name.
	GetAll() map[string]Calculator

	// Cache returns the memoization table owned by the factory, or nil.
	Cache() *Cache
}

// DefaultFactory is the thread-safe CalculatorFactory used by the
// application. It owns the memoization table handed to the cached variant,
// so every "cached" calculator it produces shares one table.
type DefaultFactory struct {
	mu          sync.RWMutex
	creators    map[string]func() coreCalculator
	calculators map[string]Calculator
	cache       *Cache
}

// FactoryOption configures a DefaultFactory.
type FactoryOption func(*DefaultFactory)

// WithCache makes the factory use cache for the cached variant instead of a
// fresh DefaultCacheCapacity table.
func WithCache(cache *Cache) FactoryOption {
	return func(f *DefaultFactory) {
		if cache != nil {
			f.cache = cache
		}
	}
}

// NewDefaultFactory returns a factory with the three variants registered:
//   - "recursive": RecursiveCalculator
//   - "iterative": IterativeCalculator
//   - "cached": CachedCalculator over the factory's cache
func NewDefaultFactory(opts ...FactoryOption) *DefaultFactory {
	f := &DefaultFactory{
		creators:    make(map[string]func() coreCalculator),
		calculators: make(map[string]Calculator),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = MustNewCache(DefaultCacheCapacity)
	}

	_ = f.Register(AlgoRecursive, func() coreCalculator { return &RecursiveCalculator{} })
	_ = f.Register(AlgoIterative, func() coreCalculator { return &IterativeCalculator{} })
	_ = f.Register(AlgoCached, func() coreCalculator { return NewCachedCalculator(f.cache) })

	return f
}

// Register adds a calculator type, replacing any previous one of the same
// name. The creator is called lazily.
func (f *DefaultFactory) Register(name string, creator func() coreCalculator) error {
	if creator == nil {
		return fmt.Errorf("nil creator for calculator: %s", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	delete(f.calculators, name)
	return nil
}

// Create returns a new Calculator without caching it.
func (f *DefaultFactory) Create(name string) (Calculator, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return NewCalculator(creator()), nil
}

// Get returns the cached Calculator for name, creating it on first use.
func (f *DefaultFactory) Get(name string) (Calculator, error) {
	f.mu.RLock()
	if calc, ok := f.calculators[name]; ok {
		f.mu.RUnlock()
		return calc, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if calc, ok := f.calculators[name]; ok {
		return calc, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	calc := NewCalculator(creator())
	f.calculators[name] = calc
	return calc, nil
}

// List returns the registered names in alphabetical order.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll initializes every registered calculator and returns a copy of the
// name to calculator map.
func (f *DefaultFactory) GetAll() map[string]Calculator {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, creator := range f.creators {
		if _, ok := f.calculators[name]; !ok {
			f.calculators[name] = NewCalculator(creator())
		}
	}
	result := make(map[string]Calculator, len(f.calculators))
	for name, calc := range f.calculators {
		result[name] = calc
	}
	return result
}

// Cache returns the memoization table shared by the cached variant.
func (f *DefaultFactory) Cache() *Cache {
	return f.cache
}

// MustGet is like Get but panics if name is not registered.
func (f *DefaultFactory) MustGet(name string) Calculator {
	calc, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("fibonacci: required calculator not found: %s", name))
	}
	return calc
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

// UnknownCalculatorError is returned when a calculator name is not registered.
type UnknownCalculatorError struct {
	Name string
}

func (e *UnknownCalculatorError) Error() string {
	return "unknown calculator: " + e.Name
}

var (
	globalFactory     *DefaultFactory
	globalFactoryOnce sync.Once
)

// GlobalFactory returns the process-wide factory. Its cache has
// DefaultCacheCapacity slots and lives until the process exits.
func GlobalFactory() *DefaultFactory {
	globalFactoryOnce.Do(func() {
		globalFactory = NewDefaultFactory()
	})
	return globalFactory
}
