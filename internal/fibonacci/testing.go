package fibonacci

import (
	"context"
	"sort"
)

// MockCalculator is a Calculator with canned behaviour, exported so that
// tests in other packages can use it.
type MockCalculator struct {
	Result float64
	Err    error
	Fn     func(ctx context.Context, x int) (float64, error)
	// Label overrides the name; defaults to "mock".
	Label string
}

// Name returns Label or "mock".
func (m *MockCalculator) Name() string {
	if m.Label != "" {
		return m.Label
	}
	return "mock"
}

// Calculate calls Fn if set, otherwise returns Result and Err.
func (m *MockCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, x int) (float64, error) {
	if m.Fn != nil {
		return m.Fn(ctx, x)
	}
	if progressChan != nil {
		select {
		case progressChan <- ProgressUpdate{CalculatorIndex: calcIndex, Value: 1.0}:
		default:
		}
	}
	return m.Result, m.Err
}

// TestFactory is a fixed CalculatorFactory for tests.
type TestFactory struct {
	calculators map[string]Calculator
	cache       *Cache
}

// NewTestFactory returns a factory serving exactly the given calculators.
func NewTestFactory(calculators map[string]Calculator) *TestFactory {
	if calculators == nil {
		calculators = make(map[string]Calculator)
	}
	return &TestFactory{calculators: calculators}
}

// WithTestCache attaches a cache returned by Cache.
func (f *TestFactory) WithTestCache(c *Cache) *TestFactory {
	f.cache = c
	return f
}

// Create returns the calculator by name.
func (f *TestFactory) Create(name string) (Calculator, error) {
	return f.Get(name)
}

// Get returns the calculator by name.
func (f *TestFactory) Get(name string) (Calculator, error) {
	calc, ok := f.calculators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return calc, nil
}

// List returns the sorted calculator names.
func (f *TestFactory) List() []string {
	names := make([]string, 0, len(f.calculators))
	for name := range f.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register is a no-op; calculators are fixed at construction.
func (f *TestFactory) Register(string, func() coreCalculator) error {
	return nil
}

// GetAll returns a copy of the calculators.
func (f *TestFactory) GetAll() map[string]Calculator {
	result := make(map[string]Calculator, len(f.calculators))
	for k, v := range f.calculators {
		result[k] = v
	}
	return result
}

// Cache returns the attached cache, possibly nil.
func (f *TestFactory) Cache() *Cache {
	return f.cache
}
