package service

//go:generate mockgen -source=calculator_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/fibonacci"
)

// MaxRecursiveN is the largest index the exponential recursive variant is
// allowed to compute through the service.
const MaxRecursiveN = 40

var (
	// ErrMaxValueExceeded is returned when x exceeds the configured limit.
	ErrMaxValueExceeded = errors.New("maximum n value exceeded")
	// ErrNoCache is returned by the cache accessors when no memoization table
	// is attached.
	ErrNoCache = errors.New("no memoization table attached")
)

// Service is the calculation API shared by the HTTP server and the CLI.
type Service interface {
	// Calculate computes F(x) with the named variant.
	Calculate(ctx context.Context, algoName string, x int) (float64, error)
	// Algorithms returns the sorted variant names.
	Algorithms() []string
	// CacheStats returns the counters of the memoization table.
	CacheStats() (fibonacci.CacheStats, error)
	// CacheSnapshot returns a copy of the memoization table.
	CacheSnapshot() ([]float64, error)
}

// CalculatorService implements Service on top of a CalculatorFactory.
type CalculatorService struct {
	factory fibonacci.CalculatorFactory
	cache   *fibonacci.Cache
	maxN    int

	observers []fibonacci.ProgressObserver
}

var _ Service = (*CalculatorService)(nil)

// NewCalculatorService returns a service drawing calculators from factory.
// CacheStats and CacheSnapshot report factory.Cache(), the table the cached
// variant fills. maxN <= 0 disables the global limit.
func NewCalculatorService(factory fibonacci.CalculatorFactory, maxN int) *CalculatorService {
	return &CalculatorService{
		factory: factory,
		cache:   factory.Cache(),
		maxN:    maxN,
	}
}

// WithObservers attaches progress observers to every calculation run by a
// fibonacci.FibCalculator. Other calculators run without progress.
func (s *CalculatorService) WithObservers(observers ...fibonacci.ProgressObserver) *CalculatorService {
	s.observers = append(s.observers, observers...)
	return s
}

// Calculate validates the limits and runs the variant without progress
// reporting. Negative x is left to the calculator, which rejects it with
// fibonacci.ErrNegativeIndex. Calculator failures other than cancellation
// come back as apperrors.CalculationError.
func (s *CalculatorService) Calculate(ctx context.Context, algoName string, x int) (float64, error) {
	if s.maxN > 0 && x > s.maxN {
		return 0, fmt.Errorf("%w: %d > %d", ErrMaxValueExceeded, x, s.maxN)
	}
	if algoName == fibonacci.AlgoRecursive && x > MaxRecursiveN {
		return 0, fmt.Errorf("%w: the recursive variant accepts n <= %d", ErrMaxValueExceeded, MaxRecursiveN)
	}

	calc, err := s.factory.Get(algoName)
	if err != nil {
		return 0, apperrors.WrapError(err, "algorithm lookup")
	}
	result, err := s.run(ctx, calc, x)
	if err != nil && !apperrors.IsContextError(err) {
		return result, apperrors.CalculationError{Algorithm: algoName, Cause: err}
	}
	return result, err
}

func (s *CalculatorService) run(ctx context.Context, calc fibonacci.Calculator, x int) (float64, error) {
	fc, ok := calc.(*fibonacci.FibCalculator)
	if !ok || len(s.observers) == 0 {
		return calc.Calculate(ctx, nil, 0, x)
	}
	subject := fibonacci.NewProgressSubject()
	for _, o := range s.observers {
		subject.Register(o)
	}
	return fc.CalculateWithObservers(ctx, subject, 0, x)
}

// Algorithms returns the registered variant names.
func (s *CalculatorService) Algorithms() []string {
	return s.factory.List()
}

func (s *CalculatorService) CacheStats() (fibonacci.CacheStats, error) {
	if s.cache == nil {
		return fibonacci.CacheStats{}, ErrNoCache
	}
	return s.cache.Stats(), nil
}

func (s *CalculatorService) CacheSnapshot() ([]float64, error) {
	if s.cache == nil {
		return nil, ErrNoCache
	}
	return s.cache.Snapshot(), nil
}
