package fibonacci

import (
	"context"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibtrio_calculations_total",
			Help: "The total number of Fibonacci calculations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibtrio_calculation_duration_seconds",
			Help:    "The duration of Fibonacci calculations in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"algorithm"},
	)
)

// Calculator is the interface the orchestration, service and CLI layers use
// to run one Fibonacci variant.
//
// Every implementation follows the same contract: a valid index yields the
// value and a nil error; an invalid one yields NaN and an error matching
// ErrInvalidInput (ErrNegativeIndex or ErrCapacityExceeded). Cancellation of
// ctx yields the context error.
type Calculator interface {
	// Calculate computes F(x). Progress is sent to progressChan, which may be
	// nil, tagged with calcIndex.
	Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, x int) (float64, error)

	// Name returns the display name of the variant.
	Name() string
}

// coreCalculator is a bare algorithm. It may assume x >= 0.
type coreCalculator interface {
	CalculateCore(ctx context.Context, reporter ProgressReporter, x int) (float64, error)
	Name() string
}

// FibCalculator decorates a coreCalculator with input validation, progress
// plumbing, tracing, metrics and logging.
type FibCalculator struct {
	core coreCalculator
}

// NewCalculator wraps core. It panics if core is nil.
func NewCalculator(core coreCalculator) Calculator {
	if core == nil {
		panic("fibonacci: the `coreCalculator` implementation cannot be nil")
	}
	return &FibCalculator{core: core}
}

// Name delegates to the wrapped core.
func (c *FibCalculator) Name() string {
	return c.core.Name()
}

// Calculate adapts progressChan to a ProgressSubject and delegates to
// CalculateWithObservers.
func (c *FibCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, x int) (float64, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return c.CalculateWithObservers(ctx, subject, calcIndex, x)
}

// CalculateWithObservers computes F(x) and notifies every observer of
// subject. A nil subject disables progress reporting.
func (c *FibCalculator) CalculateWithObservers(ctx context.Context, subject *ProgressSubject, calcIndex int, x int) (result float64, err error) {
	ctx, span := otel.Tracer("fibonacci").Start(ctx, "Calculate")
	span.SetAttributes(
		attribute.String("algorithm", c.core.Name()),
		attribute.Int("x", x),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		algo := c.core.Name()
		calculationsTotal.WithLabelValues(algo, status).Inc()
		calculationDuration.WithLabelValues(algo).Observe(duration)

		log.Debug().
			Str("algo", algo).
			Int("x", x).
			Float64("duration", duration).
			Str("status", status).
			Msg("calculation completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(calcIndex)
	}

	if x < 0 {
		return math.NaN(), &IndexError{Index: x}
	}
	if err := ctx.Err(); err != nil {
		return math.NaN(), err
	}

	result, err = c.core.CalculateCore(ctx, reporter, x)
	if err != nil {
		return math.NaN(), err
	}
	reporter(1.0)
	return result, nil
}
