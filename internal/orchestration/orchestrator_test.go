package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agbru/fibtrio/internal/config"
	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/fibonacci"
	"github.com/agbru/fibtrio/internal/testutil"
)

// SpyCalculator records the arguments it was called with.
type SpyCalculator struct {
	mu        sync.Mutex
	calcIndex int
	x         int
	result    float64
}

func (s *SpyCalculator) Calculate(_ context.Context, progressChan chan<- fibonacci.ProgressUpdate, calcIndex int, x int) (float64, error) {
	s.mu.Lock()
	s.calcIndex, s.x = calcIndex, x
	s.mu.Unlock()
	progressChan <- fibonacci.ProgressUpdate{CalculatorIndex: calcIndex, Value: 1}
	return s.result, nil
}

func (s *SpyCalculator) Name() string { return "Spy" }

func TestExecuteCalculations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		calculators []fibonacci.Calculator
		expectError []bool
	}{
		{
			name:        "single success",
			calculators: []fibonacci.Calculator{&fibonacci.MockCalculator{Result: 55}},
			expectError: []bool{false},
		},
		{
			name:        "single failure",
			calculators: []fibonacci.Calculator{&fibonacci.MockCalculator{Err: errors.New("mock error")}},
			expectError: []bool{true},
		},
		{
			name: "failure does not cancel others",
			calculators: []fibonacci.Calculator{
				&fibonacci.MockCalculator{Err: errors.New("mock error")},
				&fibonacci.MockCalculator{Fn: func(ctx context.Context, _ int) (float64, error) {
					time.Sleep(5 * time.Millisecond)
					return 55, ctx.Err()
				}},
			},
			expectError: []bool{true, false},
		},
		{
			name:        "no calculators",
			expectError: []bool{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results := ExecuteCalculations(context.Background(), tt.calculators, 10, io.Discard)
			if len(results) != len(tt.expectError) {
				t.Fatalf("expected %d results, got %d", len(tt.expectError), len(results))
			}
			for i, wantErr := range tt.expectError {
				if (results[i].Err != nil) != wantErr {
					t.Errorf("results[%d].Err = %v, wantErr %v", i, results[i].Err, wantErr)
				}
			}
		})
	}
}

func TestExecuteCalculationsPassesIndexes(t *testing.T) {
	t.Parallel()
	spies := []*SpyCalculator{{result: 1}, {result: 2}, {result: 3}}
	calculators := []fibonacci.Calculator{spies[0], spies[1], spies[2]}

	results := ExecuteCalculations(context.Background(), calculators, 42, io.Discard)

	for i, spy := range spies {
		if spy.x != 42 {
			t.Errorf("spy %d got x = %d, want 42", i, spy.x)
		}
		if spy.calcIndex != i {
			t.Errorf("spy %d got calcIndex = %d", i, spy.calcIndex)
		}
		if results[i].Result != spy.result || results[i].Name != "Spy" {
			t.Errorf("results[%d] = %+v", i, results[i])
		}
	}
}

func TestExecuteCalculationsRealVariants(t *testing.T) {
	t.Parallel()
	factory := fibonacci.NewDefaultFactory()
	calculators := make([]fibonacci.Calculator, 0, 3)
	for _, name := range factory.List() {
		calculators = append(calculators, factory.MustGet(name))
	}

	results := ExecuteCalculations(context.Background(), calculators, 30, io.Discard)
	for _, res := range results {
		if res.Err != nil || res.Result != 832040 {
			t.Errorf("%s: got %v, %v", res.Name, res.Result, res.Err)
		}
	}
	if err := CheckAgreement(30, results); err != nil {
		t.Errorf("variants should agree: %v", err)
	}
}

func TestExecuteCalculationsNegativeIndex(t *testing.T) {
	t.Parallel()
	factory := fibonacci.NewDefaultFactory()
	results := ExecuteCalculations(context.Background(), []fibonacci.Calculator{
		factory.MustGet(fibonacci.AlgoIterative), factory.MustGet(fibonacci.AlgoCached),
	}, -1, io.Discard)
	for _, res := range results {
		if !errors.Is(res.Err, fibonacci.ErrNegativeIndex) {
			t.Errorf("%s: expected ErrNegativeIndex, got %v", res.Name, res.Err)
		}
	}
}

func TestAnalyzeComparisonResults(t *testing.T) {
	t.Parallel()
	fail := errors.New("fail")
	tests := []struct {
		name           string
		results        []CalculationResult
		expectedStatus int
	}{
		{
			name: "all success",
			results: []CalculationResult{
				{Name: "A", Result: 5, Duration: time.Millisecond},
				{Name: "B", Result: 5, Duration: time.Millisecond},
			},
			expectedStatus: apperrors.ExitSuccess,
		},
		{
			name: "mismatch",
			results: []CalculationResult{
				{Name: "A", Result: 5, Duration: time.Millisecond},
				{Name: "B", Result: 6, Duration: time.Millisecond},
			},
			expectedStatus: apperrors.ExitErrorMismatch,
		},
		{
			name: "all failure",
			results: []CalculationResult{
				{Name: "A", Result: math.NaN(), Err: fail},
				{Name: "B", Result: math.NaN(), Err: fail},
			},
			expectedStatus: apperrors.ExitErrorGeneric,
		},
		{
			name: "all invalid input",
			results: []CalculationResult{
				{Name: "A", Result: math.NaN(), Err: &fibonacci.IndexError{Index: -1}},
			},
			expectedStatus: apperrors.ExitErrorInvalidInput,
		},
		{
			name: "all timed out",
			results: []CalculationResult{
				{Name: "A", Result: math.NaN(), Err: context.DeadlineExceeded},
			},
			expectedStatus: apperrors.ExitErrorTimeout,
		},
		{
			name: "mixed success and failure",
			results: []CalculationResult{
				{Name: "A", Result: 5, Duration: time.Millisecond},
				{Name: "B", Result: math.NaN(), Err: fail},
			},
			expectedStatus: apperrors.ExitSuccess,
		},
		{
			name: "overflow agrees",
			results: []CalculationResult{
				{Name: "A", Result: math.Inf(1)},
				{Name: "B", Result: math.Inf(1)},
			},
			expectedStatus: apperrors.ExitSuccess,
		},
		{
			name: "rounding noise agrees",
			results: []CalculationResult{
				{Name: "A", Result: 1e20},
				{Name: "B", Result: 1e20 * (1 + 1e-15)},
			},
			expectedStatus: apperrors.ExitSuccess,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status := AnalyzeComparisonResults(tt.results, config.AppConfig{N: 10}, io.Discard)
			if status != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, status)
			}
		})
	}
}

func TestAnalyzeComparisonResultsOutput(t *testing.T) {
	t.Parallel()
	results := []CalculationResult{
		{Name: "Slow", Result: 55, Duration: 2 * time.Millisecond},
		{Name: "Broken", Result: math.NaN(), Err: errors.New("boom")},
		{Name: "Fast", Result: 55, Duration: time.Millisecond},
	}
	var buf bytes.Buffer
	AnalyzeComparisonResults(results, config.AppConfig{N: 10}, &buf)
	output := testutil.StripAnsiCodes(buf.String())

	fast, slow, broken := strings.Index(output, "Fast"), strings.Index(output, "Slow"), strings.Index(output, "Broken")
	if !(fast < slow && slow < broken) {
		t.Errorf("rows should be sorted by duration with failures last:\n%s", output)
	}
	for _, want := range []string{"Failure (boom)", "Global Status: Success", "F(10) = 55"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q:\n%s", want, output)
		}
	}
}

func TestCheckAgreement(t *testing.T) {
	t.Parallel()
	err := CheckAgreement(7, []CalculationResult{
		{Name: "A", Result: 13},
		{Name: "B", Result: 14},
		{Name: "C", Err: errors.New("ignored")},
	})
	var mismatch apperrors.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected MismatchError, got %v", err)
	}
	if mismatch.Index != 7 || len(mismatch.Results) != 2 {
		t.Errorf("unexpected mismatch %+v", mismatch)
	}
	if apperrors.ExitCode(err) != apperrors.ExitErrorMismatch {
		t.Error("mismatch should map to ExitErrorMismatch")
	}
}

func TestBestResult(t *testing.T) {
	t.Parallel()
	if _, ok := BestResult(nil); ok {
		t.Error("no result expected for an empty slice")
	}
	best, ok := BestResult([]CalculationResult{
		{Name: "A", Duration: 3 * time.Millisecond},
		{Name: "B", Duration: time.Millisecond, Err: errors.New("x")},
		{Name: "C", Duration: 2 * time.Millisecond},
	})
	if !ok || best.Name != "C" {
		t.Errorf("BestResult = %+v, %v; want C", best, ok)
	}
}
