// Package orchestration runs one or several Fibonacci variants concurrently
// and checks that their results agree.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibtrio/internal/cli"
	"github.com/agbru/fibtrio/internal/config"
	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/fibonacci"
	"github.com/agbru/fibtrio/internal/ui"
)

// CalculationResult is the outcome of one variant.
type CalculationResult struct {
	// Name is the display name of the variant.
	Name string
	// Result is F(x), or NaN if Err is set.
	Result float64
	// Duration is the wall time of the call.
	Duration time.Duration
	// Err is the error returned by the calculator, if any.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per calculator so that
// a slow terminal rarely blocks a calculation.
const ProgressBufferMultiplier = 5

// ExecuteCalculations runs every calculator on F(x) in its own goroutine,
// rendering their combined progress to out, and returns the results in the
// order of calculators.
//
// A failing calculator does not cancel the others: its error is recorded in
// its result.
func ExecuteCalculations(ctx context.Context, calculators []fibonacci.Calculator, x int, out io.Writer) []CalculationResult {
	results := make([]CalculationResult, len(calculators))
	progressChan := make(chan fibonacci.ProgressUpdate, len(calculators)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(calculators), out)

	var g errgroup.Group
	for i, calc := range calculators {
		i, calc := i, calc
		g.Go(func() error {
			start := time.Now()
			res, err := calc.Calculate(ctx, progressChan, i, x)
			results[i] = CalculationResult{
				Name: calc.Name(), Result: res, Duration: time.Since(start), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeComparisonResults prints a summary table sorted by duration with
// failures last, then the agreed value. It returns the process exit code:
// ExitSuccess when every successful result agrees, ExitErrorMismatch when two
// of them differ, and the code of the first error when none succeeded.
func AnalyzeComparisonResults(results []CalculationResult, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var (
		firstValid   *CalculationResult
		firstError   error
		successCount int
	)

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sVariant%s\t%sDuration%s\t%sValue%s\t%sStatus%s\n",
		cli.ColorUnderline(), ui.ColorReset(), cli.ColorUnderline(), ui.ColorReset(),
		cli.ColorUnderline(), ui.ColorReset(), cli.ColorUnderline(), ui.ColorReset())

	for i := range results {
		res := &results[i]
		value := "-"
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			if firstError == nil {
				firstError = res.Err
			}
		} else {
			value = fibonacci.FormatValue(res.Result)
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			successCount++
			if firstValid == nil {
				firstValid = res
			}
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			value, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No variant could complete the calculation.\n")
		return apperrors.HandleCalculationError(firstError, 0, out, cli.CLIColorProvider{})
	}

	if err := CheckAgreement(cfg.N, results); err != nil {
		fmt.Fprintf(out, "\nGlobal Status: %sCRITICAL ERROR!%s An inconsistency was detected between the results of the variants.\n",
			ui.ColorRed(), ui.ColorReset())
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	cli.DisplayResult(firstValid.Result, cfg.N, firstValid.Duration, cfg.Details, out)
	return apperrors.ExitSuccess
}

// CheckAgreement returns an apperrors.MismatchError if two successful results
// differ according to fibonacci.SameValue. Failed results are ignored.
func CheckAgreement(n int, results []CalculationResult) error {
	var reference *CalculationResult
	mismatch := false
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			continue
		}
		if reference == nil {
			reference = res
			continue
		}
		if !fibonacci.SameValue(res.Result, reference.Result) {
			mismatch = true
		}
	}
	if !mismatch {
		return nil
	}
	values := make(map[string]float64, len(results))
	for _, res := range results {
		if res.Err == nil {
			values[res.Name] = res.Result
		}
	}
	return apperrors.MismatchError{Index: n, Results: values}
}

// BestResult returns the fastest successful result, or false if none
// succeeded.
func BestResult(results []CalculationResult) (CalculationResult, bool) {
	var best CalculationResult
	found := false
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if !found || res.Duration < best.Duration {
			best, found = res, true
		}
	}
	return best, found
}
