package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fibtrio/internal/config"
	"github.com/agbru/fibtrio/internal/fibonacci"
)

// GetCalculatorsToRun returns the calculators selected by cfg.Algo, in the
// factory's sorted order for "all". An unknown name yields nil.
func GetCalculatorsToRun(cfg config.AppConfig, factory fibonacci.CalculatorFactory) []fibonacci.Calculator {
	if cfg.Algo == config.DefaultAlgo {
		keys := factory.List()
		calculators := make([]fibonacci.Calculator, 0, len(keys))
		for _, k := range keys {
			if calc, err := factory.Get(k); err == nil {
				calculators = append(calculators, calc)
			}
		}
		return calculators
	}
	if calc, err := factory.Get(cfg.Algo); err == nil {
		return []fibonacci.Calculator{calc}
	}
	return nil
}

// PrintExecutionConfig describes the run about to start.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Calculating %sF(%d)%s with a timeout of %s%s%s.\n",
		ColorMagenta(), cfg.N, ColorReset(), ColorYellow(), cfg.Timeout, ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
	fmt.Fprintf(out, "Memoization table: %s%d%s slots.\n", ColorCyan(), cfg.CacheCapacity, ColorReset())
	if cfg.N > fibonacci.MaxExactIndex {
		fmt.Fprintf(out, "%sNote:%s F(%d) is above F(%d); float64 results are approximate.\n",
			ColorYellow(), ColorReset(), cfg.N, fibonacci.MaxExactIndex)
	}
}

// PrintExecutionMode states whether one variant runs or all are compared.
func PrintExecutionMode(calculators []fibonacci.Calculator, out io.Writer) {
	var modeDesc string
	switch len(calculators) {
	case 0:
		modeDesc = "No variant selected"
	case 1:
		modeDesc = fmt.Sprintf("Single calculation with the %s%s%s variant",
			ColorGreen(), calculators[0].Name(), ColorReset())
	default:
		modeDesc = "Parallel comparison of all variants"
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
