package cli

import (
	"fmt"
	"io"

	"github.com/agbru/fibtrio/internal/fibonacci"
)

// DisplayQuietResult prints the bare value on one line, for scripts.
func DisplayQuietResult(out io.Writer, result float64) {
	fmt.Fprintln(out, fibonacci.FormatValue(result))
}

// DisplayCacheStats prints the counters of a memoization table.
func DisplayCacheStats(out io.Writer, stats fibonacci.CacheStats) {
	ratio := 0.0
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		ratio = float64(stats.Hits) / float64(lookups) * 100
	}
	fmt.Fprintf(out, "\n%s--- Memoization table ---%s\n", ColorBold(), ColorReset())
	fmt.Fprintf(out, "Filled slots : %s%d%s / %d\n", ColorCyan(), stats.Filled, ColorReset(), stats.Capacity)
	fmt.Fprintf(out, "Lookups      : %s%d%s hits, %s%d%s misses (%.1f%% hits)\n",
		ColorGreen(), stats.Hits, ColorReset(), ColorYellow(), stats.Misses, ColorReset(), ratio)
	fmt.Fprintf(out, "Slots filled : %s%d%s\n", ColorCyan(), stats.Fills, ColorReset())
}
