// Command generate-golden writes the exact Fibonacci numbers used as the
// reference of the float64 variants.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData is one entry of the golden file.
type GoldenData struct {
	N      int    `json:"n"`
	Result string `json:"result"`
}

// targets covers the seeds, the last exactly representable index (78), the
// overflow boundary (1476/1477) and the last slot of the default cache.
var targets = []int{
	0, 1, 2, 3, 4, 5, 10, 20, 30, 40, 50, 64, 78, 79, 92, 93, 94, 100,
	128, 256, 512, 1000, 1024, 1476, 1477, 1999,
}

func main() {
	outputDir := flag.String("out", "internal/fibonacci/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := run(*outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outputDir string) (err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	filename := filepath.Join(outputDir, "fibonacci_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data := make([]GoldenData, 0, len(targets))
	for _, n := range targets {
		data = append(data, GoldenData{N: n, Result: fibBig(n).String()})
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	fmt.Printf("Wrote %d cases to %s\n", len(data), filename)
	return nil
}

// fibBig is the exact oracle: iterative addition on math/big.
func fibBig(n int) *big.Int {
	a, b := big.NewInt(0), big.NewInt(1)
	for i := 0; i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return a
}
