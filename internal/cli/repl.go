package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/fibtrio/internal/fibonacci"
)

// REPLConfig holds the settings of an interactive session.
type REPLConfig struct {
	// DefaultAlgo is the variant used by calc; "all" or "" picks the first
	// registered one.
	DefaultAlgo string
	// Timeout bounds each calculation.
	Timeout time.Duration
}

// REPL is an interactive Fibonacci session.
type REPL struct {
	config      REPLConfig
	factory     fibonacci.CalculatorFactory
	currentAlgo string
	in          io.Reader
	out         io.Writer
}

// NewREPL returns a session reading stdin and writing stdout.
func NewREPL(factory fibonacci.CalculatorFactory, config REPLConfig) *REPL {
	currentAlgo := config.DefaultAlgo
	if currentAlgo == "" || currentAlgo == "all" {
		if names := factory.List(); len(names) > 0 {
			currentAlgo = names[0]
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &REPL{
		config:      config,
		factory:     factory,
		currentAlgo: currentAlgo,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

// SetInput replaces the input reader.
func (r *REPL) SetInput(in io.Reader) { r.in = in }

// SetOutput replaces the output writer.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Start runs the read-eval-print loop until exit or EOF.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ColorGreen()+"fib> "+ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ColorRed(), err, ColorReset())
			continue
		}
		if line := strings.TrimSpace(input); line != "" {
			if !r.processCommand(line) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════╗%s\n", ColorCyan(), ColorReset())
	fmt.Fprintf(r.out, "%s║%s   %sfibtrio - Interactive Mode%s                 %s║%s\n",
		ColorCyan(), ColorReset(), ColorBold(), ColorReset(), ColorCyan(), ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════╝%s\n\n", ColorCyan(), ColorReset())
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ColorBold(), ColorReset())
	for _, line := range [][2]string{
		{"calc <n>", "Calculate F(n) with the current variant (or just type <n>)"},
		{"algo <name>", "Change variant (" + strings.Join(r.factory.List(), ", ") + ")"},
		{"compare <n>", "Run every variant on F(n) and check agreement"},
		{"cache", "Show memoization table statistics"},
		{"list", "List available variants"},
		{"status", "Display current configuration"},
		{"help", "Display this help"},
		{"exit", "Exit interactive mode"},
	} {
		fmt.Fprintf(r.out, "  %s%-12s%s - %s\n", ColorYellow(), line[0], ColorReset(), line[1])
	}
}

// processCommand executes one command line and returns false on exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "calc", "c":
		if n, ok := r.parseIndex("calc", args); ok {
			r.calculate(n)
		}
	case "algo", "a":
		r.cmdAlgo(args)
	case "compare", "cmp":
		if n, ok := r.parseIndex("compare", args); ok {
			r.compare(n)
		}
	case "cache":
		r.cmdCache()
	case "list", "ls":
		r.cmdList()
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ColorGreen(), ColorReset())
		return false
	default:
		if n, err := strconv.Atoi(cmd); err == nil {
			r.calculate(n)
		} else {
			fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ColorRed(), cmd, ColorReset())
			fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ColorYellow(), ColorReset())
		}
	}
	return true
}

func (r *REPL) parseIndex(cmd string, args []string) (int, bool) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: %s <n>%s\n", ColorRed(), cmd, ColorReset())
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ColorRed(), args[0], ColorReset())
		return 0, false
	}
	return n, true
}

// calculate runs the current variant with a progress display.
func (r *REPL) calculate(n int) {
	calc, err := r.factory.Get(r.currentAlgo)
	if err != nil {
		fmt.Fprintf(r.out, "%s%v%s\n", ColorRed(), err, ColorReset())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Calculating F(%s%d%s) with %s%s%s...\n",
		ColorMagenta(), n, ColorReset(), ColorCyan(), calc.Name(), ColorReset())

	progressChan := make(chan fibonacci.ProgressUpdate, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progressChan, 1, r.out)

	start := time.Now()
	result, err := calc.Calculate(ctx, progressChan, 0, n)
	duration := time.Since(start)
	close(progressChan)
	wg.Wait()

	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ColorRed(), err, ColorReset())
		return
	}
	DisplayResult(result, n, duration, true, r.out)
	fmt.Fprintln(r.out)
}

// compare runs every variant sequentially and flags disagreements.
func (r *REPL) compare(n int) {
	fmt.Fprintf(r.out, "\n%sComparison for F(%d):%s\n", ColorBold(), n, ColorReset())
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n", ColorCyan(), ColorReset())

	var reference float64
	haveReference := false
	for _, name := range r.factory.List() {
		calc, err := r.factory.Get(name)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
		start := time.Now()
		result, err := calc.Calculate(ctx, nil, 0, n)
		duration := time.Since(start)
		cancel()

		if err != nil {
			fmt.Fprintf(r.out, "  %s%-10s%s: %sError - %v%s\n",
				ColorYellow(), name, ColorReset(), ColorRed(), err, ColorReset())
			continue
		}
		if !haveReference {
			reference, haveReference = result, true
		}
		status := ColorGreen() + "✓" + ColorReset()
		if !fibonacci.SameValue(result, reference) {
			status = ColorRed() + "✗ INCONSISTENT" + ColorReset()
		}
		fmt.Fprintf(r.out, "  %s%-10s%s: %s%12s%s  %s  %s\n",
			ColorYellow(), name, ColorReset(),
			ColorCyan(), FormatExecutionDuration(duration), ColorReset(),
			fibonacci.FormatValue(result), status)
	}
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n\n", ColorCyan(), ColorReset())
}

func (r *REPL) cmdAlgo(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: algo <name>%s\n", ColorRed(), ColorReset())
		fmt.Fprintf(r.out, "Available variants: %s\n", strings.Join(r.factory.List(), ", "))
		return
	}
	name := strings.ToLower(args[0])
	calc, err := r.factory.Get(name)
	if err != nil {
		fmt.Fprintf(r.out, "%sUnknown variant: %s%s\n", ColorRed(), name, ColorReset())
		fmt.Fprintf(r.out, "Available variants: %s\n", strings.Join(r.factory.List(), ", "))
		return
	}
	r.currentAlgo = name
	fmt.Fprintf(r.out, "Variant changed to: %s%s%s\n", ColorGreen(), calc.Name(), ColorReset())
}

func (r *REPL) cmdCache() {
	cache := r.factory.Cache()
	if cache == nil {
		fmt.Fprintf(r.out, "%sNo memoization table attached.%s\n", ColorYellow(), ColorReset())
		return
	}
	DisplayCacheStats(r.out, cache.Stats())
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%sAvailable variants:%s\n", ColorBold(), ColorReset())
	for _, name := range r.factory.List() {
		calc, err := r.factory.Get(name)
		if err != nil {
			continue
		}
		marker := "  "
		if name == r.currentAlgo {
			marker = ColorGreen() + "► " + ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%-10s%s - %s\n", marker, ColorYellow(), name, ColorReset(), calc.Name())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ColorBold(), ColorReset())
	fmt.Fprintf(r.out, "  Variant:  %s%s%s\n", ColorCyan(), r.currentAlgo, ColorReset())
	fmt.Fprintf(r.out, "  Timeout:  %s%s%s\n", ColorCyan(), r.config.Timeout, ColorReset())
	if cache := r.factory.Cache(); cache != nil {
		fmt.Fprintf(r.out, "  Capacity: %s%d%s slots\n", ColorCyan(), cache.Capacity(), ColorReset())
	}
	fmt.Fprintln(r.out)
}
