package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/agbru/fibtrio/internal/cli"
	"github.com/agbru/fibtrio/internal/config"
	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/export"
	"github.com/agbru/fibtrio/internal/fibonacci"
	"github.com/agbru/fibtrio/internal/logging"
	"github.com/agbru/fibtrio/internal/orchestration"
	"github.com/agbru/fibtrio/internal/server"
	"github.com/agbru/fibtrio/internal/ui"
)

// Application is one configured run of fibtrio.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides the variants. Its cache is the memoization table
	// shared by the cached variant, the server and the export.
	Factory fibonacci.CalculatorFactory
	// ErrWriter receives diagnostics and logs (typically os.Stderr).
	ErrWriter io.Writer

	logger zerolog.Logger
}

// New parses args (os.Args, program name first), sets up logging and builds
// a factory over a dedicated table of the configured capacity.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "fibtrio"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, fibonacci.Names())
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(errWriter, cfg.LogLevel, !cfg.JSONOutput)
	factory, err := newFactory(cfg.CacheCapacity, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		logger:    logger,
	}, nil
}

// newFactory builds a factory whose variants share one memoization table of
// the given capacity.
func newFactory(capacity int, logger zerolog.Logger) (fibonacci.CalculatorFactory, error) {
	cache, err := fibonacci.NewCache(capacity,
		fibonacci.WithCacheName("cli"),
		fibonacci.WithCacheLogger(logger.With().Str("component", "cache").Logger()),
	)
	if err != nil {
		return nil, err
	}
	return fibonacci.NewDefaultFactory(fibonacci.WithCache(cache)), nil
}

// Run dispatches to the configured mode and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Interactive:
		return a.runREPL()
	case a.Config.ExportFile != "":
		return a.runExport(ctx, out)
	default:
		return a.runCalculate(ctx, out)
	}
}

func (a *Application) runServer() int {
	srv := server.NewServer(a.Factory, a.Config,
		server.WithLogger(logging.NewZerologAdapter(a.logger.With().Str("component", "server").Logger())),
	)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runREPL() int {
	repl := cli.NewREPL(a.Factory, cli.REPLConfig{
		DefaultAlgo: a.Config.Algo,
		Timeout:     a.Config.Timeout,
	})
	repl.Start()
	return apperrors.ExitSuccess
}

// runExport fills the memoization table up to N through the cached variant,
// then writes the table to the export file.
func (a *Application) runExport(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	cache := a.Factory.Cache()
	calc, err := a.Factory.Get(fibonacci.AlgoCached)
	if err != nil || cache == nil {
		fmt.Fprintf(a.ErrWriter, "Export error: no memoization table available\n")
		return apperrors.ExitErrorConfig
	}

	if _, err := calc.Calculate(ctx, nil, 0, a.Config.N); err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	snapshot := cache.Snapshot()
	if err := export.WriteCacheFile(a.Config.ExportFile, snapshot); err != nil {
		a.logger.Error().Err(err).Str("file", a.Config.ExportFile).Msg("export failed")
		fmt.Fprintf(a.ErrWriter, "Export error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	stats := cache.Stats()
	if !a.Config.Quiet {
		fmt.Fprintf(out, "%s✓ Cache table written to %s%s%s (%d slots, %d filled)\n",
			ui.ColorGreen(), ui.ColorCyan(), a.Config.ExportFile, ui.ColorReset(), len(snapshot), stats.Filled)
	}
	if a.Config.Details {
		cli.DisplayCacheStats(out, stats)
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	calculators := cli.GetCalculatorsToRun(a.Config, a.Factory)
	if len(calculators) == 0 {
		fmt.Fprintf(a.ErrWriter, "No variant matches %q\n", a.Config.Algo)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(calculators, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteCalculations(ctx, calculators, a.Config.N, progressOut)
	a.logResults(results)

	switch {
	case a.Config.JSONOutput:
		return printJSONResults(a.Config.N, results, out)
	case a.Config.Quiet:
		return a.printQuietResult(results, out)
	}

	code := orchestration.AnalyzeComparisonResults(results, a.Config, out)
	if code == apperrors.ExitSuccess && a.Config.Details {
		if cache := a.Factory.Cache(); cache != nil {
			cli.DisplayCacheStats(out, cache.Stats())
		}
	}
	return code
}

func (a *Application) logResults(results []orchestration.CalculationResult) {
	for _, res := range results {
		level := zerolog.DebugLevel
		if res.Err != nil {
			level = zerolog.WarnLevel
		}
		a.logger.WithLevel(level).Err(res.Err).Str("variant", res.Name).Int("n", a.Config.N).Dur("duration", res.Duration).Msg("calculation finished")
	}
}

// printQuietResult prints only the fastest value. Errors and disagreements
// still set the exit code and are reported on ErrWriter.
func (a *Application) printQuietResult(results []orchestration.CalculationResult, out io.Writer) int {
	best, ok := orchestration.BestResult(results)
	if !ok {
		return apperrors.HandleCalculationError(firstError(results), 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	if err := orchestration.CheckAgreement(a.Config.N, results); err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	cli.DisplayQuietResult(out, best.Result)
	return apperrors.ExitSuccess
}

// IsHelpError reports whether err comes from -h or -help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func firstError(results []orchestration.CalculationResult) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// jsonResult is one variant outcome in -json output. The value is a string
// because JSON has no encoding for +Inf.
type jsonResult struct {
	Algorithm string `json:"algorithm"`
	N         int    `json:"n"`
	Duration  string `json:"duration"`
	Result    string `json:"result,omitempty"`
	Exact     bool   `json:"exact,omitempty"`
	Error     string `json:"error,omitempty"`
}

// printJSONResults writes one object per variant. The exit code follows the
// same rules as the table output.
func printJSONResults(n int, results []orchestration.CalculationResult, out io.Writer) int {
	output := make([]jsonResult, len(results))
	for i, res := range results {
		jr := jsonResult{
			Algorithm: res.Name,
			N:         n,
			Duration:  res.Duration.String(),
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		} else {
			jr.Result = fibonacci.FormatValue(res.Result)
			jr.Exact = fibonacci.IsExact(n)
		}
		output[i] = jr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return apperrors.ExitErrorGeneric
	}

	if _, ok := orchestration.BestResult(results); !ok {
		return apperrors.ExitCode(firstError(results))
	}
	return apperrors.ExitCode(orchestration.CheckAgreement(n, results))
}
