// Package config parses and validates the fibtrio command line. Values come
// from flags first, then FIBTRIO_* environment variables, then defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/fibonacci"
)

// EnvPrefix is the prefix of every environment variable read by fibtrio.
const EnvPrefix = "FIBTRIO_"

// Default configuration values.
const (
	DefaultN             = 30
	DefaultTimeout       = time.Minute
	DefaultPort          = "8080"
	DefaultAlgo          = "all"
	DefaultCacheCapacity = fibonacci.DefaultCacheCapacity
	DefaultLogLevel      = "warn"
)

// AppConfig holds every setting that controls one run of the application.
type AppConfig struct {
	// N is the Fibonacci index to compute. Negative values are passed through
	// so that the calculators report them as invalid input.
	N int
	// Algo is "all" or a registry key.
	Algo    string
	Timeout time.Duration
	// CacheCapacity is the number of slots of the memoization table.
	CacheCapacity int

	JSONOutput  bool
	Details     bool
	Quiet       bool
	NoColor     bool
	Interactive bool

	ServerMode bool
	Port       string

	// ExportFile, when set, receives the cache table as an Arrow IPC stream.
	ExportFile string

	LogLevel string
}

// Validate checks the configuration for consistency. availableAlgos lists
// the registry keys accepted by -algo besides "all".
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.CacheCapacity < 2 {
		return apperrors.NewConfigError("cache capacity must be at least 2: %d", c.CacheCapacity)
	}
	if c.Algo != DefaultAlgo && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: 'all' or [%s]", c.Algo, strings.Join(availableAlgos, ", "))
	}
	if c.ServerMode && c.Interactive {
		return apperrors.NewConfigError("-server and -interactive are mutually exclusive")
	}
	return nil
}

// ParseConfig parses args (typically os.Args[1:]) into an AppConfig.
// Parse errors and usage are written to errorWriter. A validation failure is
// reported there too and returned as a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	algoHelp := fmt.Sprintf("Variant to run: 'all' (default) or one of [%s].", strings.Join(availableAlgos, ", "))

	config := AppConfig{}
	fs.IntVar(&config.N, "n", DefaultN, "Index n of the Fibonacci number to calculate.")
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the calculation.")
	fs.IntVar(&config.CacheCapacity, "cache-capacity", DefaultCacheCapacity, "Number of slots of the memoization table.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Details, "d", false, "Display cache statistics and timing details.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - print only the result.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start in interactive REPL mode.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.StringVar(&config.ExportFile, "export", "", "Write the cache table filled up to n as an Arrow IPC file.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(fs)

	config.Algo = strings.ToLower(config.Algo)
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		var cfgErr apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			return AppConfig{}, cfgErr
		}
		return AppConfig{}, err
	}
	return config, nil
}
