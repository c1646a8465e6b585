package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/fibtrio/internal/config"
	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/export"
	"github.com/agbru/fibtrio/internal/fibonacci"
	"github.com/agbru/fibtrio/internal/logging"
	"github.com/agbru/fibtrio/internal/orchestration"
	"github.com/agbru/fibtrio/internal/testutil"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		N:             10,
		Algo:          config.DefaultAlgo,
		Timeout:       time.Second,
		CacheCapacity: 64,
		NoColor:       true,
		LogLevel:      "error",
		Port:          config.DefaultPort,
	}
}

func newTestApp(cfg config.AppConfig, factory fibonacci.CalculatorFactory) (*Application, *bytes.Buffer) {
	var errBuf bytes.Buffer
	if factory == nil {
		factory = fibonacci.NewDefaultFactory(fibonacci.WithCache(fibonacci.MustNewCache(cfg.CacheCapacity)))
	}
	app := &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: &errBuf,
		logger:    logging.Setup(&errBuf, cfg.LogLevel, true),
	}
	return app, &errBuf
}

// disagreeingFactory holds one correct variant and one that always answers 1.
func disagreeingFactory() *fibonacci.TestFactory {
	return fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
		"good": &fibonacci.MockCalculator{Label: "Good", Fn: func(_ context.Context, x int) (float64, error) {
			return fibonacci.Iterative(x), nil
		}},
		"bad": &fibonacci.MockCalculator{Label: "Bad", Result: 1},
	})
}

func TestNew(t *testing.T) {
	t.Run("valid args", func(t *testing.T) {
		app, err := New([]string{"fibtrio", "-n", "50", "-algo", "ITERATIVE"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if app.Config.N != 50 || app.Config.Algo != fibonacci.AlgoIterative {
			t.Errorf("unexpected config %+v", app.Config)
		}
		if got := app.Factory.Cache().Capacity(); got != fibonacci.DefaultCacheCapacity {
			t.Errorf("capacity = %d, want %d", got, fibonacci.DefaultCacheCapacity)
		}
	})

	t.Run("custom capacity", func(t *testing.T) {
		app, err := New([]string{"fibtrio", "-cache-capacity", "64"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if got := app.Factory.Cache().Capacity(); got != 64 {
			t.Errorf("capacity = %d, want 64", got)
		}
	})

	t.Run("empty args", func(t *testing.T) {
		app, err := New(nil, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if app.Config.N != config.DefaultN {
			t.Errorf("N = %d, want %d", app.Config.N, config.DefaultN)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		if app, err := New([]string{"fibtrio", "-invalid-flag"}, &bytes.Buffer{}); err == nil || app != nil {
			t.Error("New() should fail on an unknown flag")
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := New([]string{"fibtrio", "-algo", "matrix"}, &bytes.Buffer{})
		if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
			t.Errorf("err = %v, want a config error", err)
		}
	})

	t.Run("help", func(t *testing.T) {
		_, err := New([]string{"fibtrio", "-h"}, &bytes.Buffer{})
		if !IsHelpError(err) {
			t.Errorf("err = %v, want flag.ErrHelp", err)
		}
	})
}

func TestRunCalculate(t *testing.T) {
	t.Run("all variants agree", func(t *testing.T) {
		app, _ := newTestApp(testConfig(), nil)
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d, want 0\n%s", code, out.String())
		}
		testutil.AssertContains(t, out.String(), "--- Execution Configuration ---", "Global Status: Success", "F(10) = 55")
	})

	t.Run("details show the cache", func(t *testing.T) {
		cfg := testConfig()
		cfg.Details = true
		app, _ := newTestApp(cfg, nil)
		var out bytes.Buffer
		app.Run(context.Background(), &out)
		if !strings.Contains(out.String(), "--- Memoization table ---") {
			t.Errorf("expected cache statistics, got:\n%s", out.String())
		}
	})

	t.Run("negative index", func(t *testing.T) {
		cfg := testConfig()
		cfg.N = -1
		app, _ := newTestApp(cfg, nil)
		if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorInvalidInput {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorInvalidInput)
		}
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		cfg := testConfig()
		cfg.N, cfg.Algo = 64, fibonacci.AlgoCached
		app, _ := newTestApp(cfg, nil)
		if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorInvalidInput {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorInvalidInput)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		cfg := testConfig()
		cfg.Timeout = 10 * time.Millisecond
		factory := fibonacci.NewTestFactory(map[string]fibonacci.Calculator{
			"slow": &fibonacci.MockCalculator{Fn: func(ctx context.Context, _ int) (float64, error) {
				<-ctx.Done()
				return math.NaN(), ctx.Err()
			}},
		})
		app, _ := newTestApp(cfg, factory)
		if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorTimeout {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorTimeout)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		app, _ := newTestApp(testConfig(), disagreeingFactory())
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorMismatch {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorMismatch)
		}
		if !strings.Contains(out.String(), "CRITICAL ERROR") {
			t.Errorf("mismatch should be reported, got:\n%s", out.String())
		}
	})
}

func TestRunQuiet(t *testing.T) {
	cfg := testConfig()
	cfg.Quiet = true

	app, _ := newTestApp(cfg, nil)
	var out bytes.Buffer
	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if out.String() != "55\n" {
		t.Errorf("quiet output = %q, want %q", out.String(), "55\n")
	}

	app, errBuf := newTestApp(cfg, disagreeingFactory())
	out.Reset()
	if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorMismatch {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorMismatch)
	}
	if out.Len() != 0 || !strings.Contains(errBuf.String(), "Variants disagree") {
		t.Errorf("mismatch belongs on the error writer: out %q, err %q", out.String(), errBuf.String())
	}
}

func TestRunJSON(t *testing.T) {
	decode := func(t *testing.T, cfg config.AppConfig) []jsonResult {
		t.Helper()
		app, _ := newTestApp(cfg, nil)
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d\n%s", code, out.String())
		}
		var results []jsonResult
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.String())
		}
		return results
	}

	t.Run("exact", func(t *testing.T) {
		cfg := testConfig()
		cfg.JSONOutput, cfg.N = true, 30
		results := decode(t, cfg)
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		for _, r := range results {
			if r.Error != "" || r.Result != "832040" || !r.Exact || r.N != 30 {
				t.Errorf("unexpected result %+v", r)
			}
		}
	})

	t.Run("approximate", func(t *testing.T) {
		cfg := testConfig()
		cfg.JSONOutput, cfg.N, cfg.Algo = true, 100, fibonacci.AlgoIterative
		results := decode(t, cfg)
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		if r := results[0]; r.Exact || r.Result != fibonacci.FormatValue(fibonacci.Iterative(100)) {
			t.Errorf("unexpected result %+v", r)
		}
	})
}

func TestPrintJSONResults(t *testing.T) {
	t.Parallel()

	t.Run("all failed", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		results := []orchestration.CalculationResult{
			{Name: "Broken", Result: math.NaN(), Err: &fibonacci.IndexError{Index: -2}},
		}
		if code := printJSONResults(-2, results, &out); code != apperrors.ExitErrorInvalidInput {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorInvalidInput)
		}
		if !strings.Contains(out.String(), `"error": "fibonacci: negative index -2"`) {
			t.Errorf("error should be encoded, got:\n%s", out.String())
		}
	})

	t.Run("overflow renders as +Inf", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		results := []orchestration.CalculationResult{{Name: "Iterative", Result: math.Inf(1)}}
		if code := printJSONResults(1477, results, &out); code != apperrors.ExitSuccess {
			t.Errorf("exit code = %d, want 0", code)
		}
		if !strings.Contains(out.String(), `"result": "+Inf"`) {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})
}

func TestRunExport(t *testing.T) {
	t.Run("writes the filled table", func(t *testing.T) {
		cfg := testConfig()
		cfg.N = 30
		cfg.ExportFile = filepath.Join(t.TempDir(), "cache.arrow")
		app, _ := newTestApp(cfg, nil)

		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if !strings.Contains(out.String(), "(64 slots, 31 filled)") {
			t.Errorf("unexpected summary %q", out.String())
		}

		f, err := os.Open(cfg.ExportFile)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		table, err := export.ReadCacheTable(f)
		if err != nil {
			t.Fatalf("ReadCacheTable: %v", err)
		}
		if len(table) != 64 || table[30] != 832040 || !math.IsNaN(table[31]) {
			t.Errorf("unexpected table: len %d, [30]=%v, [31]=%v", len(table), table[30], table[31])
		}
	})

	tests := []struct {
		name    string
		n       int
		file    string
		factory fibonacci.CalculatorFactory
		want    int
	}{
		{"negative index", -1, "cache.arrow", nil, apperrors.ExitErrorInvalidInput},
		{"beyond capacity", 64, "cache.arrow", nil, apperrors.ExitErrorInvalidInput},
		{"unwritable path", 5, filepath.Join("missing", "dir", "cache.arrow"), nil, apperrors.ExitErrorGeneric},
		{"no cached variant", 5, "cache.arrow", fibonacci.NewTestFactory(nil), apperrors.ExitErrorConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.N = tt.n
			cfg.ExportFile = filepath.Join(t.TempDir(), tt.file)
			app, _ := newTestApp(cfg, tt.factory)
			if code := app.Run(context.Background(), &bytes.Buffer{}); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunServer_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	cfg := testConfig()
	cfg.ServerMode = true
	cfg.Port = port
	app, errBuf := newTestApp(cfg, nil)
	if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorGeneric {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorGeneric)
	}
	if !strings.Contains(errBuf.String(), "Server error") {
		t.Errorf("unexpected error output %q", errBuf.String())
	}
}

func TestRunREPL(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = orig })
	_, _ = w.WriteString("exit\n")
	w.Close()

	cfg := testConfig()
	cfg.Interactive = true
	app, _ := newTestApp(cfg, nil)
	if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitSuccess {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if IsHelpError(errors.New("other")) || IsHelpError(nil) {
		t.Error("only flag.ErrHelp is a help error")
	}
}
