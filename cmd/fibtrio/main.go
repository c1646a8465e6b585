// Command fibtrio computes Fibonacci numbers with three float64 variants
// (naive recursion, iteration, memoization table), compares them, and serves
// them over HTTP or an interactive prompt.
package main

import (
	"context"
	"io"
	"os"

	"github.com/agbru/fibtrio/internal/app"
	apperrors "github.com/agbru/fibtrio/internal/errors"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 && app.HasVersionFlag(args[1:]) {
		if app.WantsJSON(args[1:]) {
			if err := app.PrintVersionJSON(stdout); err != nil {
				return apperrors.ExitErrorGeneric
			}
			return apperrors.ExitSuccess
		}
		app.PrintVersion(stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(ctx, stdout)
}
