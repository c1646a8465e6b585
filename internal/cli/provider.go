package cli

import apperrors "github.com/agbru/fibtrio/internal/errors"

var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider feeds the active theme to apperrors.HandleCalculationError.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ColorYellow() }
func (CLIColorProvider) Red() string    { return ColorRed() }
func (CLIColorProvider) Reset() string  { return ColorReset() }
