package main

import (
	"errors"
	"os"

	"github.com/alnah/go-mathdoc"
	"github.com/alnah/go-mathdoc/internal/config"
	"github.com/alnah/go-mathdoc/internal/typeset"
)

// Exit codes for mathdoc CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful command
	ExitGeneral = 1 // General error, or documents not equivalent
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Browser or KaTeX errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4)
	if errors.Is(err, mathdoc.ErrEngineLoad) ||
		errors.Is(err, typeset.ErrBrowserConnect) ||
		errors.Is(err, typeset.ErrPageCreate) ||
		errors.Is(err, typeset.ErrKaTeXLoad) ||
		errors.Is(err, typeset.ErrEngineClosed) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mathdoc.ErrInvalidJSON) ||
		errors.Is(err, mathdoc.ErrMissingField) {
		return ExitUsage
	}

	return ExitGeneral
}
