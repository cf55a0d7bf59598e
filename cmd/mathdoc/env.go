package main

import (
	"io"
	"os"

	"github.com/alnah/go-mathdoc"
)

// LoaderFunc creates the engine loader used by the render command.
type LoaderFunc func(cfg mathdoc.EngineConfig, opts ...mathdoc.Option) *mathdoc.Loader

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	NewLoader LoaderFunc
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewLoader: mathdoc.NewEngineLoader,
	}
}
