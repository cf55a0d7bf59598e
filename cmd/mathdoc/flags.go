package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid arguments or flags.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds flags for the render command.
type renderFlags struct {
	common   commonFlags
	output   string
	workers  int
	timeout  string
	css      string
	wait     bool
	degraded bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// newFlagSet creates a FlagSet that returns errors instead of printing
// them. runMain reports the error and prints help.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseCommonFlags parses flags for commands that take only common flags.
func parseCommonFlags(name string, args []string) (*commonFlags, []string, error) {
	fs := newFlagSet(name)
	f := &commonFlags{}
	addCommonFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	fs := newFlagSet("render")
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: next to each input)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-formula timeout (e.g., 10s, 1m)")
	fs.StringVar(&f.css, "css", "", "extra CSS file appended to each page")
	fs.BoolVar(&f.wait, "wait", false, "fail if the engine cannot start instead of degrading")
	fs.BoolVar(&f.degraded, "degraded", false, "skip the engine and render formulas as text")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	if f.wait && f.degraded {
		return nil, nil, fmt.Errorf("%w: --wait and --degraded are mutually exclusive", ErrUsage)
	}
	return f, fs.Args(), nil
}

// usageError wraps a flag parse error with ErrUsage. Help requests pass
// through unchanged.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
