package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "--verbose") || slices.Contains(os.Args, "-v") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	var err error

	switch cmd {
	case "repair":
		err = runRepair(rest, env)
	case "decode":
		err = runDecode(rest, env)
	case "normalize":
		err = runNormalize(rest, env)
	case "scan":
		err = runScan(rest, env)
	case "tree":
		err = runTree(rest, env)
	case "check":
		err = runCheck(rest, env)
	case "render":
		err = runRender(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mathdoc %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return runHelp([]string{cmd}, env)
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "mathdoc %s: %v\n", cmd, err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintf(env.Stderr, "Run 'mathdoc help %s' for usage.\n", cmd)
		}
	}
	return exitCodeFor(err)
}
