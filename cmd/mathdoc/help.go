package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc <command> [flags] [files]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands read stdin when no file is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  repair     Repair LaTeX escapes in an extraction JSON payload")
	fmt.Fprintln(w, "  decode     Decode an extraction payload into a stored document")
	fmt.Fprintln(w, "  normalize  Repair control characters and normalize symbols")
	fmt.Fprintln(w, "  scan       Print the segments of a document")
	fmt.Fprintln(w, "  tree       Print the document tree as YAML")
	fmt.Fprintln(w, "  check      Compare two documents up to formatting")
	fmt.Fprintln(w, "  render     Render documents to HTML pages")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mathdoc help <command>' for details on a specific command.")
}

// printCommonFlags prints the flags every command accepts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

func printRepairUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc repair [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Double the backslash of LaTeX commands that a JSON decoder would")
	fmt.Fprintln(w, "read as escapes (\\frac, \\theta, \\neq, ...) and print the payload.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printDecodeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc decode [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Repair and decode an extraction payload, merge the legacy image")
	fmt.Fprintln(w, "field, and print the prepared document. Field names come from")
	fmt.Fprintln(w, "input.field and input.imageField in the config.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printNormalizeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc normalize [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Repair control characters left by JSON decoding, normalize line")
	fmt.Fprintln(w, "endings, and rewrite Unicode math symbols as LaTeX.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printScanUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc scan [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print one segment per line: kind, quoted content, image source.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printTreeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc tree [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the document tree as YAML.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printCheckUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc check [flags] <a> <b>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit 0 if both documents are equivalent up to formatting, 1 otherwise.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathdoc render [flags] [files]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render documents to standalone HTML pages typeset with KaTeX.")
	fmt.Fprintln(w, "Each page is written next to its input unless --output is set.")
	fmt.Fprintln(w, "With no file, stdin is rendered to stdout.")
	fmt.Fprintln(w, "Input is repaired and normalized like 'mathdoc normalize' first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto, max 8)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-formula timeout (e.g., 10s, 1m)")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file")
	fmt.Fprintln(w, "      --wait                Fail if the engine cannot start")
	fmt.Fprintln(w, "      --degraded            Skip the engine, render formulas as text")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

var commandUsage = map[string]func(io.Writer){
	"repair":    printRepairUsage,
	"decode":    printDecodeUsage,
	"normalize": printNormalizeUsage,
	"scan":      printScanUsage,
	"tree":      printTreeUsage,
	"check":     printCheckUsage,
	"render":    printRenderUsage,
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mathdoc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mathdoc help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		usage, ok := commandUsage[args[0]]
		if !ok {
			fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
			printUsage(env.Stderr)
			return ExitUsage
		}
		usage(env.Stdout)
	}
	return ExitSuccess
}
