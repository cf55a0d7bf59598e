package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-mathdoc"
	"github.com/alnah/go-mathdoc/internal/config"
	"github.com/alnah/go-mathdoc/internal/hints"
	"github.com/alnah/go-mathdoc/internal/yamlutil"
)

// Sentinel errors for CLI operations.
var (
	ErrReadInput     = errors.New("failed to read input")
	ErrNotEquivalent = errors.New("documents are not equivalent")
)

// runRepair writes the extraction payload with its escapes repaired.
func runRepair(args []string, env *Environment) error {
	_, files, err := parseCommonFlags("repair", args)
	if err != nil {
		return err
	}
	raw, err := readInput(files, env.Stdin)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(mathdoc.RepairJSON(raw))
	return err
}

// runDecode extracts the configured document field from a payload and
// prepares it for storage.
func runDecode(args []string, env *Environment) error {
	f, files, err := parseCommonFlags("decode", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	raw, err := readInput(files, env.Stdin)
	if err != nil {
		return err
	}

	rec, err := mathdoc.DecodeRecord(raw, cfg.Input.Field, cfg.Input.ImageField)
	if err != nil {
		if errors.Is(err, mathdoc.ErrInvalidJSON) {
			return fmt.Errorf("%w%s", err, hints.ForInvalidJSON())
		}
		return err
	}

	_, err = io.WriteString(env.Stdout, rec.Prepared())
	return err
}

// runNormalize repairs control characters and normalizes symbols.
func runNormalize(args []string, env *Environment) error {
	_, files, err := parseCommonFlags("normalize", args)
	if err != nil {
		return err
	}
	raw, err := readInput(files, env.Stdin)
	if err != nil {
		return err
	}
	_, err = io.WriteString(env.Stdout, mathdoc.Prepare(string(raw)))
	return err
}

// runScan prints one segment per line: kind, quoted content, and the image
// source when there is one.
func runScan(args []string, env *Environment) error {
	_, files, err := parseCommonFlags("scan", args)
	if err != nil {
		return err
	}
	raw, err := readInput(files, env.Stdin)
	if err != nil {
		return err
	}

	for _, seg := range mathdoc.Scan(string(raw)) {
		line := seg.Kind.String() + "\t" + strconv.Quote(seg.Text)
		if seg.Kind == mathdoc.KindImage {
			line += "\t" + seg.Src
		}
		if _, err := fmt.Fprintln(env.Stdout, line); err != nil {
			return err
		}
	}
	return nil
}

// runTree prints the compiled document as YAML.
func runTree(args []string, env *Environment) error {
	_, files, err := parseCommonFlags("tree", args)
	if err != nil {
		return err
	}
	raw, err := readInput(files, env.Stdin)
	if err != nil {
		return err
	}
	return yamlutil.Encode(env.Stdout, mathdoc.Compile(string(raw)).Outline())
}

// runCheck compares two documents up to canonical equivalence.
func runCheck(args []string, env *Environment) error {
	f, files, err := parseCommonFlags("check", args)
	if err != nil {
		return err
	}
	if len(files) != 2 {
		return fmt.Errorf("%w: check needs exactly two files, got %d", ErrUsage, len(files))
	}

	a, err := readFile(files[0])
	if err != nil {
		return err
	}
	b, err := readFile(files[1])
	if err != nil {
		return err
	}

	if !mathdoc.Equivalent(string(a), string(b)) {
		return fmt.Errorf("%w: %s and %s", ErrNotEquivalent, files[0], files[1])
	}
	if !f.quiet {
		fmt.Fprintln(env.Stdout, "equivalent")
	}
	return nil
}

// readInput reads the single file argument, or stdin when there is none.
func readInput(files []string, stdin io.Reader) ([]byte, error) {
	switch len(files) {
	case 0:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return data, nil
	case 1:
		return readFile(files[0])
	default:
		return nil, fmt.Errorf("%w: expected at most one file, got %d", ErrUsage, len(files))
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return data, nil
}

// loadConfig returns the named config, or the defaults when name is empty.
func loadConfig(name string) (*config.Config, error) {
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(userConfigCandidates(name)))
		}
		return nil, err
	}
	return cfg, nil
}

// userConfigCandidates returns where a config name would be looked up in
// the user config directory.
func userConfigCandidates(name string) []string {
	if strings.ContainsAny(name, "/\\") {
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-mathdoc", name+".yaml")}
}
