package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alnah/go-mathdoc"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake engine and environment
// ---------------------------------------------------------------------------

// fakeEngine wraps formulas in <k> tags and rejects LaTeX containing \bad.
type fakeEngine struct {
	closed atomic.Bool
}

func (f *fakeEngine) Typeset(ctx context.Context, latex string, _ bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(latex, `\bad`) {
		return "", errors.New("undefined control sequence")
	}
	return "<k>" + latex + "</k>", nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

// testEnv captures output and injects an engine loader. A nil loadErr
// loads engine.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	engine *fakeEngine
	loads  atomic.Int32
	pages  atomic.Int32
}

func newTestEnv(stdin string, loadErr error) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		engine: &fakeEngine{},
	}
	te.Environment = &Environment{
		Stdin:  strings.NewReader(stdin),
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewLoader: func(cfg mathdoc.EngineConfig, opts ...mathdoc.Option) *mathdoc.Loader {
			te.pages.Store(int32(cfg.Pages))
			return mathdoc.NewLoader(func(context.Context) (mathdoc.Engine, error) {
				te.loads.Add(1)
				if loadErr != nil {
					return nil, loadErr
				}
				return te.engine, nil
			}, opts...)
		},
	}
	return te
}

// run runs the CLI with args after the program name.
func (te *testEnv) run(args ...string) int {
	return runMain(context.Background(), append([]string{"mathdoc"}, args...), te.Environment)
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func readFileT(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
