package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mathdoc"
	"github.com/alnah/go-mathdoc/internal/config"
	"github.com/alnah/go-mathdoc/internal/fileutil"
	"github.com/alnah/go-mathdoc/internal/hints"
	"github.com/alnah/go-mathdoc/internal/pipeline"
	"github.com/alnah/go-mathdoc/internal/typeset"
)

// Sentinel errors for the render command.
var (
	ErrReadCSS            = errors.New("failed to read CSS file")
	ErrWriteOutput        = errors.New("failed to write HTML file")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrRenderFailed       = errors.New("render failed")
)

// dirPermissions is rwxr-x---: owner full, group read+execute.
const dirPermissions = 0o750

// renderJob is one document to render. An empty input path reads stdin and
// writes the page to stdout.
type renderJob struct {
	InputPath  string
	OutputPath string
}

// renderResult holds the outcome of a single render.
type renderResult struct {
	InputPath  string
	OutputPath string
	Degraded   bool
	Failures   int
	Err        error
	Duration   time.Duration
}

// renderParams groups parameters shared across the batch.
type renderParams struct {
	renderer *mathdoc.Renderer
	full     bool
	katexCSS string
	css      string
	stdin    io.Reader
	stdout   io.Writer
}

// runRender renders flat documents to standalone HTML pages.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, files, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Render.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}
	workers = typeset.ResolvePoolSize(workers)

	timeout, err := resolveTimeout(flags.timeout, cfg)
	if err != nil {
		return err
	}

	css, err := readCSS(flags.css, cfg)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(files, flags.output)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, &flags.common)
	defer func() { _ = logger.Sync() }()

	params := &renderParams{
		katexCSS: cfg.Engine.KaTeXCSS,
		css:      css,
		stdin:    env.Stdin,
		stdout:   env.Stdout,
	}

	var loader *mathdoc.Loader
	if !flags.degraded {
		loader = env.NewLoader(mathdoc.EngineConfig{
			KaTeXURL:   cfg.Engine.KaTeXURL,
			Pages:      workers,
			Timeout:    timeout,
			BrowserBin: cfg.Engine.BrowserBin,
		}, mathdoc.WithLogger(logger))
		defer func() { _ = loader.Close() }()

		logger.Debug("waiting for typesetting engine", zap.Int("pages", workers))
		if _, err := loader.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if flags.wait || cfg.Render.Wait {
				return fmt.Errorf("%w%s", err, engineHint(err, cfg))
			}
			fmt.Fprintf(env.Stderr, "warning: rendering formulas as text: %v%s\n", err, hints.ForDegraded())
		} else {
			params.full = true
		}
	}
	params.renderer = mathdoc.NewRenderer(loader, mathdoc.WithLogger(logger))

	results := renderBatch(ctx, jobs, workers, params)
	return reportResults(results, &flags.common, env)
}

// renderBatch renders jobs concurrently, at most workers at a time.
// A failed job does not stop the others.
func renderBatch(ctx context.Context, jobs []renderJob, workers int, params *renderParams) []renderResult {
	results := make([]renderResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = renderResult{InputPath: job.InputPath, Err: err}
				return nil
			}
			results[i] = renderFile(ctx, job, params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// renderFile renders a single document and writes its page.
func renderFile(ctx context.Context, job renderJob, params *renderParams) renderResult {
	start := time.Now()
	result := renderResult{InputPath: job.InputPath, OutputPath: job.OutputPath}
	finish := func(err error) renderResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	var content []byte
	var err error
	if job.InputPath == "" {
		content, err = readInput(nil, params.stdin)
	} else {
		content, err = readFile(job.InputPath)
	}
	if err != nil {
		return finish(err)
	}

	flat := mathdoc.Prepare(string(content))

	var res mathdoc.Result
	if params.full {
		res, err = params.renderer.RenderWait(ctx, flat)
	} else {
		res, err = params.renderer.RenderDegraded(ctx, flat)
	}
	if err != nil {
		return finish(err)
	}
	result.Degraded = res.Degraded
	result.Failures = len(res.Failures)

	page, err := buildPage(ctx, job.InputPath, res, params)
	if err != nil {
		return finish(err)
	}

	if job.OutputPath == "" {
		if _, err := io.WriteString(params.stdout, page); err != nil {
			return finish(fmt.Errorf("%w: %v", ErrWriteOutput, err))
		}
		return finish(nil)
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), dirPermissions); err != nil {
		return finish(fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory()))
	}
	if err := fileutil.WriteAtomic(job.OutputPath, []byte(page)); err != nil {
		return finish(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}
	return finish(nil)
}

// buildPage wraps a rendered fragment in a standalone page. The KaTeX
// stylesheet is linked only when formulas were typeset.
func buildPage(ctx context.Context, inputPath string, res mathdoc.Result, params *renderParams) (string, error) {
	fragment := res.HTML
	title := "mathdoc"
	if inputPath != "" {
		var err error
		fragment, err = pipeline.ResolveLocalImages(fragment, filepath.Dir(inputPath))
		if err != nil {
			return "", fmt.Errorf("resolving images: %w", err)
		}
		base := filepath.Base(inputPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	injector := &pipeline.CSSInjection{}
	page := pipeline.Page(title, fragment)
	if !res.Degraded {
		page = injector.InjectStylesheet(ctx, page, params.katexCSS)
	}
	page = injector.InjectCSS(ctx, page, pipeline.DefaultCSS)
	page = injector.InjectCSS(ctx, page, params.css)
	return page, nil
}

// buildJobs pairs inputs with output paths. No files means stdin to stdout.
func buildJobs(files []string, outDir string) ([]renderJob, error) {
	if len(files) == 0 {
		return []renderJob{{}}, nil
	}
	jobs := make([]renderJob, 0, len(files))
	for _, f := range files {
		out, err := fileutil.OutputPath(f, outDir, "html")
		if err != nil {
			return nil, err
		}
		if out == f {
			return nil, fmt.Errorf("%w: output would overwrite input %s", ErrUsage, f)
		}
		jobs = append(jobs, renderJob{InputPath: f, OutputPath: out})
	}
	return jobs, nil
}

// validateWorkers checks the worker count is within pool bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > typeset.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, typeset.MaxPoolSize)
	}
	return nil
}

// resolveTimeout returns the per-formula timeout. The flag takes priority
// over the config; zero lets the engine pick its default.
func resolveTimeout(flagValue string, cfg *config.Config) (time.Duration, error) {
	if flagValue == "" {
		return cfg.Engine.TimeoutDuration(), nil
	}
	d, err := time.ParseDuration(flagValue)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, flagValue)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %s", ErrInvalidTimeout, flagValue)
	}
	return d, nil
}

// readCSS loads the extra stylesheet named by the flag or the config.
func readCSS(flagValue string, cfg *config.Config) (string, error) {
	path := flagValue
	if path == "" {
		path = cfg.Render.CSS
	}
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
	}
	return string(data), nil
}

// engineHint picks the hint matching an engine load failure.
func engineHint(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, typeset.ErrKaTeXLoad):
		return hints.ForKaTeXLoad(cfg.Engine.KaTeXURL)
	case errors.Is(err, typeset.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}

// reportResults prints per-file outcomes and returns an error if any
// file failed. A lone failure is returned as is and left to the caller
// to print.
func reportResults(results []renderResult, f *commonFlags, env *Environment) error {
	var failed int
	var first error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", displayName(r.InputPath), r.Err)
			}
			continue
		}
		if r.Failures > 0 {
			fmt.Fprintf(env.Stderr, "%s: %d formula(s) could not be typeset\n", displayName(r.InputPath), r.Failures)
		}
		if f.quiet || r.OutputPath == "" {
			continue
		}
		if f.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !f.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	if failed == 0 {
		return nil
	}
	if len(results) == 1 {
		return first
	}
	return fmt.Errorf("%w: %d of %d files: %w", ErrRenderFailed, failed, len(results), first)
}

func displayName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}
