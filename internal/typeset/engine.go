package typeset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mathdoc/internal/process"
)

// Default KaTeX distribution.
const (
	DefaultKaTeXURL = "https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.js"
	DefaultKaTeXCSS = "https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.css"
	DefaultTimeout  = 10 * time.Second
)

// renderJS calls KaTeX with the formula and display flag passed as arguments,
// so LaTeX source never has to be quoted into the script.
const renderJS = `(src, display) => katex.renderToString(src, {displayMode: display, throwOnError: true, output: "html"})`

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	KaTeXURL   string
	Pages      int
	Timeout    time.Duration
	BrowserBin string
	NoSandbox  bool
}

// Engine typesets LaTeX with KaTeX running in headless Chrome.
// Rod downloads Chromium on first run if no browser is found.
// The browser starts lazily; pages are pooled and created on demand.
type Engine struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	pages    *pool[*rod.Page]
	closed   bool
}

// New creates an Engine. No browser is launched until Start or Typeset.
func New(opts Options) *Engine {
	if opts.KaTeXURL == "" {
		opts.KaTeXURL = DefaultKaTeXURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	opts.Pages = ResolvePoolSize(opts.Pages)

	e := &Engine{opts: opts}
	e.pages = newPool(opts.Pages, e.newPage, closePage)
	return e
}

// Start launches the browser and loads KaTeX into the first page.
// It returns once the engine can typeset.
func (e *Engine) Start(ctx context.Context) error {
	page, err := e.pages.Acquire(ctx)
	if err != nil {
		return err
	}
	e.pages.Release(page)
	return nil
}

// Typeset renders one formula to HTML. Invalid LaTeX returns ErrTypeset.
func (e *Engine) Typeset(ctx context.Context, latex string, display bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := e.pages.Acquire(ctx)
	if err != nil {
		return "", err
	}

	evalCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := page.Context(evalCtx).Eval(renderJS, latex, display)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The page may be mid-evaluation; replace it.
			_ = e.pages.Discard(page)
			return "", ctxErr
		}
		e.pages.Release(page)
		return "", fmt.Errorf("%w: %v", ErrTypeset, err)
	}
	e.pages.Release(page)

	return res.Value.Str(), nil
}

// Close releases the pages and the browser, then kills the browser
// process group so no renderer children outlive the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	errs := []error{e.pages.Close()}

	e.mu.Lock()
	if e.browser != nil {
		errs = append(errs, e.browser.Close())
		e.browser = nil
	}
	if e.launcher != nil {
		process.KillProcessGroup(e.launcher.PID())
		e.launcher.Kill()
		e.launcher = nil
	}
	e.mu.Unlock()

	return errors.Join(errs...)
}

// Pages returns the page pool capacity.
func (e *Engine) Pages() int {
	return e.pages.Size()
}

// withTimeout bounds a browser call by the context deadline or the
// configured timeout, whichever comes first.
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.Timeout)
}

// newPage opens a blank page and loads KaTeX into it.
func (e *Engine) newPage(ctx context.Context) (*rod.Page, error) {
	browser, err := e.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	loadCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := page.Context(loadCtx).AddScriptTag(e.opts.KaTeXURL, ""); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: %v", ErrKaTeXLoad, err)
	}
	return page, nil
}

// ensureBrowser lazily connects to the browser.
func (e *Engine) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if e.browser != nil {
		return e.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := e.opts.BrowserBin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if e.opts.NoSandbox || bin != "" || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	e.launcher = l
	e.browser = browser
	return browser, nil
}

func closePage(page *rod.Page) error {
	return page.Close()
}
