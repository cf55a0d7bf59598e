package mathdoc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mathdoc/internal/pipeline"
	"github.com/alnah/go-mathdoc/internal/typeset"
)

// Typesetter renders one formula to HTML.
type Typesetter = pipeline.Typesetter

// Engine is a loaded typesetter that holds resources until closed.
type Engine interface {
	Typesetter
	Close() error
}

// LoadFunc starts an engine. It is called at most once per Loader.
type LoadFunc func(ctx context.Context) (Engine, error)

// EngineConfig configures the KaTeX engine. Zero values select defaults.
type EngineConfig struct {
	KaTeXURL   string
	Pages      int
	Timeout    time.Duration
	BrowserBin string
}

// Compile-time interface checks.
var (
	_ pipeline.Typesetter = (*typeset.Engine)(nil)
	_ Engine              = (*katexEngine)(nil)
)

// Loader starts an engine once and shares the outcome with every caller.
// Success and failure are both cached for the life of the Loader.
type Loader struct {
	load   LoadFunc
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	once sync.Once
	done chan struct{}

	engine Engine
	err    error
}

// NewLoader creates a Loader that runs load on first Start or Wait.
func NewLoader(load LoadFunc, opts ...Option) *Loader {
	o := newOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		load:   load,
		logger: o.logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// NewEngineLoader creates a Loader for the KaTeX engine.
func NewEngineLoader(cfg EngineConfig, opts ...Option) *Loader {
	return NewLoader(func(ctx context.Context) (Engine, error) {
		e := typeset.New(typeset.Options{
			KaTeXURL:   cfg.KaTeXURL,
			Pages:      cfg.Pages,
			Timeout:    cfg.Timeout,
			BrowserBin: cfg.BrowserBin,
		})
		if err := e.Start(ctx); err != nil {
			_ = e.Close()
			return nil, err
		}
		return &katexEngine{e}, nil
	}, opts...)
}

var shared struct {
	once   sync.Once
	loader *Loader
}

// SharedLoader returns the process-wide engine loader, creating it on first
// call. Later calls ignore cfg and opts.
func SharedLoader(cfg EngineConfig, opts ...Option) *Loader {
	shared.once.Do(func() {
		shared.loader = NewEngineLoader(cfg, opts...)
	})
	return shared.loader
}

// Start launches the load in the background if it has not started yet.
func (l *Loader) Start() {
	l.once.Do(func() {
		go l.run()
	})
}

func (l *Loader) run() {
	defer close(l.done)

	start := time.Now()
	l.logger.Info("loading typesetting engine")

	if err := l.ctx.Err(); err != nil {
		l.err = fmt.Errorf("%w: %v", ErrLoaderClosed, err)
		return
	}

	engine, err := l.load(l.ctx)
	if err != nil {
		l.err = fmt.Errorf("%w: %w", ErrEngineLoad, err)
		l.logger.Error("typesetting engine failed to load", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}

	l.engine = engine
	l.logger.Info("typesetting engine ready", zap.Duration("elapsed", time.Since(start)))
}

// Ready returns the engine without blocking. It reports false while the
// load is pending, after a failed load, and before Start.
func (l *Loader) Ready() (Engine, bool) {
	select {
	case <-l.done:
		return l.engine, l.err == nil
	default:
		return nil, false
	}
}

// Wait starts the load if needed and blocks until it finishes or ctx is
// done. Concurrent callers share one load.
func (l *Loader) Wait(ctx context.Context) (Engine, error) {
	l.Start()
	select {
	case <-l.done:
		return l.engine, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when the load has finished, successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Close cancels a pending load and closes the engine if one was loaded.
// Later waiters receive ErrLoaderClosed or the original load error.
func (l *Loader) Close() error {
	l.cancel()
	l.Start()
	<-l.done

	if l.engine == nil {
		return nil
	}
	return l.engine.Close()
}

// katexEngine tags typesetting failures with ErrTypeset.
type katexEngine struct {
	*typeset.Engine
}

func (k *katexEngine) Typeset(ctx context.Context, latex string, display bool) (string, error) {
	out, err := k.Engine.Typeset(ctx, latex, display)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", ErrTypeset, err)
	}
	return out, err
}
