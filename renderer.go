package mathdoc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-mathdoc/internal/pipeline"
)

// Result is the output of one render pass.
type Result struct {
	// HTML is a fragment of block elements.
	HTML string

	// Degraded is set when formulas were shown as plain text because the
	// engine was not ready.
	Degraded bool

	// Failures lists formulas the engine rejected. They are shown as their
	// escaped source and do not stop the pass.
	Failures []*SegmentError
}

// SegmentError describes a formula that failed to typeset.
type SegmentError = pipeline.SegmentError

// Renderer turns flat documents into HTML.
type Renderer struct {
	loader *Loader
	html   *pipeline.HTMLRenderer
	logger *zap.Logger
}

// NewRenderer creates a Renderer typesetting through the engine loaded by
// loader. A nil loader renders every pass degraded.
func NewRenderer(loader *Loader, opts ...Option) *Renderer {
	o := newOptions(opts)
	return &Renderer{
		loader: loader,
		html:   pipeline.NewHTMLRenderer(),
		logger: o.logger,
	}
}

// Render renders flat without waiting for the engine. Until the engine is
// ready, formulas are degraded to plain text and the load is started.
func (r *Renderer) Render(ctx context.Context, flat string) (Result, error) {
	if r.loader != nil {
		if engine, ok := r.loader.Ready(); ok {
			return r.render(ctx, flat, engine)
		}
		r.loader.Start()
	}
	return r.renderDegraded(ctx, flat)
}

// RenderWait waits for the engine, bounded by ctx, and renders with it.
// If the engine failed to load the error wraps ErrEngineLoad.
func (r *Renderer) RenderWait(ctx context.Context, flat string) (Result, error) {
	if r.loader == nil {
		return Result{}, fmt.Errorf("%w: no loader configured", ErrEngineLoad)
	}

	engine, err := r.loader.Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	return r.render(ctx, flat, engine)
}

// RenderDegraded renders flat with formulas shown as plain text.
func (r *Renderer) RenderDegraded(ctx context.Context, flat string) (Result, error) {
	return r.renderDegraded(ctx, flat)
}

func (r *Renderer) renderDegraded(ctx context.Context, flat string) (Result, error) {
	out, err := r.html.RenderDegraded(ctx, flat)
	if err != nil {
		return Result{}, err
	}
	return Result{HTML: out, Degraded: true}, nil
}

// render uses one engine for the whole pass.
func (r *Renderer) render(ctx context.Context, flat string, ts Typesetter) (Result, error) {
	var res Result
	out, err := r.html.Render(ctx, flat, ts, func(e *SegmentError) {
		res.Failures = append(res.Failures, e)
		r.logger.Warn("formula failed to typeset",
			zap.Int("segment", e.Index),
			zap.String("latex", e.LaTeX),
			zap.Bool("display", e.Display),
			zap.Error(e.Err),
		)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Error("render failed", zap.Error(err))
		}
		return Result{}, err
	}
	res.HTML = out
	return res, nil
}
