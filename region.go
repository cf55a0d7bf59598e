package mathdoc

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Region is a render target where only the newest document is shown.
// Each Render cancels the pass still running for an older document, and a
// result is published only if no newer Render has been issued since.
// Degraded results are published immediately and replaced once the engine
// is ready.
type Region struct {
	renderer *Renderer
	publish  func(Result)
	logger   *zap.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewRegion creates a Region that hands results to publish. Calls to
// publish are serialized.
func NewRegion(r *Renderer, publish func(Result)) *Region {
	return &Region{
		renderer: r,
		publish:  publish,
		logger:   r.logger,
	}
}

// Render starts rendering flat in the background, superseding any earlier
// call. It returns immediately.
func (g *Region) Render(ctx context.Context, flat string) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	seq := g.seq
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer cancel()
		g.run(ctx, seq, flat)
	}()
}

func (g *Region) run(ctx context.Context, seq uint64, flat string) {
	res, err := g.renderer.Render(ctx, flat)
	if err != nil {
		g.report(err)
		return
	}
	if !g.offer(ctx, seq, res) || !res.Degraded || g.renderer.loader == nil {
		return
	}

	// Upgrade once the engine has loaded.
	if _, err := g.renderer.loader.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			g.logger.Warn("keeping degraded render", zap.Error(err))
		}
		return
	}
	res, err = g.renderer.Render(ctx, flat)
	if err != nil {
		g.report(err)
		return
	}
	g.offer(ctx, seq, res)
}

// offer publishes res if seq is still the newest render.
func (g *Region) offer(ctx context.Context, seq uint64, res Result) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq || ctx.Err() != nil || g.closed {
		return false
	}
	g.publish(res)
	return true
}

func (g *Region) report(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	g.logger.Error("region render failed", zap.Error(err))
}

// Wait blocks until every render started so far has finished.
func (g *Region) Wait() {
	g.wg.Wait()
}

// Close cancels the pending render and waits for it to stop.
// Render calls after Close are ignored.
func (g *Region) Close() {
	g.mu.Lock()
	g.closed = true
	if g.cancel != nil {
		g.cancel()
	}
	g.mu.Unlock()
	g.wg.Wait()
}
