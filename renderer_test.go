package mathdoc

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewRenderer(readyLoader(t, &fakeEngine{}))

	res, err := r.Render(context.Background(), "sea $x$\n\n$$y$$")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Degraded {
		t.Error("Render() with a ready engine is degraded")
	}
	for _, want := range []string{"<p>sea <k>x</k></p>", `<div class="math-display"><k>y</k></div>`} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("Render() = %q, want it to contain %q", res.HTML, want)
		}
	}
}

func TestRenderer_RenderDegradesWhileLoading(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLoader(gatedLoad(&fakeEngine{}, nil, release, &calls))
	defer l.Close()

	r := NewRenderer(l)
	res, err := r.Render(context.Background(), `$\frac{1}{2}$`)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !res.Degraded || !strings.Contains(res.HTML, `<span class="math-fallback">1/2</span>`) {
		t.Errorf("Render() = %+v, want degraded fallback", res)
	}

	close(release)
	<-l.Done()
	if got := calls.Load(); got != 1 {
		t.Errorf("Render() triggered %d loads, want 1", got)
	}

	res, err = r.Render(context.Background(), `$\frac{1}{2}$`)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Degraded {
		t.Error("Render() after load is still degraded")
	}
}

func TestRenderer_NilLoaderDegrades(t *testing.T) {
	t.Parallel()

	res, err := NewRenderer(nil).Render(context.Background(), "$x^2$")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !res.Degraded || !strings.Contains(res.HTML, "x²") {
		t.Errorf("Render() = %+v, want degraded x²", res)
	}

	if _, err := NewRenderer(nil).RenderWait(context.Background(), "$x$"); !errors.Is(err, ErrEngineLoad) {
		t.Errorf("RenderWait() error = %v, want ErrEngineLoad", err)
	}
}

func TestRenderer_SegmentFailureLoggedAndReported(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	engine := &fakeEngine{fail: map[string]error{`\bad`: errors.New("undefined control sequence")}}
	r := NewRenderer(readyLoader(t, engine), WithLogger(zap.New(core)))

	res, err := r.Render(context.Background(), `$a$ $\bad$ $c$`)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].LaTeX != `\bad` {
		t.Fatalf("Failures = %v, want one failure for \\bad", res.Failures)
	}
	if !strings.Contains(res.HTML, "<k>a</k>") || !strings.Contains(res.HTML, "<k>c</k>") {
		t.Errorf("Render() = %q, want the other formulas typeset", res.HTML)
	}

	entries := logs.FilterMessage("formula failed to typeset").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d warnings, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["latex"] != `\bad` || fields["segment"] != int64(1) {
		t.Errorf("logged fields = %v, want latex \\bad at segment 1", fields)
	}
}

func TestRenderer_RenderWait(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLoader(gatedLoad(&fakeEngine{}, nil, release, &calls))
	defer l.Close()

	close(release)
	res, err := NewRenderer(l).RenderWait(context.Background(), "$x$")
	if err != nil {
		t.Fatalf("RenderWait() error = %v", err)
	}
	if res.Degraded || !strings.Contains(res.HTML, "<k>x</k>") {
		t.Errorf("RenderWait() = %+v, want typeset output", res)
	}
}

func TestRenderer_RenderWaitLoadFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	l := NewLoader(gatedLoad(nil, errors.New("no chrome"), nil, &calls))
	defer l.Close()

	if _, err := NewRenderer(l).RenderWait(context.Background(), "$x$"); !errors.Is(err, ErrEngineLoad) {
		t.Errorf("RenderWait() error = %v, want ErrEngineLoad", err)
	}
}

func TestRenderer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRenderer(readyLoader(t, &fakeEngine{}))
	if _, err := r.Render(ctx, "$x$"); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestKatexEngine_TagsTypesetErrors(t *testing.T) {
	t.Parallel()

	// A closed engine fails without launching a browser.
	e := &katexEngine{typesetEngineClosed(t)}
	if _, err := e.Typeset(context.Background(), "x", false); !errors.Is(err, ErrTypeset) {
		t.Errorf("Typeset() error = %v, want ErrTypeset", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Typeset(ctx, "x", false); !errors.Is(err, context.Canceled) || errors.Is(err, ErrTypeset) {
		t.Errorf("Typeset() error = %v, want bare context.Canceled", err)
	}
}
