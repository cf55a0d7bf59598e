package typeset

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// counter builds a pool of ints and records create/destroy calls.
type counter struct {
	created   atomic.Int32
	destroyed atomic.Int32
	fail      error
}

func (c *counter) create(context.Context) (int, error) {
	if c.fail != nil {
		return 0, c.fail
	}
	return int(c.created.Add(1)), nil
}

func (c *counter) destroy(int) error {
	c.destroyed.Add(1)
	return nil
}

func TestPool_LazyCreation(t *testing.T) {
	t.Parallel()

	c := &counter{}
	p := newPool(2, c.create, c.destroy)

	if got := c.created.Load(); got != 0 {
		t.Fatalf("created %d items before first acquire, want 0", got)
	}

	a, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	p.Release(a)

	b, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if a != b {
		t.Errorf("Acquire() after release = %d, want reused item %d", b, a)
	}
	if got := c.created.Load(); got != 1 {
		t.Errorf("created %d items, want 1", got)
	}
}

func TestPool_BlocksAtCapacityUntilContextDone(t *testing.T) {
	t.Parallel()

	c := &counter{}
	p := newPool(1, c.create, c.destroy)

	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() at capacity error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPool_ConcurrentUseNeverExceedsSize(t *testing.T) {
	t.Parallel()

	c := &counter{}
	p := newPool(3, c.create, c.destroy)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := p.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			runtime.Gosched()
			p.Release(item)
		}()
	}
	wg.Wait()

	if got := c.created.Load(); got > 3 {
		t.Errorf("created %d items, want at most 3", got)
	}
}

func TestPool_CreateFailureFreesSlot(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := &counter{fail: boom}
	p := newPool(1, c.create, c.destroy)

	if _, err := p.Acquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Acquire() error = %v, want boom", err)
	}

	c.fail = nil
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire() after failed create error = %v", err)
	}
}

func TestPool_Discard(t *testing.T) {
	t.Parallel()

	c := &counter{}
	p := newPool(1, c.create, c.destroy)

	item, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := p.Discard(item); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	next, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() after discard error = %v", err)
	}
	if next == item {
		t.Errorf("Acquire() after discard returned the discarded item %d", item)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := c.destroyed.Load(); got != 2 {
		t.Errorf("destroyed %d items, want 2", got)
	}
}

func TestPool_Close(t *testing.T) {
	t.Parallel()

	c := &counter{}
	p := newPool(2, c.create, c.destroy)

	a, _ := p.Acquire(context.Background())
	b, _ := p.Acquire(context.Background())
	p.Release(a)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if got := c.destroyed.Load(); got != 2 {
		t.Errorf("destroyed %d items, want 2", got)
	}

	// Releasing after close is a no-op
	p.Release(b)

	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrEngineClosed", err)
	}
}

func TestPool_SizeMinimum(t *testing.T) {
	t.Parallel()

	c := &counter{}
	if got := newPool(0, c.create, c.destroy).Size(); got != 1 {
		t.Errorf("newPool(0).Size() = %d, want 1", got)
	}
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit can exceed max",
			workers: 20,
			want:    20,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
		{
			name:    "negative uses auto calculation",
			workers: -1,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	e := New(Options{Pages: 3})
	if e.opts.KaTeXURL != DefaultKaTeXURL {
		t.Errorf("KaTeXURL = %q, want %q", e.opts.KaTeXURL, DefaultKaTeXURL)
	}
	if e.opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", e.opts.Timeout, DefaultTimeout)
	}
	if e.Pages() != 3 {
		t.Errorf("Pages() = %d, want 3", e.Pages())
	}
}

func TestEngine_ClosedBeforeStart(t *testing.T) {
	t.Parallel()

	e := New(Options{})
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := e.Typeset(context.Background(), "x", false); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Typeset() after Close error = %v, want ErrEngineClosed", err)
	}
}

func TestEngine_TypesetCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(Options{})
	defer e.Close()

	if _, err := e.Typeset(ctx, "x", false); !errors.Is(err, context.Canceled) {
		t.Errorf("Typeset() error = %v, want context.Canceled", err)
	}
}
