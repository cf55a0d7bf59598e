package typeset

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one page is available.
	MinPoolSize = 1

	// MaxPoolSize caps KaTeX pages per browser.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// pool hands out up to size items, creating them lazily on first acquire.
type pool[T comparable] struct {
	size    int
	items   []T
	sem     chan T
	mu      sync.Mutex
	created int
	closed  bool

	create  func(context.Context) (T, error)
	destroy func(T) error
}

func newPool[T comparable](n int, create func(context.Context) (T, error), destroy func(T) error) *pool[T] {
	if n < 1 {
		n = 1
	}

	return &pool[T]{
		size:    n,
		items:   make([]T, 0, n),
		sem:     make(chan T, n),
		create:  create,
		destroy: destroy,
	}
}

// Acquire gets an item from the pool, creating one if needed.
// Blocks until an item is released or ctx is done.
func (p *pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T

	// Try to get an existing item (non-blocking)
	select {
	case item, ok := <-p.sem:
		if !ok {
			return zero, ErrEngineClosed
		}
		return item, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrEngineClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock
		item, err := p.create(ctx)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return zero, err
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = p.destroy(item)
			return zero, ErrEngineClosed
		}
		p.items = append(p.items, item)
		p.mu.Unlock()

		return item, nil
	}
	p.mu.Unlock()

	// All items created, wait for one to be released
	select {
	case item, ok := <-p.sem:
		if !ok {
			return zero, ErrEngineClosed
		}
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Release returns an item to the pool. The channel never holds more than
// size items, so the send under the lock cannot block.
func (p *pool[T]) Release(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- item
}

// Discard drops a broken item so a fresh one can be created in its place.
func (p *pool[T]) Discard(item T) error {
	p.mu.Lock()
	p.created--
	if i := slices.Index(p.items, item); i >= 0 {
		p.items = slices.Delete(p.items, i, i+1)
	}
	p.mu.Unlock()
	return p.destroy(item)
}

// Close destroys every created item.
// Returns an aggregated error if several items fail to close.
func (p *pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	items := p.items
	p.mu.Unlock()

	var errs []error
	for _, item := range items {
		if err := p.destroy(item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *pool[T]) Size() int {
	return p.size
}

// ResolvePoolSize determines the number of KaTeX pages or render workers.
// Priority: explicit value > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
