// Package lazy provides a write-once cell filled on first use.
package lazy

import (
	"context"
	"errors"
	"sync"
)

// ErrInitPanicked is returned to waiters when the initializer panicked.
var ErrInitPanicked = errors.New("lazy: initializer panicked")

// InitFunc produces the value of a cell.
type InitFunc[T any] func(ctx context.Context) (T, error)

// Cell holds a value that is computed at most once successfully.
//
// Concurrent callers of GetOrInit while the cell is empty share a single
// initializer run. A failed run leaves the cell empty so the next caller
// retries. The zero Cell is ready to use and must not be copied.
type Cell[T any] struct {
	mu     sync.Mutex
	filled bool
	value  T
	flight *attempt[T]
}

type attempt[T any] struct {
	done  chan struct{}
	value T
	err   error
	// abandoned is set when the initializer's context ended before init
	// returned, so its error says nothing about the value itself.
	abandoned bool
}

// Get returns the value if the cell is filled. It never blocks on an
// in-flight initializer.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.filled
}

// GetOrInit returns the cell's value, running init if the cell is empty and
// no other caller is already initializing it.
func (c *Cell[T]) GetOrInit(ctx context.Context, init InitFunc[T]) (T, error) {
	for {
		c.mu.Lock()
		if c.filled {
			v := c.value
			c.mu.Unlock()
			return v, nil
		}

		if a := c.flight; a != nil {
			c.mu.Unlock()

			select {
			case <-a.done:
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}

			// The initializer's own context ended; ours has not, so try again.
			if a.abandoned && a.err != nil && ctx.Err() == nil {
				continue
			}
			if a.err != nil {
				var zero T
				return zero, a.err
			}
			return a.value, nil
		}

		a := &attempt[T]{done: make(chan struct{})}
		c.flight = a
		c.mu.Unlock()

		return c.run(ctx, a, init)
	}
}

func (c *Cell[T]) run(ctx context.Context, a *attempt[T], init InitFunc[T]) (value T, err error) {
	finished := false
	defer func() {
		if !finished {
			a.err = ErrInitPanicked
			c.finish(a)
		}
	}()

	value, err = init(ctx)
	a.value, a.err = value, err
	a.abandoned = ctx.Err() != nil
	finished = true
	c.finish(a)

	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func (c *Cell[T]) finish(a *attempt[T]) {
	c.mu.Lock()
	if a.err == nil {
		c.value = a.value
		c.filled = true
	}
	c.flight = nil
	c.mu.Unlock()
	close(a.done)
}
