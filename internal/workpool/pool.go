// Package workpool bounds blocking I/O shared by several update tracks.
package workpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of concurrent blocking jobs when none is configured.
const DefaultSize = 2

// Pool runs blocking jobs with a global concurrency limit.
// Jobs run on the caller's goroutine once a slot is free.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with size slots. Sizes below one use DefaultSize.
func New(size int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Do waits for a free slot and runs fn. It returns ctx.Err() if the context
// ends before a slot is acquired.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Run is Do for jobs that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
