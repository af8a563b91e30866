package session

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var errPoolShutdown = stderrors.New("task pool shut down")

// pool runs a bounded number of tasks concurrently. Shutdown cancels every
// running task and rejects new ones.
type pool struct {
	log    *slog.Logger
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPool(log *slog.Logger, size int64) *pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &pool{
		log:    log.With("component", "pool", "size", size),
		sem:    semaphore.NewWeighted(size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// future is the pending result of a submitted task.
type future[T any] struct {
	done chan struct{}
	val  T
}

// Done is closed once the task has returned.
func (f *future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the task's value. It must only be called after Done.
func (f *future[T]) Result() T {
	return f.val
}

// IsDone reports whether the task has returned.
func (f *future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// submit waits for a free worker and runs fn on it. fn's context is
// cancelled when ctx ends or the pool shuts down.
func submit[T any](p *pool, ctx context.Context, fn func(context.Context) T) (*future[T], error) {
	if p.ctx.Err() != nil {
		return nil, errPoolShutdown
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	if p.ctx.Err() != nil {
		p.sem.Release(1)

		return nil, errPoolShutdown
	}

	taskCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)

	f := &future[T]{done: make(chan struct{})}

	p.wg.Go(func() {
		defer p.sem.Release(1)
		defer close(f.done)
		defer cancel()
		defer stop()

		f.val = fn(taskCtx)
	})

	return f, nil
}

// shutdown cancels running tasks and waits up to timeout for them to return.
func (p *pool) shutdown(timeout time.Duration) {
	p.cancel()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Debug("Task pool shut down")
	case <-time.After(timeout):
		p.log.Warn("Tasks still running after pool shutdown", "timeout", timeout)
	}
}
