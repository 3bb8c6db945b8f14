package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrRunnerClosed is returned by Submit after Shutdown has begun
var ErrRunnerClosed = errors.New("task runner is shut down")

// Config holds configuration for the task runner
type Config struct {
	// MaxConcurrency bounds the number of tasks running at once. Zero lets
	// the pool grow with demand.
	MaxConcurrency int
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{MaxConcurrency: 0}
}

// Runner executes store operations off the caller's goroutine. Submitted
// tasks always run to completion; Shutdown waits for them.
type Runner struct {
	logger *slog.Logger
	sem    *semaphore.Weighted

	mu     sync.RWMutex
	closed bool
	group  errgroup.Group

	// base is handed to tasks so they outlive the submitter's context
	base context.Context
}

// New creates a task runner
func New(cfg Config, logger *slog.Logger) *Runner {
	r := &Runner{
		logger: logger,
		base:   context.Background(),
	}
	if cfg.MaxConcurrency > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}
	return r
}

// Submit runs fn on the pool
func (r *Runner) Submit(fn func(ctx context.Context) error) (*Future[struct{}], error) {
	return Go(r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Go runs fn on the pool and returns a future for its result
func Go[T any](r *Runner, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	f := newFuture[T]()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRunnerClosed
	}

	r.group.Go(func() error {
		if r.sem != nil {
			// base is never cancelled, so Acquire only returns once a slot frees
			_ = r.sem.Acquire(r.base, 1)
			defer r.sem.Release(1)
		}

		value, err := runTask(r, fn)
		f.complete(value, err)
		// Errors travel through the future; the group only tracks completion
		return nil
	})

	return f, nil
}

// runTask calls fn, turning a panic into an error on the future
func runTask[T any](r *Runner, fn func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("task panicked",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(r.base)
}

// Shutdown stops accepting tasks and waits for every submitted task to
// finish. If ctx ends first the remaining tasks keep running and ctx's error
// is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.logger.Info("draining task runner")

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("task runner drained")
		return nil
	case <-ctx.Done():
		r.logger.Warn("task runner shutdown timed out with tasks still running")
		return ctx.Err()
	}
}
