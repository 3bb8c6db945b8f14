package runner

import (
	"context"
	"sync"
)

// Future is the eventual result of a submitted task
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that already holds value
func Resolved[T any](value T) *Future[T] {
	f := newFuture[T]()
	f.complete(value, nil)
	return f
}

// Failed returns a future that already holds err
func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

func (f *Future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the task finishes or ctx ends. Giving up on the wait does
// not stop the task.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn on a new goroutine once the result is available
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}
