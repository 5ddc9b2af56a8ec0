// Package task provides a minimal future for one-shot asynchronous work.
package task

import "context"

// Future is the eventual result of a function running in its own goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn and returns its Future. fn receives ctx unchanged.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns an already completed Future.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// Await suspends until the task completes or ctx is done. Cancelling ctx
// abandons the wait, not the task.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the task completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the task has completed.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the task error once completed, nil before.
func (f *Future[T]) Err() error {
	if !f.Ready() {
		return nil
	}
	return f.err
}
