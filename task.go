package flowrt

import (
	"context"
	"sync"
)

// A Task is a one-shot, lazily started unit of work, similar to a goroutine
// but with a typed result and a result that can be awaited more than once.
//
// A Task is created with [NewTask] but does not run its body until it is
// started, either explicitly with [Task.Start] or implicitly by the first
// call to [Task.Await]. Once started, the body runs on its own goroutine;
// awaiting a Task that has already finished returns its stored value or
// error synchronously, without blocking.
//
// A Task's body runs at most once, however many times it is started or
// awaited.
type Task[T any] struct {
	once sync.Once
	body func(ctx context.Context) (T, error)
	done chan struct{}

	value T
	err   error
}

// NewTask returns a Task that will run body the first time it is started.
func NewTask[T any](body func(ctx context.Context) (T, error)) *Task[T] {
	return &Task[T]{body: body, done: make(chan struct{})}
}

// Go returns an already-started Task running f. It is a convenience for the
// common case where a Task is spawned and never explicitly started.
func Go[T any](ctx context.Context, f func(ctx context.Context) (T, error)) *Task[T] {
	t := NewTask(f)
	t.Start(ctx)
	return t
}

// Start runs t's body on a new goroutine if it has not already been started.
// Start is safe to call concurrently and idempotent: only the first call has
// any effect.
func (t *Task[T]) Start(ctx context.Context) {
	t.once.Do(func() {
		go func() {
			var rec failureRecorder
			if !rec.Try(func() { t.value, t.err = t.body(ctx) }) {
				t.err = rec.AsError()
			}
			close(t.done)
		}()
	})
}

// IsReady reports whether t has finished running, without blocking.
func (t *Task[T]) IsReady() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Await starts t if necessary and blocks until it finishes or ctx is done.
// If t has already finished, Await returns immediately with its stored
// value or error. Awaiting the same Task from multiple goroutines is safe;
// all of them observe the same value or error.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	t.Start(ctx)
	select {
	case <-t.done:
		return t.value, t.err
	default:
	}
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once t has finished, for use in a
// select statement alongside other awaitables.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}
