package async

import (
	"context"
	"fmt"
)

// Task is the awaitable result of a function running in its own goroutine
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Go starts fn in a new goroutine. fn receives a context that is cancelled
// when ctx is done or Cancel is called. A panic in fn is returned as an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		t.value, t.err = fn(taskCtx)
	}()

	return t
}

// Await blocks until the task completes or ctx is done. Giving up on the
// wait does not cancel the task.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the task has completed
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel signals the task's context. The task still has to return.
func (t *Task[T]) Cancel() {
	t.cancel()
}
