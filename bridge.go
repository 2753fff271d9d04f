package asynctor

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type outcome[T any] struct {
	value    T
	err      error
	panicked any
}

// Run executes task to completion and returns its result to a blocking
// caller. The task's error keeps its identity through the bridge.
//
// By default the task runs directly on the caller. With
// WithActiveRuntime(true) the work is delegated to a dedicated goroutine
// and joined, so a caller that is itself a scheduled task never re-enters
// its own loop.
func Run[T any](ctx context.Context, task Task[T], opts ...Option) (T, error) {
	var zero T
	if task == nil {
		return zero, ErrNilTask
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := applyOptions(opts)
	if !cfg.runtimeActive {
		return task(ctx)
	}

	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{panicked: r}
			}
		}()
		value, err := task(ctx)
		ch <- outcome[T]{value: value, err: err}
	}()

	out := <-ch
	if out.panicked != nil {
		panic(out.panicked)
	}
	return out.value, out.err
}

// RunUntilComplete is Run with a background context, for call sites that
// have no context of their own.
func RunUntilComplete[T any](task Task[T], opts ...Option) (T, error) {
	return Run(context.Background(), task, opts...)
}

// ToAsync adapts a blocking callable into a Task. The callable is
// dispatched to its own goroutine so it never stalls sibling tasks; the
// returned Task suspends until the callable finishes or the context
// ends. On cancellation the Task returns the context error while the
// callable is left to finish in the background.
func ToAsync[T any](fn func() (T, error)) Task[T] {
	return func(ctx context.Context) (T, error) {
		var zero T
		if fn == nil {
			return zero, ErrNilTask
		}
		if ctx == nil {
			ctx = context.Background()
		}

		ch := make(chan outcome[T], 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					ch <- outcome[T]{panicked: r}
				}
			}()
			value, err := fn()
			ch <- outcome[T]{value: value, err: err}
		}()

		select {
		case out := <-ch:
			if out.panicked != nil {
				panic(out.panicked)
			}
			return out.value, out.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// WaitFor runs task under a deadline. A task that outlives the deadline
// is cancelled through its context and the call returns
// context.DeadlineExceeded without waiting for a task that ignores
// cancellation.
func WaitFor[T any](ctx context.Context, task Task[T], timeout time.Duration) (T, error) {
	var zero T
	if task == nil {
		return zero, ErrNilTask
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{panicked: r}
			}
		}()
		value, err := task(runCtx)
		ch <- outcome[T]{value: value, err: err}
	}()

	select {
	case out := <-ch:
		if out.panicked != nil {
			panic(out.panicked)
		}
		return out.value, out.err
	case <-runCtx.Done():
		return zero, runCtx.Err()
	}
}

// StartTasks launches background tasks and returns a stop function that
// cancels them, waits for them to unwind, and reports the first task
// error other than the cancellation itself. stop is idempotent.
func StartTasks(ctx context.Context, tasks ...func(context.Context) error) (stop func() error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx, cancel := context.WithCancel(ctx)
	eg, runCtx := errgroup.WithContext(runCtx)

	for _, task := range tasks {
		if task == nil {
			continue
		}
		task := task
		eg.Go(func() error {
			return task(runCtx)
		})
	}

	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() {
			cancel()
			if werr := eg.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
				err = werr
			}
		})
		return err
	}
}
