package asynctor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// BulkGather executes every task of src, running at most limit of them
// concurrently, and returns the results in source order regardless of
// completion order.
//
// The first failure aborts the call: pending items are not started,
// running items observe a cancelled context, and the originating error
// is returned with no partial results. A limit of at least the item
// count degrades to fully concurrent execution.
func BulkGather[T any](ctx context.Context, src Source[T], limit int, opts ...Option) ([]T, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrNonPositiveLimit, limit)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := applyOptions(opts)
	if src.next != nil {
		return gatherLazy(ctx, src.next, limit, cfg)
	}
	return gatherEager(ctx, src.tasks, limit, cfg)
}

// Gather runs all tasks concurrently with no ceiling and returns the
// results in input order. It is BulkGather with a limit at least as
// large as the task count, minus the ticket bookkeeping.
func Gather[T any](ctx context.Context, tasks ...Task[T]) ([]T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return gatherAll(ctx, tasks, defaultConfig())
}

// MapGroup applies fn to every input concurrently, no ceiling, and
// returns the outputs in input order under the same all-or-nothing
// policy as Gather.
func MapGroup[In, Out any](ctx context.Context, fn func(context.Context, In) (Out, error), inputs []In, opts ...Option) ([]Out, error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tasks := make([]Task[Out], len(inputs))
	for i, in := range inputs {
		in := in
		tasks[i] = func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		}
	}
	return gatherAll(ctx, tasks, applyOptions(opts))
}

func gatherEager[T any](ctx context.Context, tasks []Task[T], limit int, cfg config) ([]T, error) {
	if err := checkTasks(tasks); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		cfg.checkpoint()
		return []T{}, nil
	}
	if limit >= len(tasks) {
		return runBatch(ctx, tasks, cfg)
	}
	if cfg.batchWait {
		results := make([]T, 0, len(tasks))
		for start := 0; start < len(tasks); start += limit {
			batch, err := runBatch(ctx, tasks[start:min(start+limit, len(tasks))], cfg)
			if err != nil {
				return nil, err
			}
			results = append(results, batch...)
		}
		return results, nil
	}

	results := make([]T, len(tasks))
	tickets := semaphore.NewWeighted(int64(limit))
	eg, runCtx := errgroup.WithContext(ctx)

	var aborted error
	for i, task := range tasks {
		// A free ticket gates the start of this item only; items already
		// holding tickets keep running. Acquire fails once runCtx is
		// cancelled, which stops new starts after the first failure.
		if err := tickets.Acquire(runCtx, 1); err != nil {
			aborted = err
			break
		}

		i, task := i, task
		eg.Go(func() error {
			defer tickets.Release(1)
			return runInto(runCtx, task, &results[i], cfg)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if aborted != nil {
		// Every started item succeeded, so the cancellation came from
		// the caller's context rather than a task failure.
		return nil, aborted
	}
	return results, nil
}

func gatherLazy[T any](ctx context.Context, next Producer[T], limit int, cfg config) ([]T, error) {
	if cfg.batchWait {
		return gatherLazyBatched(ctx, next, limit, cfg)
	}

	tickets := semaphore.NewWeighted(int64(limit))
	eg, runCtx := errgroup.WithContext(ctx)

	// One slot per pulled item. Workers write through stable pointers so
	// the slice may keep growing while they run.
	var (
		slots   []*T
		aborted error
	)
	for {
		task, ok, err := next()
		if err != nil {
			aborted = err
			break
		}
		if !ok {
			break
		}
		if task == nil {
			aborted = ErrNilTask
			break
		}
		if err := tickets.Acquire(runCtx, 1); err != nil {
			aborted = err
			break
		}

		slot := new(T)
		slots = append(slots, slot)
		eg.Go(func() error {
			defer tickets.Release(1)
			return runInto(runCtx, task, slot, cfg)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if aborted != nil {
		// A producer failure propagates even when it happens before the
		// first item: the result is that error, not an empty success.
		return nil, aborted
	}
	if len(slots) == 0 {
		cfg.checkpoint()
		return []T{}, nil
	}

	results := make([]T, len(slots))
	for i, slot := range slots {
		results[i] = *slot
	}
	return results, nil
}

func gatherLazyBatched[T any](ctx context.Context, next Producer[T], limit int, cfg config) ([]T, error) {
	var results []T
	for {
		batch, done, err := pullBatch(next, limit)
		if err != nil {
			return nil, err
		}
		if len(batch) > 0 {
			got, err := runBatch(ctx, batch, cfg)
			if err != nil {
				return nil, err
			}
			results = append(results, got...)
		}
		if done {
			break
		}
	}

	if len(results) == 0 {
		cfg.checkpoint()
		return []T{}, nil
	}
	return results, nil
}

func pullBatch[T any](next Producer[T], limit int) (batch []Task[T], done bool, err error) {
	batch = make([]Task[T], 0, limit)
	for len(batch) < limit {
		task, ok, err := next()
		if err != nil {
			return nil, true, err
		}
		if !ok {
			return batch, true, nil
		}
		if task == nil {
			return nil, true, ErrNilTask
		}
		batch = append(batch, task)
	}
	return batch, false, nil
}

func gatherAll[T any](ctx context.Context, tasks []Task[T], cfg config) ([]T, error) {
	if err := checkTasks(tasks); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		cfg.checkpoint()
		return []T{}, nil
	}
	return runBatch(ctx, tasks, cfg)
}

// runBatch launches every task at once and joins them.
func runBatch[T any](ctx context.Context, tasks []Task[T], cfg config) ([]T, error) {
	results := make([]T, len(tasks))
	eg, runCtx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		i, task := i, task
		eg.Go(func() error {
			return runInto(runCtx, task, &results[i], cfg)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runInto[T any](ctx context.Context, task Task[T], slot *T, cfg config) error {
	value, err := protect(ctx, task, cfg)
	if err != nil {
		if cfg.tolerant {
			return nil
		}
		return err
	}
	*slot = value
	return nil
}

func protect[T any](ctx context.Context, task Task[T], cfg config) (value T, err error) {
	if cfg.panicToError {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("asynctor: panic recovered: %v", r)
			}
		}()
	}
	return task(ctx)
}

func checkTasks[T any](tasks []Task[T]) error {
	for _, task := range tasks {
		if task == nil {
			return ErrNilTask
		}
	}
	return nil
}
