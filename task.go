package asynctor

import (
	"context"
	"errors"
)

// Task is one unit of asynchronous work. It produces a single value or
// fails with an error. The context carries cancellation from the
// enclosing gather or bridge call; a well-behaved Task returns promptly
// once the context is done.
type Task[T any] func(ctx context.Context) (T, error)

// Producer lazily yields tasks, one per call. It reports ok=false once
// exhausted. A non-nil error is a producer failure and aborts the
// enclosing gather with that error, even before the first item.
//
// A Producer is single-pass. Feeding an already-drained Producer to a
// second gather is undefined by contract.
type Producer[T any] func() (task Task[T], ok bool, err error)

var (
	// ErrNonPositiveLimit is returned by BulkGather when limit < 1,
	// before any task is scheduled.
	ErrNonPositiveLimit = errors.New("asynctor: limit must be positive")

	// ErrNilTask is returned when a nil Task is supplied or produced.
	ErrNilTask = errors.New("asynctor: nil task")
)

// Source supplies the tasks for one gather call, either as a slice known
// up front or as a lazy single-pass Producer. Exactly one of the two
// variants is set; the gather resolves it once at its boundary.
type Source[T any] struct {
	tasks []Task[T]
	next  Producer[T]
}

// Tasks builds an eager Source from a fixed set of tasks.
func Tasks[T any](tasks ...Task[T]) Source[T] {
	return Source[T]{tasks: tasks}
}

// Produce builds a lazy Source from a single-pass Producer.
func Produce[T any](next Producer[T]) Source[T] {
	return Source[T]{next: next}
}
