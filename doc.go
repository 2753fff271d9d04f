// Package asynctor provides bounded-concurrency task execution helpers.
//
// It combines:
//   - errgroup for task launching, cancellation, and first-error tracking
//   - a weighted semaphore as the pool of concurrency tickets
//
// Core behavior:
//   - run many Tasks under a concurrency limit with BulkGather
//   - run a fixed set of Tasks with no limit with Gather
//   - feed tasks eagerly with Tasks or lazily with Produce
//   - bridge blocking code and Tasks with Run, RunUntilComplete and ToAsync
//   - measure wall-clock cost with Timer, TimeIt and TimeTask
//
// Semantics:
//   - results come back in input order, never completion order
//   - gathers are all-or-nothing: the first failure aborts the call and
//     no partial results are returned
//   - an empty source still yields the scheduler exactly once
//   - a lazy source that fails before its first item reports that error,
//     not an empty success
//
// Policy options:
//   - WithTolerance(): a failed item keeps its zero value instead of
//     aborting the call
//   - WithBatchWait(): drain the source in batches of limit, waiting for
//     each batch before starting the next
//   - WithPanicPropagation(): rethrow task panics instead of converting
//     them to errors (default: convert)
package asynctor
