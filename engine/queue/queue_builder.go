package queue

import "github.com/Carmen-Shannon/automation/tools/worker"

// QueueBuilderOption is a functional option for configuring a Queue via NewQueue.
type QueueBuilderOption func(*queueImpl)

// WithMaxConcurrency sets how many tasks may run at once. Values below 1 are ignored.
//
// Parameters:
//   - n: the execution bound
//
// Returns:
//   - QueueBuilderOption: a function that applies the bound to a queue
func WithMaxConcurrency(n int) QueueBuilderOption {
	return func(q *queueImpl) {
		if n > 0 {
			q.maxConcurrency = n
		}
	}
}

// WithPool runs work on an existing worker pool instead of one owned by the queue.
// The pool must accept at least the queue's concurrency of buffered tasks; Close does not stop it.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - QueueBuilderOption: a function that applies the pool to a queue
func WithPool(pool worker.DynamicWorkerPool) QueueBuilderOption {
	return func(q *queueImpl) {
		q.pool = pool
	}
}
