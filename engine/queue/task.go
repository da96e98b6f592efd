package queue

import (
	"context"
	"fmt"
)

// State is the lifecycle state of a task.
type State int

const (
	// Pending tasks wait for a free execution slot.
	Pending State = iota
	// Running tasks are executing their work.
	Running
	// Completed tasks finished without error.
	Completed
	// Failed tasks finished with an error.
	Failed
	// Cancelled tasks were cancelled before their result was delivered.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen from s.
//
// Returns:
//   - bool: true for Completed, Failed and Cancelled
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Work is the body of a task. ctx is cancelled when the task is cancelled while running.
type Work func(ctx context.Context) (any, error)

// Item is one entry of a submission: a keyed unit of work with its urgency.
type Item struct {
	// Key identifies the work; items with the same key share one task.
	Key string
	// Priority is the urgency, lower runs first.
	Priority float64
	// Work is executed once the task is admitted. Ignored when the key is already tracked.
	Work Work
}

// Completion is the delivered outcome of a task that was not cancelled.
type Completion struct {
	// Key is the task key.
	Key string
	// Priority is the task priority when it was admitted.
	Priority float64
	// Value is what the work returned.
	Value any
	// Err is the work's error, nil on success.
	Err error
}

// task is the queue's internal record. All fields are guarded by the queue mutex.
type task struct {
	key       string
	priority  float64
	disabled  bool
	cancelled bool
	state     State
	seq       uint64
	work      Work

	ctx    context.Context
	cancel context.CancelFunc
}

// less orders tasks for admission: enabled before disabled, then ascending priority, then submission order.
func (t *task) less(o *task) bool {
	if t.disabled != o.disabled {
		return !t.disabled
	}
	if t.priority != o.priority {
		return t.priority < o.priority
	}
	return t.seq < o.seq
}
