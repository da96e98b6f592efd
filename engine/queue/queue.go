// Package queue runs keyed, prioritised, cancellable units of work with a bounded number executing at once.
package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pano/common"
)

// DefaultMaxConcurrency is the number of tasks allowed to run at once when not configured.
const DefaultMaxConcurrency = 8

// Stats is a snapshot of the queue counters.
type Stats struct {
	Pending   int
	Running   int
	Submitted uint64
	Completed uint64
	Failed    uint64
	Cancelled uint64
}

type delivery struct {
	task       *task
	completion Completion
}

type queueImpl struct {
	mu             *sync.Mutex
	pool           worker.DynamicWorkerPool
	ownsPool       bool
	maxConcurrency int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tracked map[string]*task
	running int
	inbox   []delivery
	notify  chan struct{}

	seq    uint64
	nextID int
	closed bool
	stats  Stats
}

// Queue is a priority task queue with bounded concurrency.
//
// Submit, Start, Cancel, Clear and Drain are meant to be called from one driving goroutine; work runs on
// pool workers and its outcome is handed back through Drain.
type Queue interface {
	// Submit registers a batch of work. Every pending task not in the batch is disabled first, then each
	// item either creates a new pending task or, when its key is already tracked, re-enables it and lowers
	// its priority to the minimum of the old and new value. Submit does not admit anything; call Start.
	//
	// Parameters:
	//   - items: the work to register
	Submit(items ...Item)

	// Start admits pending tasks while fewer than the maximum are running: enabled tasks first, then by
	// ascending priority.
	Start()

	// Cancel cancels the task for key. A pending task is dropped. A running task has its context
	// cancelled and its outcome is never delivered, even if the work finishes normally. An outcome already
	// waiting in the inbox is discarded.
	//
	// Parameters:
	//   - key: the task key
	//
	// Returns:
	//   - bool: true if something was cancelled
	Cancel(key string) bool

	// Clear cancels every tracked task and discards every undelivered outcome.
	Clear()

	// Drain returns the outcomes of tasks that finished since the last call, oldest first.
	//
	// Returns:
	//   - []Completion: the delivered outcomes
	Drain() []Completion

	// Notify returns a channel that receives a value after a task finishes. It is buffered by one, so
	// several completions may coalesce into one signal.
	//
	// Returns:
	//   - <-chan struct{}: the signal channel
	Notify() <-chan struct{}

	// Priority returns the current priority of a tracked task.
	//
	// Parameters:
	//   - key: the task key
	//
	// Returns:
	//   - float64: the priority
	//   - bool: false if the key is not tracked
	Priority(key string) (float64, bool)

	// State returns the lifecycle state of a tracked task. Finished tasks are no longer tracked.
	//
	// Parameters:
	//   - key: the task key
	//
	// Returns:
	//   - State: the state
	//   - bool: false if the key is not tracked
	State(key string) (State, bool)

	// Tracked reports whether a pending or running task exists for key.
	//
	// Parameters:
	//   - key: the task key
	//
	// Returns:
	//   - bool: true if tracked
	Tracked(key string) bool

	// MaxConcurrency returns the execution bound.
	//
	// Returns:
	//   - int: the maximum number of running tasks
	MaxConcurrency() int

	// Stats returns a snapshot of the counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Close cancels everything, waits for running work to return and stops the pool if the queue owns it.
	Close()
}

var _ Queue = &queueImpl{}

// NewQueue creates a queue. Unless WithPool is given, the queue owns a worker pool sized to its concurrency.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Queue: the queue
func NewQueue(options ...QueueBuilderOption) Queue {
	q := &queueImpl{
		mu:             &sync.Mutex{},
		maxConcurrency: DefaultMaxConcurrency,
		tracked:        make(map[string]*task),
		notify:         make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(q)
	}
	if q.pool == nil {
		// The queue never hands the pool more than maxConcurrency tasks, so the task channel never blocks.
		q.pool = worker.NewDynamicWorkerPool(q.maxConcurrency, q.maxConcurrency, time.Second)
		q.ownsPool = true
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	return q
}

func (q *queueImpl) Submit(items ...Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	for _, t := range q.tracked {
		if t.state == Pending {
			t.disabled = true
		}
	}

	for _, it := range items {
		if t, ok := q.tracked[it.Key]; ok {
			t.disabled = false
			if it.Priority < t.priority {
				t.priority = it.Priority
			}
			continue
		}
		if it.Work == nil {
			panic(fmt.Sprintf("queue: item %q has no work", it.Key))
		}
		q.seq++
		q.tracked[it.Key] = &task{
			key:      it.Key,
			priority: it.Priority,
			state:    Pending,
			seq:      q.seq,
			work:     it.Work,
		}
		q.stats.Submitted++
	}
}

func (q *queueImpl) Start() {
	q.mu.Lock()
	batch := q.admitLocked()
	q.mu.Unlock()
	q.dispatch(batch)
}

// admitLocked moves the most urgent pending tasks to Running until the bound is reached.
func (q *queueImpl) admitLocked() []*task {
	if q.closed || q.running >= q.maxConcurrency {
		return nil
	}
	pending := make([]*task, 0, len(q.tracked))
	for _, t := range q.tracked {
		if t.state == Pending {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].less(pending[j]) })

	var batch []*task
	for _, t := range pending {
		if q.running >= q.maxConcurrency {
			break
		}
		t.state = Running
		t.ctx, t.cancel = context.WithCancel(q.ctx)
		q.running++
		q.wg.Add(1)
		batch = append(batch, t)
	}
	return batch
}

// dispatch hands admitted tasks to the pool. Called without the lock held.
func (q *queueImpl) dispatch(batch []*task) {
	for _, t := range batch {
		q.mu.Lock()
		q.nextID++
		id := q.nextID
		q.mu.Unlock()

		q.pool.SubmitTask(worker.Task{
			ID:      id,
			Payload: t.key,
			Do: func() (any, error) {
				defer q.wg.Done()
				q.run(t)
				return nil, nil
			},
		})
	}
}

func (q *queueImpl) run(t *task) {
	value, err := t.work(t.ctx)

	q.mu.Lock()
	q.running--
	t.cancel()
	if t.cancelled {
		t.state = Cancelled
	} else {
		if err != nil {
			t.state = Failed
		} else {
			t.state = Completed
		}
		if q.tracked[t.key] == t {
			delete(q.tracked, t.key)
		}
		q.inbox = append(q.inbox, delivery{
			task: t,
			completion: Completion{
				Key:      t.key,
				Priority: t.priority,
				Value:    value,
				Err:      err,
			},
		})
	}
	batch := q.admitLocked()
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	q.dispatch(batch)
}

func (q *queueImpl) Cancel(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancelled := false
	if t, ok := q.tracked[key]; ok {
		q.cancelLocked(t)
		cancelled = true
	}
	for _, d := range q.inbox {
		if d.task.key == key && !d.task.cancelled {
			d.task.cancelled = true
			d.task.state = Cancelled
			q.stats.Cancelled++
			cancelled = true
		}
	}
	return cancelled
}

func (q *queueImpl) cancelLocked(t *task) {
	delete(q.tracked, t.key)
	t.cancelled = true
	q.stats.Cancelled++
	switch t.state {
	case Pending:
		t.state = Cancelled
	case Running:
		t.cancel()
	}
	common.Logger().Debug("queue: task cancelled", "key", t.key)
}

func (q *queueImpl) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clearLocked()
}

func (q *queueImpl) clearLocked() {
	for _, t := range q.tracked {
		q.cancelLocked(t)
	}
	for _, d := range q.inbox {
		if !d.task.cancelled {
			d.task.cancelled = true
			d.task.state = Cancelled
			q.stats.Cancelled++
		}
	}
	q.inbox = nil
}

func (q *queueImpl) Drain() []Completion {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.inbox) == 0 {
		return nil
	}
	out := make([]Completion, 0, len(q.inbox))
	for _, d := range q.inbox {
		if d.task.cancelled {
			continue
		}
		if d.completion.Err != nil {
			q.stats.Failed++
		} else {
			q.stats.Completed++
		}
		out = append(out, d.completion)
	}
	q.inbox = q.inbox[:0]
	return out
}

func (q *queueImpl) Notify() <-chan struct{} {
	return q.notify
}

func (q *queueImpl) Priority(key string) (float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tracked[key]
	if !ok {
		return 0, false
	}
	return t.priority, true
}

func (q *queueImpl) State(key string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tracked[key]
	if !ok {
		return 0, false
	}
	return t.state, true
}

func (q *queueImpl) Tracked(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.tracked[key]
	return ok
}

func (q *queueImpl) MaxConcurrency() int {
	return q.maxConcurrency
}

func (q *queueImpl) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.stats
	s.Running = q.running
	for _, t := range q.tracked {
		if t.state == Pending {
			s.Pending++
		}
	}
	return s
}

func (q *queueImpl) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.clearLocked()
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	if q.ownsPool {
		q.pool.Stop()
	}
}
