package sync

import (
	"context"
	"sync"
	"time"

	"NovaFM/logger"
)

const taskTimeout = 30 * time.Second

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// TaskQueue owns every fire-and-forget remote propagation task. It is bound
// to the engine's lifecycle, not to any caller scope, so cancelling a
// subscription never cancels an in-flight remote write. Task failures are
// logged and swallowed; the next reconciliation pass is the retry mechanism.
type TaskQueue struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	tasks   chan task
	pending sync.WaitGroup
	workers sync.WaitGroup
}

// NewTaskQueue starts a queue with the given number of workers.
func NewTaskQueue(workers int) *TaskQueue {
	if workers <= 0 {
		workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &TaskQueue{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(chan task, 256),
	}

	for i := 0; i < workers; i++ {
		q.workers.Add(1)
		go q.run()
	}
	return q
}

func (q *TaskQueue) run() {
	defer q.workers.Done()
	for t := range q.tasks {
		ctx, cancel := context.WithTimeout(q.ctx, taskTimeout)
		if err := t.fn(ctx); err != nil {
			logger.Warn("background task failed",
				logger.String("task", t.name), logger.ErrorField(err))
		}
		cancel()
		q.pending.Done()
	}
}

// Submit enqueues a task. It never blocks the caller; when the queue is
// saturated the task is dropped with a warning, which is acceptable because
// reconciliation repairs missed propagations.
func (q *TaskQueue) Submit(name string, fn func(ctx context.Context) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		logger.Warn("task submitted after queue close", logger.String("task", name))
		return
	}

	q.pending.Add(1)
	select {
	case q.tasks <- task{name: name, fn: fn}:
	default:
		q.pending.Done()
		logger.Warn("task queue saturated, dropping task", logger.String("task", name))
	}
}

// Drain blocks until every submitted task has finished. Intended for tests
// and shutdown paths.
func (q *TaskQueue) Drain() {
	q.pending.Wait()
}

// Close drains the queue, stops the workers and cancels the task context.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.pending.Wait()
	close(q.tasks)
	q.workers.Wait()
	q.cancel()
}
