package services

import (
	"context"
	"sync"

	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

type task struct {
	name string
	fn   func(context.Context)
}

// TaskQueue runs fire-and-forget background work on a fixed pool of
// workers. Enqueue never blocks a request: a full queue drops the task and
// reports false, because cache fills are best-effort and a later request
// will rediscover the miss.
type TaskQueue struct {
	ctx    context.Context
	cancel context.CancelFunc

	// workCtx survives queue shutdown so in-progress writes can finish;
	// it is cancelled only when the drain deadline expires.
	workCtx    context.Context
	workCancel context.CancelFunc

	taskChan chan task
	wg       sync.WaitGroup
	stats    ports.StatsCollector
	logger   *logger.StyledLogger

	closeOnce sync.Once
}

func NewTaskQueue(workers, queueSize int, stats ports.StatsCollector, log *logger.StyledLogger) *TaskQueue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	workCtx, workCancel := context.WithCancel(context.Background())
	q := &TaskQueue{
		ctx:        ctx,
		cancel:     cancel,
		workCtx:    workCtx,
		workCancel: workCancel,
		taskChan:   make(chan task, queueSize),
		stats:      stats,
		logger:     log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue submits a task and reports whether it was accepted.
func (q *TaskQueue) Enqueue(name string, fn func(context.Context)) bool {
	select {
	case <-q.ctx.Done():
		q.stats.RecordBackgroundJob(true)
		return false
	default:
	}

	select {
	case q.taskChan <- task{name: name, fn: fn}:
		q.stats.RecordBackgroundJob(false)
		return true
	default:
		q.stats.RecordBackgroundJob(true)
		q.logger.Warn("background queue full, dropping task", "task", name)
		return false
	}
}

func (q *TaskQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case t, ok := <-q.taskChan:
			if !ok {
				return
			}
			q.run(t)
		case <-q.ctx.Done():
			// Drain whatever is already queued before exiting.
			for {
				select {
				case t, ok := <-q.taskChan:
					if !ok {
						return
					}
					q.run(t)
				default:
					return
				}
			}
		}
	}
}

func (q *TaskQueue) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("background task panicked", "task", t.name, "panic", r)
		}
	}()
	t.fn(q.workCtx)
}

// Shutdown stops accepting work and waits for in-progress tasks, bounded
// by the context deadline.
func (q *TaskQueue) Shutdown(ctx context.Context) {
	q.cancel()
	q.closeOnce.Do(func() { close(q.taskChan) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("background queue drain timed out")
	}
	q.workCancel()
}
