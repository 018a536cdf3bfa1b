package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolStopped is returned when work is submitted to a stopped pool.
var ErrPoolStopped = errors.New("worker pool is not running")

type workerKey struct{}

type task struct {
	ctx  context.Context
	work func(context.Context)
}

// WorkerPool runs submitted work on a fixed number of goroutines. Work
// receives a context marked with the pool, so code can tell via InWorker
// that it is running on one of the pool's own workers.
type WorkerPool struct {
	workers   int
	workQueue chan task
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.RWMutex
}

// NewWorkerPool creates a pool with the given number of workers (at least one).
// The queue is buffered at twice the worker count.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers:   workers,
		workQueue: make(chan task, workers*2),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the workers. Calling it again has no effect.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}
	wp.running = true

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop stops the workers and waits for in-flight work to finish.
// Queued work that has not started is discarded.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	close(wp.stopCh)
	wp.mu.Unlock()

	wp.wg.Wait()
}

// Submit queues work, blocking while the queue is full until ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, work func(context.Context)) error {
	wp.mu.RLock()
	running := wp.running
	wp.mu.RUnlock()
	if !running {
		return ErrPoolStopped
	}

	select {
	case wp.workQueue <- task{ctx: ctx, work: work}:
		return nil
	case <-wp.stopCh:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InWorker reports whether ctx was handed out by one of this pool's workers.
func (wp *WorkerPool) InWorker(ctx context.Context) bool {
	p, _ := ctx.Value(workerKey{}).(*WorkerPool)
	return p == wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case t := <-wp.workQueue:
			t.work(context.WithValue(t.ctx, workerKey{}, wp))
		case <-wp.stopCh:
			return
		}
	}
}
