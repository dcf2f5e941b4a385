package timeclock

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull  = errors.New("background queue is full")
	ErrPoolClosed = errors.New("worker pool is closed")
)

type poolTask struct {
	name   string
	userID string
	run    func(ctx context.Context) error
}

// WorkerPool runs Jobs on a fixed number of goroutines fed by a bounded
// queue. Submissions never block; a full queue rejects the task.
type WorkerPool struct {
	jobs    *Jobs
	workers int
	timeout time.Duration
	logger  *zap.Logger

	queue chan poolTask
	group *errgroup.Group

	mu     sync.RWMutex
	closed bool
}

var _ Dispatcher = (*WorkerPool)(nil)

func NewWorkerPool(jobs *Jobs, workers, queueSize int, timeout time.Duration, logger *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		jobs:    jobs,
		workers: workers,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan poolTask, queueSize),
	}
}

// Start launches the workers. Tasks keep running after ctx is cancelled so
// that Close can drain the queue.
func (p *WorkerPool) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	p.group = &errgroup.Group{}
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for task := range p.queue {
				p.run(base, task)
			}
			return nil
		})
	}
}

func (p *WorkerPool) run(ctx context.Context, task poolTask) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := task.run(ctx); err != nil {
		p.logger.Error("background task failed",
			zap.String("task", task.name),
			zap.String("user", task.userID),
			zap.Error(err))
	}
}

func (p *WorkerPool) DispatchRecompute(_ context.Context, userID string) error {
	return p.submit(poolTask{
		name:   "recompute",
		userID: userID,
		run:    func(ctx context.Context) error { return p.jobs.Recompute(ctx, userID) },
	})
}

func (p *WorkerPool) DispatchDisplayRefresh(_ context.Context) error {
	return p.submit(poolTask{name: "display_refresh", run: p.jobs.RefreshDisplay})
}

func (p *WorkerPool) submit(task poolTask) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *WorkerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	if p.group == nil {
		return nil
	}
	return p.group.Wait()
}
