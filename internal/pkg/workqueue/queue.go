// Package workqueue runs fire-and-forget jobs on a fixed pool of goroutines.
package workqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Job is a unit of background work. The context is cancelled when the job
// times out or the queue is shut down without draining.
type Job func(ctx context.Context)

// Config defines queue sizing
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Queue is a bounded job channel drained by Workers goroutines
type Queue struct {
	jobs    chan Job
	timeout time.Duration
	logger  zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a queue and starts its workers
func New(cfg Config, logger zerolog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan Job, cfg.QueueSize),
		timeout: cfg.JobTimeout,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}

	q.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go q.worker(i)
	}
	return q
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(id, job)
	}
}

func (q *Queue) run(id int, job Job) {
	ctx := q.baseCtx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().Interface("panic", r).Int("worker", id).Msg("Background job panicked")
		}
		q.processed.Add(1)
	}()
	job(ctx)
}

// Submit enqueues a job without blocking. It returns false when the queue is
// full or already closed; the job is dropped in that case.
func (q *Queue) Submit(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.dropped.Add(1)
		q.logger.Warn().Msg("Job submitted after queue shutdown, dropped")
		return false
	}

	select {
	case q.jobs <- job:
		return true
	default:
		q.dropped.Add(1)
		q.logger.Warn().Int("capacity", cap(q.jobs)).Msg("Job queue full, dropped")
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish. If ctx ends
// first, running jobs are cancelled and ctx's error is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn().Int("pending", len(q.jobs)).Msg("Job queue shutdown deadline reached")
		return ctx.Err()
	}
}

// Processed returns the number of jobs that have run
func (q *Queue) Processed() uint64 {
	return q.processed.Load()
}

// Dropped returns the number of rejected submissions
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
