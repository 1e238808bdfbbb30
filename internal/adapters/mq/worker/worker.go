// Package worker drains the recalculation queue and rescores seasons.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
	"github.com/okian/talentscope/pkg/metrics"
)

const defaultWorkerMultiplier = 2 // per runtime.NumCPU()

// Job is what workers read off the queue.
type Job = model.Job

// Recalculator rescores one stored season and persists the result.
type Recalculator interface {
	Recalculate(ctx context.Context, seasonID int64) (model.RatedPlayer, error)
}

// Releaser clears the pending mark of a season once its job finished.
type Releaser interface {
	Release(ctx context.Context, id int64)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker struct {
	queue    Queue
	recalc   Recalculator
	releaser Releaser
	name     string
	logger   logger.Logger

	processed int64
	failed    int64
	mu        sync.Mutex

	shutdown chan struct{}
	done     chan struct{}
}

type nopReleaser struct{}

func (nopReleaser) Release(context.Context, int64) {}

// New creates a worker.
func New(q Queue, r Recalculator, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		recalc:   r,
		releaser: nopReleaser{},
		name:     "worker",
		logger:   logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue channel closes, ctx is done or Stop
// is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "recalculation failed",
					logger.String("job_id", j.ID),
					logger.Int64("season_id", j.SeasonID),
					logger.Error(err))
			}
		}
	}
}

// Stop asks the worker to exit without draining.
func (w *Worker) Stop() {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Stats returns the number of processed and failed jobs.
func (w *Worker) Stats() (processed, failed int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processed, w.failed
}

func (w *Worker) process(ctx context.Context, j Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.releaser.Release(ctx, j.SeasonID)
	}()

	_, err := w.recalc.Recalculate(ctx, j.SeasonID)

	w.mu.Lock()
	w.processed++
	if err != nil {
		w.failed++
	}
	w.mu.Unlock()

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recalculate")
		return fmt.Errorf("recalculate season %d: %w", j.SeasonID, err)
	}
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates count workers. A count below one sizes the pool from
// the CPU count.
func NewPool(count int, q Queue, r Recalculator, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{workers: make([]*Worker, count), queue: q, logger: logger.Nop()}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = New(q, r, wopts...)
	}
	if len(p.workers) > 0 {
		p.logger = p.workers[0].logger
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stats sums processed and failed counts across workers.
func (p *Pool) Stats() (processed, failed int64) {
	for _, w := range p.workers {
		ps, fs := w.Stats()
		processed += ps
		failed += fs
	}
	return processed, failed
}

// Drain closes the queue and waits until every queued job was processed.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close queue: %w", err)
		}
	}
	return p.wait(ctx)
}

// Shutdown stops every worker without draining and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		w.Stop()
	}
	return p.wait(ctx)
}

func (p *Pool) wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
