// Package async provides a bounded worker pool for pipeline runs so the
// CPU-bound acquisition work doesn't block request intake. Runs are
// independent and may complete out of submission order.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/pipeline"
)

var ErrQueueClosed = errors.New("run queue is closed")

type job struct {
	ctx   context.Context
	doc   acquire.Document
	reply chan pipeline.Outcome
}

type RunQueue struct {
	orch    *pipeline.Orchestrator
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan job, n)
		}
	}
}

func WithRunTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(orch *pipeline.Orchestrator, logger *slog.Logger, opts ...Option) *RunQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &RunQueue{
		orch:    orch,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				for j := range q.ch {
					runCtx, cancel := context.WithTimeout(j.ctx, q.timeout)
					out := q.orch.Run(runCtx, j.doc)
					cancel()
					j.reply <- out
				}
				q.logger.Debug("queue.worker.stopped", "worker", workerID)
			}(i)
		}
	})
}

// Submit enqueues a document and waits for its outcome. The caller's context
// bounds both the wait for a worker and the run itself; an abandoned caller
// gets ctx.Err() and the run's result is discarded.
func (q *RunQueue) Submit(ctx context.Context, doc acquire.Document) (pipeline.Outcome, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return pipeline.Outcome{}, ErrQueueClosed
	}
	q.mu.Unlock()

	j := job{ctx: ctx, doc: doc, reply: make(chan pipeline.Outcome, 1)}
	select {
	case q.ch <- j:
	case <-ctx.Done():
		return pipeline.Outcome{}, ctx.Err()
	}

	select {
	case out := <-j.reply:
		return out, nil
	case <-ctx.Done():
		return pipeline.Outcome{}, ctx.Err()
	}
}

// Close stops intake and waits for in-flight runs to finish.
func (q *RunQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.ch)
	q.wg.Wait()
}
