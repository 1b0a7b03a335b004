// Package dispatch runs post-completion actions off the request path.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("dispatch queue closed")

// Queue buffers dispatch jobs and executes them on a fixed set of workers.
// It implements ports.ActionDispatcher.
type Queue struct {
	exec    *Executor
	jobs    chan domain.DispatchJob
	workers int
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of concurrent jobs.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBuffer sets how many jobs may wait before Enqueue blocks.
func WithBuffer(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.jobs = make(chan domain.DispatchJob, n)
		}
	}
}

// WithHooks reports every action outcome through OnActionResult.
func WithHooks(h domain.LifecycleHooks) QueueOption {
	return func(q *Queue) {
		q.hooks = h
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewQueue creates a Queue and starts its workers.
func NewQueue(exec *Executor, opts ...QueueOption) *Queue {
	q := &Queue{
		exec:    exec,
		jobs:    make(chan domain.DispatchJob, 64),
		workers: 2,
		logger:  logging.NewNop(),
		group:   new(errgroup.Group),
	}
	for _, opt := range opts {
		opt(q)
	}
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			for job := range q.jobs {
				q.process(job)
			}
			return nil
		})
	}
	return q
}

// Enqueue hands job to the workers. It blocks only while the buffer is full.
func (q *Queue) Enqueue(ctx context.Context, job domain.DispatchJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	return q.group.Wait()
}

func (q *Queue) process(job domain.DispatchJob) {
	// Jobs outlive the request that produced them.
	ctx := context.Background()
	logger := q.logger.With("form_id", job.FormID, "submission_id", job.SubmissionID)

	for _, res := range q.exec.Run(ctx, job) {
		if res.Err != nil {
			logger.Error("Action failed", "action", res.Action.Type, "duration", res.Duration, "err", res.Err)
		} else {
			logger.Info("Action completed", "action", res.Action.Type, "duration", res.Duration)
		}
		if q.hooks.OnActionResult == nil {
			continue
		}
		evt := &domain.ActionEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventActionResult,
				FormID:    job.FormID,
				SessionID: job.SessionID,
			},
			SubmissionID: job.SubmissionID,
			ActionType:   res.Action.Type,
			Duration:     res.Duration,
			IsError:      res.Err != nil,
		}
		if res.Err != nil {
			evt.Error = res.Err.Error()
		}
		q.hooks.OnActionResult(ctx, evt)
	}
}
