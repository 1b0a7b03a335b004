// Package reaper marks idle in-progress submissions as abandoned, either on
// demand (Sweep) or on a cron schedule (Start).
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

const (
	// DefaultIdleTimeout is how long a submission may sit without activity.
	DefaultIdleTimeout = 24 * time.Hour
	// DefaultSchedule is the cron spec used by Start.
	DefaultSchedule = "@every 15m"
)

// Abandoner transitions a session to abandoned under its session lock.
type Abandoner interface {
	Abandon(ctx context.Context, sessionID string) (bool, error)
}

// Reaper finds idle submissions in a store and abandons them through the engine.
type Reaper struct {
	store    ports.SubmissionStore
	engine   Abandoner
	idle     time.Duration
	schedule string
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures the Reaper.
type Option func(*Reaper)

// WithIdleTimeout sets the inactivity threshold.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithSchedule sets the cron spec ("@every 5m", "0 3 * * *", ...).
func WithSchedule(spec string) Option {
	return func(r *Reaper) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reaper) {
		r.now = now
	}
}

// New creates a Reaper.
func New(store ports.SubmissionStore, engine Abandoner, opts ...Option) *Reaper {
	r := &Reaper{
		store:    store,
		engine:   engine,
		idle:     DefaultIdleTimeout,
		schedule: DefaultSchedule,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep abandons every in-progress submission idle for longer than the
// timeout and returns how many it abandoned. Per-session failures are
// logged and skipped; only a failure to list the store is returned.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	cutoff := r.now().Add(-r.idle)
	count := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		sub, err := r.store.Load(ctx, id)
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			continue
		}
		if err != nil {
			r.logger.Warn("Reaper failed to load submission", "session_id", id, "err", err)
			continue
		}
		if sub.Status != domain.StatusInProgress || sub.Metadata.LastActivityAt.After(cutoff) {
			continue
		}

		ok, err := r.engine.Abandon(ctx, id)
		if err != nil {
			r.logger.Warn("Reaper failed to abandon submission", "session_id", id, "err", err)
			continue
		}
		if ok {
			count++
			r.logger.Info("Submission abandoned", "session_id", id, "form_id", sub.FormID, "idle", r.now().Sub(sub.Metadata.LastActivityAt).Round(time.Second))
		}
	}
	return count, nil
}

// Start schedules Sweep and returns immediately. Overlapping runs are
// skipped. The schedule stops when ctx is cancelled or Stop is called.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return errors.New("reaper already started")
	}

	logger := cronLogger{r.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("Reaper sweep failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", r.schedule, err)
	}
	r.cron = c
	c.Start()
	r.logger.Info("Reaper started", "schedule", r.schedule, "idle_timeout", r.idle)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// cronLogger routes cron's logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
