package formflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/runtime"
	loamAdapter "github.com/aretw0/formflow/pkg/adapters/loam"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/aretw0/formflow/pkg/session"
)

// ErrNotWatchable is returned by Watch when the loader cannot report changes.
var ErrNotWatchable = errors.New("current loader does not support watching")

// Engine is the high-level entry point of the library.
// It wires a form loader to submission storage, counters and the action
// dispatcher, and exposes the respondent operations.
type Engine struct {
	runtime     *runtime.Engine
	loader      ports.FormLoader
	store       ports.SubmissionStore
	counters    ports.CounterStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	dispatcher  ports.ActionDispatcher
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption

	// Name labels the engine in logs, usually the form directory.
	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where submissions are persisted (default: in memory).
func WithStore(s ports.SubmissionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithCounters sets where per-form counters are kept (default: in memory).
func WithCounters(c ports.CounterStore) Option {
	return func(e *Engine) {
		e.counters = c
	}
}

// WithLocker adds a distributed lock around every session mutation, for
// deployments running several engine replicas on one store.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithDispatcher sets who receives post-completion jobs. Without one,
// completion actions are skipped.
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// WithIDGenerator replaces the generator of session and submission IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(fn))
	}
}

// New initializes an Engine that reads forms from loader.
func New(loader ports.FormLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("formflow: a form loader is required")
	}
	eng := &Engine{loader: loader}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.counters == nil {
		eng.counters = memory.NewCounters()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("forms", eng.Name)
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.dispatcher != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDispatcher(eng.dispatcher))
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(
		eng.loader,
		session.NewManager(eng.store, sessionOpts...),
		eng.counters,
		runtimeOpts...,
	)
	return eng, nil
}

// Open initializes an Engine over a directory of form documents
// (Markdown with frontmatter, YAML or JSON) read through Loam.
func Open(dir string, opts ...Option) (*Engine, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	loader, err := loamAdapter.Open(absPath)
	if err != nil {
		return nil, err
	}
	named := func(e *Engine) { e.Name = filepath.Base(absPath) }
	return New(loader, append([]Option{named}, opts...)...)
}

// StartOrResume opens a respondent session. An empty sessionID starts a new one.
func (e *Engine) StartOrResume(ctx context.Context, formID, sessionID string) (*domain.StartResult, error) {
	return e.runtime.StartOrResume(ctx, formID, sessionID)
}

// SubmitAnswer validates and records one answer and returns the next step.
func (e *Engine) SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	return e.runtime.SubmitAnswer(ctx, req)
}

// Abandon marks an in-progress session as abandoned.
func (e *Engine) Abandon(ctx context.Context, sessionID string) (bool, error) {
	return e.runtime.Abandon(ctx, sessionID)
}

// Inspect returns the full form definition for visualization or introspection tools.
func (e *Engine) Inspect(ctx context.Context, formID string) (*domain.Form, error) {
	return e.runtime.Inspect(ctx, formID)
}

// Counters returns the view, start and completion totals of a form.
func (e *Engine) Counters(ctx context.Context, formID string) (domain.Counters, error) {
	return e.runtime.Counters(ctx, formID)
}

// Watch returns a channel that receives the ID of each changed form.
// Returns ErrNotWatchable if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, ErrNotWatchable
}

// Loader returns the FormLoader used by the engine.
func (e *Engine) Loader() ports.FormLoader {
	return e.loader
}

// Store returns the SubmissionStore used by the engine.
func (e *Engine) Store() ports.SubmissionStore {
	return e.store
}
