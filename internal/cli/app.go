package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/config"
	"github.com/aretw0/formflow/internal/dispatch"
	"github.com/aretw0/formflow/internal/reaper"
	"github.com/aretw0/formflow/internal/validator"
	"github.com/aretw0/formflow/pkg/adapters/file"
	loamAdapter "github.com/aretw0/formflow/pkg/adapters/loam"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/adapters/process"
	"github.com/aretw0/formflow/pkg/adapters/redis"
	"github.com/aretw0/formflow/pkg/adapters/sqlite"
	"github.com/aretw0/formflow/pkg/observability"
	"github.com/aretw0/formflow/pkg/persistence/middleware"
	"github.com/aretw0/formflow/pkg/ports"
)

// DefaultLockTTL bounds how long a replica may hold a session lock.
const DefaultLockTTL = 10 * time.Second

// App is a fully wired engine together with the resources it owns.
type App struct {
	Config   *config.Config
	Engine   *formflow.Engine
	Loader   ports.FormLoader
	Store    ports.SubmissionStore
	Queue    *dispatch.Queue
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []io.Closer
}

// Build creates the loader, stores, dispatcher and metrics described by cfg
// and assembles an engine over them. Callers must Close the App.
func Build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = cfg.Logger()
	}
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	loader, err := buildLoader(cfg)
	if err != nil {
		return nil, err
	}
	app.Loader = loader

	opts, err := app.buildStores(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := app.wrapPrivacy(cfg); err != nil {
		app.Close()
		return nil, err
	}
	opts = append(opts, formflow.WithStore(app.Store))

	commands, err := buildCommands(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))

	executor := dispatch.NewExecutor(
		dispatch.WithActionTimeout(cfg.Dispatch.Timeout),
		dispatch.WithExecutorLogger(logger),
		dispatch.WithCommandRunner(commands),
	)
	app.Queue = dispatch.NewQueue(executor,
		dispatch.WithWorkers(cfg.Dispatch.Workers),
		dispatch.WithHooks(hooks),
		dispatch.WithLogger(logger),
	)
	app.closers = append(app.closers, app.Queue)

	opts = append(opts,
		formflow.WithLogger(logger),
		formflow.WithLifecycleHooks(hooks),
		formflow.WithDispatcher(app.Queue),
	)
	eng, err := formflow.New(loader, opts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Engine = eng
	return app, nil
}

func buildLoader(cfg *config.Config) (ports.FormLoader, error) {
	switch cfg.Loader {
	case config.LoaderFile:
		return file.NewLoader(cfg.Dir), nil
	default:
		return loamAdapter.Open(cfg.Dir)
	}
}

func (a *App) buildStores(cfg *config.Config) ([]formflow.Option, error) {
	switch cfg.Store.Driver {
	case config.StoreFile:
		a.Store = file.NewStore(cfg.SessionDir())
		// Counters are process-local with the file driver.
		return nil, nil

	case config.StoreSQLite:
		store, counters, err := sqlite.Open(cfg.SQLiteDSN())
		if err != nil {
			return nil, err
		}
		a.Store = store
		a.closers = append(a.closers, store)
		return []formflow.Option{formflow.WithCounters(counters)}, nil

	case config.StoreRedis:
		rc := cfg.Store.Redis
		storeOpts := []redis.Option{redis.WithPrefix(rc.Prefix)}
		if rc.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(rc.TTL))
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, storeOpts...)
		a.Store = store
		a.closers = append(a.closers, store)
		return []formflow.Option{
			formflow.WithCounters(redis.NewCounters(store.Client(), rc.Prefix)),
			formflow.WithLocker(redis.NewLocker(store.Client(), rc.Prefix), DefaultLockTTL),
		}, nil

	default:
		a.Store = memory.NewStore()
		return nil, nil
	}
}

// wrapPrivacy layers field masking and encryption over the raw store.
func (a *App) wrapPrivacy(cfg *config.Config) error {
	var mws []middleware.Middleware
	if len(cfg.Store.Mask) > 0 {
		mw, err := middleware.NewPII(cfg.Store.Mask)
		if err != nil {
			return err
		}
		if err := a.checkMask(context.Background(), cfg.Store.Mask); err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.DecodeKey(cfg.Store.EncryptionKey)
		if err != nil {
			return err
		}
		mw, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	a.Store = middleware.Chain(a.Store, mws...)
	return nil
}

// checkMask refuses mask patterns that hide variables a form reads back.
func (a *App) checkMask(ctx context.Context, patterns []string) error {
	masked, err := middleware.MaskMatcher(patterns)
	if err != nil {
		return err
	}
	ids, err := a.Loader.ListForms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list forms: %w", err)
	}
	for _, id := range ids {
		form, err := a.Loader.GetForm(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load form %s: %w", id, err)
		}
		if err := validator.CheckMask(form, masked).Err(); err != nil {
			return err
		}
	}
	return nil
}

func buildCommands(cfg *config.Config) (*process.Runner, error) {
	commands, err := process.LoadCommands(cfg.CommandsPath())
	if err != nil {
		return nil, err
	}
	return process.NewRunner(process.WithCommands(commands), process.WithBaseDir(cfg.Dir)), nil
}

// Reaper returns an abandonment reaper over the app's store and engine.
func (a *App) Reaper() *reaper.Reaper {
	return reaper.New(a.Store, a.Engine,
		reaper.WithIdleTimeout(a.Config.Reaper.IdleTimeout),
		reaper.WithSchedule(a.Config.Reaper.Schedule),
		reaper.WithLogger(a.Logger),
	)
}

// Close drains the dispatch queue and releases the stores.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
