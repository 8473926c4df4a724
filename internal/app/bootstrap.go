package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/reflex-emulator/internal/config"
	"github.com/dshills/reflex-emulator/internal/configstore"
	"github.com/dshills/reflex-emulator/internal/durable"
	"github.com/dshills/reflex-emulator/internal/durable/rediskv"
	"github.com/dshills/reflex-emulator/internal/durable/sqlitekv"
	"github.com/dshills/reflex-emulator/internal/event"
	"github.com/dshills/reflex-emulator/internal/logging"
	"github.com/dshills/reflex-emulator/internal/metrics"
)

// Component names, in start order.
const (
	componentLogger  = "logger"
	componentMetrics = "metrics"
	componentRedis   = "redis"
	componentBackend = "backend"
	componentStore   = "store"
	componentEvents  = "events"
	componentWatcher = "watcher"
)

// bootstrapper starts the application's components in dependency order.
type bootstrapper struct {
	app *Application
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{app: app}
}

// bootstrap starts every component. If one fails, the ones already started
// are stopped in reverse order.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []struct {
		name string
		init func(context.Context) error
	}{
		{componentLogger, b.initLogger},
		{componentMetrics, b.initMetrics},
		{componentRedis, b.initRedis},
		{componentBackend, b.initBackend},
		{componentStore, b.initStore},
		{componentEvents, b.initEvents},
	}

	for _, step := range steps {
		if err := step.init(ctx); err != nil {
			b.cleanup(ctx)
			return &InitError{Component: step.name, Err: err}
		}
		b.app.initOrder = append(b.app.initOrder, step.name)
	}

	b.app.logger.Debug("application started", "components", b.app.initOrder)
	return nil
}

// cleanup stops the components started so far.
func (b *bootstrapper) cleanup(ctx context.Context) {
	for i := len(b.app.initOrder) - 1; i >= 0; i-- {
		if err := b.app.stopComponent(ctx, b.app.initOrder[i]); err != nil && b.app.logger != nil {
			b.app.logger.Warn("cleanup", "err", err)
		}
	}
	b.app.initOrder = nil
}

func (b *bootstrapper) initLogger(_ context.Context) error {
	logger, err := logging.FromConfig(b.app.opts.Stderr, b.app.opts.Config.Log)
	if err != nil {
		return err
	}
	b.app.logger = logger
	return nil
}

func (b *bootstrapper) initMetrics(_ context.Context) error {
	b.app.metrics = metrics.New(b.app.opts.Registry)
	return nil
}

// initRedis connects to Redis when the backend or event publishing needs it.
func (b *bootstrapper) initRedis(ctx context.Context) error {
	cfg := b.app.opts.Config
	needBackend := cfg.Storage.Backend == config.BackendRedis && b.app.opts.Backend == nil
	if !needBackend && !cfg.Events.Enabled {
		return nil
	}

	rdb, err := rediskv.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	b.app.rdb = rdb
	b.app.logger.Debug("connected to redis", "url", cfg.Redis.URL)
	return nil
}

func (b *bootstrapper) initBackend(ctx context.Context) error {
	if b.app.opts.Backend != nil {
		b.app.backend = b.app.opts.Backend
		return nil
	}

	cfg := b.app.opts.Config.Storage
	var (
		backend durable.Store
		err     error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		backend = durable.NewMemoryStore()
	case config.BackendFile:
		backend, err = durable.NewFileStore(cfg.Path, durable.WithFileLogger(b.app.logger.WithPrefix("storage")))
	case config.BackendSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return err
		}
		backend, err = sqlitekv.Open(ctx, cfg.Path)
	case config.BackendRedis:
		backend = rediskv.New(b.app.rdb, rediskv.WithPrefix(b.app.opts.Config.Redis.Prefix))
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return err
	}

	b.app.backend = backend
	b.app.logger.Debug("durable backend ready", "backend", cfg.Backend, "path", cfg.Path)
	return nil
}

func (b *bootstrapper) initStore(ctx context.Context) error {
	opts := b.app.opts
	b.app.store = configstore.New(ctx, b.app.backend,
		configstore.WithKey(opts.Config.Storage.Key),
		configstore.WithClock(opts.Clock),
		configstore.WithLocation(opts.Location),
		configstore.WithLogger(b.app.logger.WithPrefix("store")),
		configstore.WithMetrics(b.app.metrics),
	)
	return nil
}

// initEvents starts the bridge that forwards settings changes. Events go to
// Redis when enabled and to the in-process bus otherwise.
func (b *bootstrapper) initEvents(_ context.Context) error {
	cfg := b.app.opts.Config.Events
	b.app.bus = event.NewBus()

	var pub event.Publisher = b.app.bus
	if cfg.Enabled {
		pub = event.NewRedisPublisher(b.app.rdb, cfg.Channel)
	} else {
		logger := b.app.logger.WithPrefix("events")
		if _, err := b.app.bus.Subscribe(func(_ context.Context, evt event.SettingsUpdated) error {
			logger.Debug("settings updated", "field", evt.Field, "source", evt.Source)
			return nil
		}); err != nil {
			return err
		}
	}

	b.app.bridge = event.NewBridge(b.app.store, pub,
		event.WithClock(b.app.opts.Clock),
		event.WithLogger(b.app.logger.WithPrefix("events")),
		event.WithMetrics(b.app.metrics),
		event.WithBuffer(cfg.Buffer),
	)
	b.app.bridge.Start()
	return nil
}

// ensureDir creates the parent directory of a database file.
func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
