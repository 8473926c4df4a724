// Package app wires the emulator's settings store to its durable backend,
// outbound events and backup file watcher, and implements the CLI commands.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dshills/reflex-emulator/internal/config"
	"github.com/dshills/reflex-emulator/internal/config/watcher"
	"github.com/dshills/reflex-emulator/internal/configstore"
	"github.com/dshills/reflex-emulator/internal/durable"
	"github.com/dshills/reflex-emulator/internal/event"
	"github.com/dshills/reflex-emulator/internal/metrics"
)

// Application owns every long-lived component of the emulator process.
type Application struct {
	opts Options

	logger  *log.Logger
	metrics *metrics.Metrics
	rdb     *goredis.Client
	backend durable.Store
	store   *configstore.Store
	bus     *event.Bus
	bridge  *event.Bridge
	watcher *watcher.Watcher

	// components started by bootstrap, in order
	initOrder []string

	mu           sync.Mutex
	shutdownOnce sync.Once
	shutdownErr  error
	closed       bool
}

// Options configures the application.
type Options struct {
	// Config is the bootstrap configuration.
	Config config.Config

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives log output. Defaults to os.Stderr.
	Stderr io.Writer

	// Registry receives the metrics collectors. Defaults to a private registry.
	Registry prometheus.Registerer

	// Clock stamps backups and events. Defaults to the real clock.
	Clock clockwork.Clock

	// Location is the time zone of backup timestamps. Defaults to time.Local.
	Location *time.Location

	// Backend replaces the configured durable backend. The application
	// does not close it.
	Backend durable.Store
}

// New creates the application and starts its components. On failure every
// component started so far is stopped again.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Store returns the settings store.
func (app *Application) Store() *configstore.Store {
	return app.store
}

// Logger returns the process logger.
func (app *Application) Logger() *log.Logger {
	return app.logger
}

// Bus returns the in-process event bus. It only receives events when
// Redis publishing is disabled.
func (app *Application) Bus() *event.Bus {
	return app.bus
}

// Shutdown stops every component in reverse start order. It is safe to call
// more than once.
func (app *Application) Shutdown(ctx context.Context) error {
	app.shutdownOnce.Do(func() {
		app.mu.Lock()
		app.closed = true
		app.mu.Unlock()

		var errs []error
		for i := len(app.initOrder) - 1; i >= 0; i-- {
			if err := app.stopComponent(ctx, app.initOrder[i]); err != nil {
				errs = append(errs, err)
			}
		}
		app.initOrder = nil
		app.shutdownErr = errors.Join(errs...)
		if app.shutdownErr != nil {
			app.logger.Error("shutdown", "err", app.shutdownErr)
		}
	})
	return app.shutdownErr
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}

// stopComponent stops one component started by bootstrap.
func (app *Application) stopComponent(ctx context.Context, component string) error {
	switch component {
	case componentWatcher:
		if app.watcher != nil {
			w := app.watcher
			app.watcher = nil
			if err := w.Close(); err != nil && !errors.Is(err, watcher.ErrWatcherClosed) {
				return &ComponentError{Component: component, Action: "close", Err: err}
			}
		}
	case componentEvents:
		if app.bridge != nil {
			if err := app.bridge.Close(ctx); err != nil {
				return &ComponentError{Component: component, Action: "drain", Err: err}
			}
			app.bridge = nil
		}
	case componentStore:
		if app.store != nil {
			app.store.Close()
		}
	case componentBackend:
		if app.backend != nil && app.opts.Backend == nil {
			if err := app.backend.Close(); err != nil && !errors.Is(err, durable.ErrClosed) {
				return &ComponentError{Component: component, Action: "close", Err: err}
			}
		}
	case componentRedis:
		if app.rdb != nil {
			if err := app.rdb.Close(); err != nil {
				return &ComponentError{Component: component, Action: "close", Err: err}
			}
			app.rdb = nil
		}
	}
	return nil
}
