package event

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/configstore"
	"github.com/dshills/reflex-emulator/internal/metrics"
	"github.com/dshills/reflex-emulator/internal/settings"
)

// DefaultBuffer is the number of events a bridge queues before dropping.
const DefaultBuffer = 64

// Source is the part of the settings store a Bridge needs.
type Source interface {
	Changes() *notify.Notifier
	Snapshot() settings.Snapshot
}

// Bridge forwards store changes to a Publisher on a background goroutine.
//
// Individual setter calls produce one event each. Restores and resets
// produce a single event for the whole snapshot.
type Bridge struct {
	source  Source
	pub     Publisher
	clock   clockwork.Clock
	logger  *log.Logger
	metrics *metrics.Metrics
	size    int

	mu      sync.Mutex
	queue   chan SettingsUpdated
	sub     *notify.Subscription
	started bool
	closed  bool
	done    chan struct{}
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithClock sets the clock used to stamp events.
func WithClock(clock clockwork.Clock) BridgeOption {
	return func(b *Bridge) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) BridgeOption {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithBuffer sets the queue size. Values below 1 are ignored.
func WithBuffer(n int) BridgeOption {
	return func(b *Bridge) {
		if n > 0 {
			b.size = n
		}
	}
}

// NewBridge creates a bridge from source to pub. Call Start to begin
// forwarding.
func NewBridge(source Source, pub Publisher, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		source: source,
		pub:    pub,
		clock:  clockwork.NewRealClock(),
		logger: log.New(io.Discard),
		size:   DefaultBuffer,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = make(chan SettingsUpdated, b.size)
	return b
}

// Start subscribes to the change feed and starts the publishing goroutine.
// Calling Start more than once has no effect.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true

	go b.run()
	b.sub = b.source.Changes().Subscribe(b.onChange)
}

// forwards reports whether a change gets its own event.
func forwards(c notify.Change) bool {
	if c.Type == notify.ChangeReload {
		return true
	}
	return c.Source == configstore.SourceSet
}

func (b *Bridge) onChange(c notify.Change) {
	if !forwards(c) {
		return
	}
	evt := NewSettingsUpdated(c, b.source.Snapshot(), b.clock.Now())
	if err := b.offer(evt); err != nil {
		b.metrics.Published(err)
		b.logger.Warn("dropping settings update", "field", c.Field, "source", c.Source, "err", err)
	}
}

// offer queues evt without blocking.
func (b *Bridge) offer(evt SettingsUpdated) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBridgeClosed
	}
	select {
	case b.queue <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *Bridge) run() {
	defer close(b.done)
	for evt := range b.queue {
		err := b.pub.Publish(context.Background(), evt)
		b.metrics.Published(err)
		if err != nil {
			b.logger.Error("publish settings update", "id", evt.ID, "field", evt.Field, "err", err)
			continue
		}
		b.logger.Debug("settings update published", "id", evt.ID, "field", evt.Field, "source", evt.Source)
	}
}

// Close stops forwarding and waits until queued events are published or
// ctx ends.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	started := b.started
	sub := b.sub
	close(b.queue)
	b.mu.Unlock()

	sub.Unsubscribe()
	if !started {
		return nil
	}

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
