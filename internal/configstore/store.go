package configstore

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/durable"
	"github.com/dshills/reflex-emulator/internal/metrics"
	"github.com/dshills/reflex-emulator/internal/settings"
)

// DefaultKey is the durable key the emulator has always backed up to.
const DefaultKey = "Emulator Settings"

// Change sources reported on the Changes feed.
const (
	SourceSet     = "set"
	SourceRestore = "restore"
	SourceReset   = "reset"
)

// Store owns the emulator settings.
type Store struct {
	mu sync.RWMutex

	backend durable.Store
	key     string
	clock   clockwork.Clock
	loc     *time.Location
	logger  *log.Logger
	metrics *metrics.Metrics

	// Plain settings
	projectionLayers  int
	backgroundImage   string
	backgroundSources []settings.BackgroundSource
	camera            settings.Camera
	circleSize        settings.CircleSize
	sendInterval      int
	serverConnection  string
	viewOptions       []settings.ViewOption
	viewPort          settings.ViewPort

	// Observable settings; the subject holds the current value
	touchPoints      *notify.Subject[int]
	layers           *notify.Subject[settings.Layers]
	normalizedPoints *notify.Subject[[]settings.NormalizedPoint]
	lastBackup       *notify.Subject[*time.Time]

	// Side channels without replay
	background  *notify.Subject[string]
	activePoint *notify.Subject[int]

	changes *notify.Notifier
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the clock used to stamp backups.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the time zone backup timestamps are written and read in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger. Without it the store logs nothing.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a store holding the default settings and derives the last
// backup timestamp from whatever record backend already holds. It does not
// restore the record; call Restore for that.
func New(ctx context.Context, backend durable.Store, opts ...Option) *Store {
	d := settings.Defaults()
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		clock:   clockwork.NewRealClock(),
		loc:     time.Local,
		logger:  log.New(io.Discard),

		projectionLayers:  d.ProjectionLayerCount,
		backgroundImage:   d.BackgroundImage,
		backgroundSources: d.BackgroundSources,
		camera:            d.Camera,
		circleSize:        d.CircleSize,
		sendInterval:      d.SendIntervalMs,
		serverConnection:  d.ServerConnection,
		viewOptions:       d.ViewOptions,
		viewPort:          d.ViewPort,

		touchPoints:      notify.NewReplaySubject(d.TouchPointCount),
		layers:           notify.NewReplaySubject(d.Layers),
		normalizedPoints: notify.NewReplaySubject(d.NormalizedPoints),
		lastBackup:       notify.NewReplaySubject[*time.Time](nil),
		background:       notify.NewSubject[string](),
		activePoint:      notify.NewSubject[int](),

		changes: notify.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.refreshBackupTimestamp(ctx)
	return s
}

// Key returns the durable key the store backs up to.
func (s *Store) Key() string {
	return s.key
}

// Changes returns the field-keyed change feed.
func (s *Store) Changes() *notify.Notifier {
	return s.changes
}

// Snapshot returns a copy of every setting.
func (s *Store) Snapshot() settings.Snapshot {
	s.mu.RLock()
	snap := settings.Snapshot{
		ProjectionLayerCount: s.projectionLayers,
		BackgroundImage:      s.backgroundImage,
		BackgroundSources:    settings.CloneSlice(s.backgroundSources),
		Camera:               s.camera,
		CircleSize:           s.circleSize,
		SendIntervalMs:       s.sendInterval,
		ServerConnection:     s.serverConnection,
		ViewOptions:          settings.CloneSlice(s.viewOptions),
		ViewPort:             s.viewPort,
	}
	s.mu.RUnlock()

	snap.TouchPointCount = s.touchPoints.Value()
	snap.Layers = s.layers.Value()
	snap.NormalizedPoints = settings.CloneSlice(s.normalizedPoints.Value())
	snap.LastBackup = s.lastBackup.Value()
	return snap.Clone()
}

// Close closes every observable channel and the change feed. The durable
// backend is not closed; it belongs to the caller.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.touchPoints.Close()
	s.layers.Close()
	s.normalizedPoints.Close()
	s.lastBackup.Close()
	s.background.Close()
	s.activePoint.Close()
	s.changes.Close()
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// changeSink receives one change produced by a setter.
type changeSink func(field string, oldValue, newValue any)

// direct reports changes straight to the feed.
func (s *Store) direct(source string) changeSink {
	return func(field string, oldValue, newValue any) {
		s.changes.NotifySet(field, oldValue, newValue, source)
	}
}

// batched collects changes in b with the given type and source.
func batched(b *notify.Batch, typ notify.ChangeType, source string) changeSink {
	return func(field string, oldValue, newValue any) {
		b.Add(notify.Change{
			Field:    field,
			Type:     typ,
			OldValue: oldValue,
			NewValue: newValue,
			Source:   source,
		})
	}
}
