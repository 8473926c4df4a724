// Package watcher follows the backup file on disk and reports rewrites made
// by other processes.
//
// The watcher observes the file's directory rather than the file itself,
// so atomic replacements (write to a temp file, then rename) are seen.
// Bursts of events are coalesced: the handler runs once the file has been
// quiet for the debounce interval.
package watcher

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// DefaultDebounce is used when no debounce interval is given.
const DefaultDebounce = 200 * time.Millisecond

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created or renamed into place.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event reports a settled change of the watched file.
type Event struct {
	// Path is the absolute path to the file.
	Path string

	// Op is the last operation seen before the file settled.
	Op Operation

	// Time is when the handler was triggered.
	Time time.Time
}

// Handler is called when the watched file changed.
type Handler func(event Event)

// Watcher follows a single file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	handler  Handler
	debounce time.Duration
	clock    clockwork.Clock
	logger   *log.Logger

	mu      sync.Mutex
	timer   clockwork.Timer
	lastOp  Operation
	closed  bool
	done    chan struct{}
	handled sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithClock sets the clock driving the debounce timer.
func WithClock(clock clockwork.Clock) Option {
	return func(w *Watcher) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New starts watching path. The file itself need not exist yet, but its
// directory must.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		handler:  handler,
		debounce: DefaultDebounce,
		clock:    clockwork.NewRealClock(),
		logger:   log.New(io.Discard),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			op, relevant := convertOp(ev.Op)
			if !relevant {
				continue
			}
			w.logger.Debug("backup file event", "path", ev.Name, "op", op)
			w.schedule(op)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "path", w.path, "err", err)
		}
	}
}

func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return 0, false
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule(op Operation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.lastOp = op
	if w.timer != nil && w.timer.Stop() {
		w.handled.Done()
	}
	w.handled.Add(1)
	w.timer = w.clock.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	defer w.handled.Done()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	op := w.lastOp
	w.mu.Unlock()

	w.handler(Event{Path: w.path, Op: op, Time: w.clock.Now()})
}

// Close stops watching. A handler already running is waited for; pending
// debounced events are dropped. Close must not be called from the handler.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil && w.timer.Stop() {
		w.handled.Done()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	w.handled.Wait()
	return err
}
