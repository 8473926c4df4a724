// Package notify provides change notification for emulator settings.
//
// Two primitives live here. Notifier is a field-keyed change feed: every
// setter of the settings store reports a Change naming the record key, and
// observers can listen to all fields or to one. Subject is a typed
// broadcast of a single value; a replaying Subject hands its latest value
// to each new subscriber before any later emission.
//
// Delivery is synchronous and in subscription order. Observers run on the
// goroutine that caused the change, after internal locks are released.
package notify

import (
	"sync"
)

// ChangeType represents the type of settings change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeReset indicates a value was put back to its default.
	ChangeReset

	// ChangeReload indicates the whole snapshot was restored from storage.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReset:
		return "reset"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a settings change event.
type Change struct {
	// Field is the record key of the changed setting.
	// Empty for reload events.
	Field string

	// Type is the type of change.
	Type ChangeType

	// OldValue is the previous value (may be nil).
	OldValue any

	// NewValue is the new value.
	NewValue any

	// Source identifies where the change came from ("set", "restore", ...).
	Source string
}

// Observer is called when settings change.
type Observer func(change Change)

// Subscription represents an active subscription. It is returned by both
// Notifier and Subject.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery to this subscriber. It is safe to call more
// than once and on a nil Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

type entry struct {
	id       uint64
	field    string
	observer Observer
}

// Notifier manages settings change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers in subscription order. An empty field means all fields.
	entries []entry

	// Next subscription ID
	nextID uint64

	// Closed flag for idempotent Close
	closed bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add("", observer)
}

// SubscribeField registers an observer for changes to a single field.
// Reload events are delivered to field observers too, since a reload may
// have touched any field.
func (n *Notifier) SubscribeField(field string, observer Observer) *Subscription {
	return n.add(field, observer)
}

func (n *Notifier) add(field string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return &Subscription{}
	}

	id := n.nextID
	n.nextID++
	n.entries = append(n.entries, entry{id: id, field: field, observer: observer})

	return &Subscription{cancel: func() { n.unsubscribe(id) }}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}

	var observers []Observer
	for _, e := range n.entries {
		if e.field == "" || change.Field == "" || e.field == change.Field {
			observers = append(observers, e.observer)
		}
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

// NotifySet is a convenience method for set changes.
func (n *Notifier) NotifySet(field string, oldValue, newValue any, source string) {
	n.Notify(Change{
		Field:    field,
		Type:     ChangeSet,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{
		Type:   ChangeReload,
		Source: source,
	})
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Close drops all subscriptions. Later notifications are ignored.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.entries = nil
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.entries {
		if e.id == id {
			n.entries = append(n.entries[:i:i], n.entries[i+1:]...)
			return
		}
	}
}

// Batch collects multiple changes and delivers them as a group.
type Batch struct {
	notifier *Notifier
	changes  []Change
	mu       sync.Mutex
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{
		notifier: n,
		changes:  make([]Change, 0),
	}
}

// Add adds a change to the batch.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Set adds a set change to the batch.
func (b *Batch) Set(field string, oldValue, newValue any, source string) {
	b.Add(Change{
		Field:    field,
		Type:     ChangeSet,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
	})
}

// Commit sends all batched changes to observers in the order they were added.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = make([]Change, 0)
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Discard clears the batch without sending notifications.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = make([]Change, 0)
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}
