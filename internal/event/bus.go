package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler processes a settings-updated event.
type Handler func(ctx context.Context, evt SettingsUpdated) error

type busEntry struct {
	id      uint64
	handler Handler
}

// Bus is an in-process Publisher. Handlers run synchronously on the
// publishing goroutine in subscription order.
type Bus struct {
	mu      sync.RWMutex
	entries []busEntry
	nextID  uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function removing it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func(), err error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.entries = append(b.entries, busEntry{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { b.remove(id) }) }, nil
}

// Publish implements Publisher. Every handler runs even when an earlier
// one fails; the failures are joined into the returned error.
func (b *Bus) Publish(ctx context.Context, evt SettingsUpdated) error {
	b.mu.RLock()
	entries := make([]busEntry, len(b.entries))
	copy(entries, b.entries)
	b.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := invoke(ctx, e, evt); err != nil {
			errs = append(errs, &HandlerError{SubscriptionID: e.id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of handlers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func invoke(ctx context.Context, e busEntry, evt SettingsUpdated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return e.handler(ctx, evt)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}
