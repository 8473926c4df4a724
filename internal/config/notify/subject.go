package notify

import (
	"sync"
	"sync/atomic"
)

type subscriber[T any] struct {
	id     uint64
	fn     func(T)
	active *atomic.Bool
}

// Subject broadcasts values of one type to its subscribers.
//
// A replaying Subject always holds a current value and delivers it to every
// new subscriber on Subscribe. A plain Subject only forwards values emitted
// after the subscription was made.
type Subject[T any] struct {
	mu     sync.RWMutex
	subs   []subscriber[T]
	nextID uint64
	value  T
	replay bool
	closed bool
}

// NewSubject creates a Subject that does not replay.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// NewReplaySubject creates a Subject holding initial as its current value.
func NewReplaySubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial, replay: true}
}

// Subscribe registers fn. For replaying subjects fn receives the current
// value before Subscribe returns. Subscribing to a closed subject returns
// an inert Subscription and delivers nothing.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &Subscription{}
	}
	id := s.nextID
	s.nextID++
	active := new(atomic.Bool)
	active.Store(true)
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn, active: active})
	current, replay := s.value, s.replay
	s.mu.Unlock()

	if replay {
		fn(current)
	}
	return &Subscription{cancel: func() { s.unsubscribe(id) }}
}

// Next records v as the current value and delivers it to every subscriber
// in subscription order. A subscriber removed while Next is delivering
// receives nothing further. Next on a closed subject is a no-op.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(v)
		}
	}
}

// Value returns the most recent value. For a plain subject that has never
// emitted this is the zero value.
func (s *Subject[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Replays reports whether new subscribers receive the current value.
func (s *Subject[T]) Replays() bool {
	return s.replay
}

// Len returns the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Close drops every subscriber. It is safe to call Close multiple times.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, sub := range s.subs {
		sub.active.Store(false)
	}
	s.subs = nil
}

func (s *Subject[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			sub.active.Store(false)
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}
