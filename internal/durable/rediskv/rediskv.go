// Package rediskv implements durable.Store on Redis string keys.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dshills/reflex-emulator/internal/durable"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "reflex:emulator:"

// Store is a durable.Store keeping each key as a Redis string under a prefix.
type Store struct {
	rdb    *goredis.Client
	prefix string
	owned  bool
	closed atomic.Bool
}

var _ durable.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewClient parses a redis:// URL and verifies the server is reachable.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("rediskv: parse url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediskv: ping: %w", err)
	}
	return rdb, nil
}

// Open connects to url and returns a Store owning the client.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	rdb, err := NewClient(ctx, url)
	if err != nil {
		return nil, err
	}
	s := New(rdb, opts...)
	s.owned = true
	return s, nil
}

// New wraps an existing client. Close does not close a client passed here.
func New(rdb *goredis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements durable.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(key); err != nil {
		return nil, false, err
	}

	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rediskv: get %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements durable.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("rediskv: set %q: %w", key, err)
	}
	return nil
}

// Delete implements durable.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("rediskv: delete %q: %w", key, err)
	}
	return nil
}

// Keys implements durable.Store. Only keys under the prefix are listed.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, durable.ErrClosed
	}

	keys := []string{}
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("rediskv: scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements durable.Store.
func (s *Store) Close() error {
	if s.closed.Swap(true) || !s.owned {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) check(key string) error {
	if key == "" {
		return durable.ErrEmptyKey
	}
	if s.closed.Load() {
		return durable.ErrClosed
	}
	return nil
}
