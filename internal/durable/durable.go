// Package durable provides the local key-value storage the settings store
// backs up to.
//
// A Store is the Go counterpart of browser local storage: a flat mapping of
// string keys to opaque values that survives process restarts. The settings
// store only ever touches its own key; other keys may belong to other
// components sharing the same backend.
//
// Implementations in this package:
//
//   - MemoryStore: process-local map, for tests and ephemeral runs.
//   - FileStore: one JSON document on disk, rewritten atomically.
//
// The sqlitekv and rediskv sub-packages provide SQLite and Redis backends.
package durable

import (
	"context"
	"errors"
)

// Errors returned by durable stores.
var (
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("durable store is closed")

	// ErrEmptyKey indicates an empty key was passed.
	ErrEmptyKey = errors.New("durable store key is empty")
)

// Store is a durable key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; that is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
