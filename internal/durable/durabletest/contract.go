// Package durabletest holds the behavioral contract every durable.Store
// implementation must satisfy. Backend packages run it from their tests.
package durabletest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/reflex-emulator/internal/durable"
)

// Factory returns a fresh, empty store. The contract closes it.
type Factory func(t *testing.T) durable.Store

// RunContract runs the shared store contract against stores built by newStore.
func RunContract(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("get absent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		v, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "Emulator Settings", []byte(`{"sendInterval":100}`)))
		v, ok, err := s.Get(ctx, "Emulator Settings")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"sendInterval":100}`, string(v))
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", []byte("one")))
		require.NoError(t, s.Set(ctx, "k", []byte("two")))
		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "two", string(v))
	})

	t.Run("delete is scoped", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "a", []byte("1")))
		require.NoError(t, s.Set(ctx, "b", []byte("2")))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "never-set"))

		_, ok, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, keys)
	})

	t.Run("keys sorted", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, k := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, s.Set(ctx, k, []byte(k)))
		}
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
	})

	t.Run("empty key", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		assert.ErrorIs(t, s.Set(ctx, "", []byte("x")), durable.ErrEmptyKey)
		_, _, err := s.Get(ctx, "")
		assert.ErrorIs(t, err, durable.ErrEmptyKey)
		assert.ErrorIs(t, s.Delete(ctx, ""), durable.ErrEmptyKey)
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), durable.ErrClosed)
		_, _, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, durable.ErrClosed)
	})
}
