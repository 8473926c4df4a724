package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/settings"
)

func testEvent() SettingsUpdated {
	return NewSettingsUpdated(
		notify.Change{Field: settings.FieldTouchPoints, Source: "set"},
		settings.Defaults(),
		time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	)
}

func TestNewSettingsUpdated(t *testing.T) {
	evt := testEvent()

	assert.NotEqual(t, [16]byte{}, [16]byte(evt.ID))
	assert.Equal(t, TopicSettingsUpdated, evt.Topic)
	assert.Equal(t, settings.FieldTouchPoints, evt.Field)
	assert.Equal(t, "set", evt.Source)
	assert.Equal(t, settings.DefaultTouchPointCount, evt.Snapshot.TouchPointCount)
	assert.NotEqual(t, evt.ID, testEvent().ID)
}

func TestBus_DeliversInOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe(func(context.Context, SettingsUpdated) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, bus.Publish(context.Background(), testEvent()))
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 3, bus.Len())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var calls int
	unsubscribe, err := bus.Subscribe(func(context.Context, SettingsUpdated) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), testEvent()))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), testEvent()))

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Len())
}

func TestBus_HandlerErrors(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	var reached bool

	_, _ = bus.Subscribe(func(context.Context, SettingsUpdated) error { return boom })
	_, _ = bus.Subscribe(func(context.Context, SettingsUpdated) error { panic("bad handler") })
	_, _ = bus.Subscribe(func(context.Context, SettingsUpdated) error {
		reached = true
		return nil
	})

	err := bus.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.True(t, reached)

	var he *HandlerError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, uint64(0), he.SubscriptionID)
}

func TestBus_NilHandler(t *testing.T) {
	_, err := NewBus().Subscribe(nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestBus_CanceledContext(t *testing.T) {
	bus := NewBus()
	var calls int
	_, _ = bus.Subscribe(func(context.Context, SettingsUpdated) error {
		calls++
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent()), context.Canceled)
	assert.Zero(t, calls)
}
