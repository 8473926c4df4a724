package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/reflex-emulator/internal/config"
	"github.com/dshills/reflex-emulator/internal/configstore"
	"github.com/dshills/reflex-emulator/internal/durable"
	"github.com/dshills/reflex-emulator/internal/event"
	"github.com/dshills/reflex-emulator/internal/settings"
)

var testNow = time.Date(2026, time.October, 18, 14, 3, 5, 0, time.UTC)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Storage.Backend = backend
	cfg.Storage.Path = filepath.Join(t.TempDir(), "settings.json")
	cfg.Watch.DebounceMs = 20
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) (*Application, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := New(context.Background(), Options{
		Config:   cfg,
		Stdout:   &out,
		Stderr:   &bytes.Buffer{},
		Clock:    clockwork.NewFakeClockAt(testNow),
		Location: time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app, &out
}

func TestNew_StartsComponents(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, config.BackendMemory))

	assert.Equal(t, []string{
		componentLogger, componentMetrics, componentRedis,
		componentBackend, componentStore, componentEvents,
	}, app.initOrder)
	assert.NotNil(t, app.Store())
	assert.NotNil(t, app.Logger())
	assert.Equal(t, configstore.DefaultKey, app.Store().Key())

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	assert.ErrorIs(t, app.Run(context.Background(), nil), ErrShutdown)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "tape")

	_, err := New(context.Background(), Options{Config: cfg, Stderr: &bytes.Buffer{}})
	require.Error(t, err)

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, componentBackend, initErr.Component)
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestRun_ShowDefaults(t *testing.T) {
	app, out := newTestApp(t, testConfig(t, config.BackendMemory))

	require.NoError(t, app.Run(context.Background(), []string{CommandShow}))

	assert.True(t, gjson.Valid(out.String()))
	assert.False(t, gjson.Get(out.String(), configstore.TimestampKey).Exists())
	assert.Equal(t, int64(settings.DefaultTouchPointCount), gjson.Get(out.String(), settings.FieldTouchPoints).Int())
}

func TestRun_SetPersistsAcrossInstances(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	app, out := newTestApp(t, cfg)

	require.NoError(t, app.Run(context.Background(), []string{CommandSet, settings.FieldTouchPoints, "5"}))
	assert.Equal(t, int64(5), gjson.Get(out.String(), settings.FieldTouchPoints).Int())
	assert.Equal(t, "18.10.2026, 14:03:05", gjson.Get(out.String(), configstore.TimestampKey).String())

	other, otherOut := newTestApp(t, cfg)
	require.NoError(t, other.Run(context.Background(), nil))
	assert.Equal(t, 5, other.Store().TouchPointCount())
	assert.Equal(t, int64(5), gjson.Get(otherOut.String(), settings.FieldTouchPoints).Int())
}

func TestRun_SetErrors(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, config.BackendMemory))
	ctx := context.Background()

	err := app.Run(ctx, []string{CommandSet, "noSuchField", "1"})
	assert.ErrorIs(t, err, configstore.ErrUnknownField)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, CommandSet, opErr.Op)

	err = app.Run(ctx, []string{CommandSet, settings.FieldTouchPoints, `"many"`})
	var vErr *settings.ValidationError
	assert.True(t, errors.As(err, &vErr))

	assert.ErrorIs(t, app.Run(ctx, []string{CommandSet, settings.FieldTouchPoints}), ErrUsage)
	assert.Equal(t, settings.DefaultTouchPointCount, app.Store().TouchPointCount())
}

func TestRun_Backup(t *testing.T) {
	app, out := newTestApp(t, testConfig(t, config.BackendMemory))

	require.NoError(t, app.Run(context.Background(), []string{CommandBackup}))

	assert.Equal(t, "backup written at 18.10.2026, 14:03:05\n", out.String())
	require.NotNil(t, app.Store().LastBackup())
	assert.True(t, app.Store().LastBackup().Equal(testNow))
}

func TestRun_Reset(t *testing.T) {
	app, out := newTestApp(t, testConfig(t, config.BackendMemory))
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{CommandSet, settings.FieldTouchPoints, "6"}))
	out.Reset()

	require.NoError(t, app.Run(ctx, []string{CommandReset}))
	assert.Equal(t, settings.DefaultTouchPointCount, app.Store().TouchPointCount())
	assert.Nil(t, app.Store().LastBackup())
	assert.False(t, gjson.Get(out.String(), configstore.TimestampKey).Exists())
}

func TestRun_CorruptBackupFile(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	require.NoError(t, os.WriteFile(cfg.Storage.Path, []byte("{not json"), 0o644))
	app, out := newTestApp(t, cfg)
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{CommandShow}))
	assert.Equal(t, int64(settings.DefaultTouchPointCount), gjson.Get(out.String(), settings.FieldTouchPoints).Int())

	require.NoError(t, app.Run(ctx, []string{CommandSet, settings.FieldTouchPoints, "4"}))
	assert.Equal(t, 4, app.Store().TouchPointCount())

	require.NoError(t, os.WriteFile(cfg.Storage.Path, []byte("{not json"), 0o644))
	require.NoError(t, app.Run(ctx, []string{CommandReset}))
	assert.Equal(t, settings.DefaultTouchPointCount, app.Store().TouchPointCount())
}

func TestRun_Fields(t *testing.T) {
	app, out := newTestApp(t, testConfig(t, config.BackendMemory))

	require.NoError(t, app.Run(context.Background(), []string{CommandFields}))

	text := out.String()
	assert.Contains(t, text, "FIELD")
	assert.Contains(t, text, settings.FieldTouchPoints)
	assert.Contains(t, text, settings.FieldViewPort)
	assert.Contains(t, text, "replay")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, config.BackendMemory))

	assert.ErrorIs(t, app.Run(context.Background(), []string{"launch"}), ErrUnknownCommand)
}

func TestRun_WatchNeedsFileBackend(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, config.BackendMemory))

	assert.ErrorIs(t, app.Run(context.Background(), []string{CommandWatch}), ErrWatchUnsupported)
}

func TestEventsReachBus(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t, config.BackendMemory))

	var (
		mu  sync.Mutex
		got []event.SettingsUpdated
	)
	_, err := app.Bus().Subscribe(func(_ context.Context, evt event.SettingsUpdated) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, app.Run(context.Background(), []string{CommandSet, settings.FieldSendInterval, "250"}))
	require.NoError(t, app.Shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, settings.FieldSendInterval, got[0].Field)
	assert.Equal(t, configstore.SourceSet, got[0].Source)
	assert.Equal(t, 250, got[0].Snapshot.SendIntervalMs)
}

func TestInjectedBackendIsNotClosed(t *testing.T) {
	backend := durable.NewMemoryStore()
	cfg := testConfig(t, config.BackendMemory)
	app, err := New(context.Background(), Options{Config: cfg, Backend: backend, Stderr: &bytes.Buffer{}, Stdout: &bytes.Buffer{}})
	require.NoError(t, err)

	require.NoError(t, app.Run(context.Background(), []string{CommandBackup}))
	require.NoError(t, app.Shutdown(context.Background()))

	_, ok, err := backend.Get(context.Background(), configstore.DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWatchFollowsOtherWriters(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the filesystem watcher")
	}
	cfg := testConfig(t, config.BackendFile)
	var out bytes.Buffer
	watching, err := New(context.Background(), Options{Config: cfg, Stdout: &out, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = watching.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watching.Run(ctx, []string{CommandWatch}) }()

	// Let the watcher register before the other process writes.
	require.Eventually(t, func() bool {
		watching.mu.Lock()
		defer watching.mu.Unlock()
		return watching.watcher != nil
	}, 2*time.Second, 10*time.Millisecond)

	writer, _ := newTestApp(t, cfg)
	require.NoError(t, writer.Run(context.Background(), []string{CommandSet, settings.FieldTouchPoints, "7"}))

	assert.Eventually(t, func() bool {
		return watching.Store().TouchPointCount() == 7
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
