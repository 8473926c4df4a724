package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w, err := New(path, rec.handle, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`{"a":"1"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.count() >= 1 })
	if got := rec.last().Path; got != w.Path() {
		t.Errorf("Event.Path = %q, want %q", got, w.Path())
	}
}

func TestWatcher_DetectsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	rec := &recorder{}
	w, err := New(path, rec.handle, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, ".settings.json.tmp")
	if err := os.WriteFile(tmp, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.count() >= 1 })
	if op := rec.last().Op; op != OpCreate && op != OpWrite {
		t.Errorf("Event.Op = %v, want create or write", op)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	rec := &recorder{}
	w, err := New(path, rec.handle, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("handler called %d times for an unrelated file", n)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	rec := &recorder{}
	w, err := New(path, rec.handle, WithDebounce(150*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{'0' + byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return rec.count() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "settings.json"), func(Event) {})
	if err == nil {
		t.Error("New() should fail when the directory does not exist")
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "settings.json"), func(Event) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != ErrWatcherClosed {
		t.Errorf("second Close() error = %v, want ErrWatcherClosed", err)
	}
}
