package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// run starts the event loop and returns a channel receiving one value per
// callback.
func run(t *testing.T, w *Watcher) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes := make(chan struct{}, 16)
	go w.Run(ctx, func(context.Context) { changes <- struct{}{} })
	// Let the loop start before generating events.
	time.Sleep(50 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change callback")
	}
}

func expectQuiet(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change callback")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_Recursive(t *testing.T) {
	w := newWatcher(t)
	root := t.TempDir()
	sub := filepath.Join(root, "fonts", "bold")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range []string{root, filepath.Join(root, "fonts"), sub} {
		if !w.paths[p] {
			t.Errorf("Watch() did not track %s", p)
		}
	}
}

func TestWatch_NonExistent(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Watch() expected error for missing root")
	}
}

func TestRun_DebouncesBurst(t *testing.T) {
	w := newWatcher(t)
	root := t.TempDir()
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changes := run(t, w)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	waitChange(t, changes)
	expectQuiet(t, changes)
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	w := newWatcher(t)
	root := t.TempDir()
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changes := run(t, w)

	sub := filepath.Join(root, "new")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	waitChange(t, changes)

	if err := os.WriteFile(filepath.Join(sub, "x.ttf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	waitChange(t, changes)
}

func TestRun_FileRootIgnoresSiblings(t *testing.T) {
	w := newWatcher(t)
	dir := t.TempDir()
	root := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(root, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changes := run(t, w)

	if err := os.WriteFile(filepath.Join(dir, "other.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	expectQuiet(t, changes)

	if err := os.WriteFile(root, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	waitChange(t, changes)
}

func TestRun_ContextCancellation(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch(t.TempDir()); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func(context.Context) { calls.Add(1) })
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	if calls.Load() != 0 {
		t.Errorf("expected no callbacks, got %d", calls.Load())
	}
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path, parent string
		want         bool
	}{
		{"a" + sep + "b", "a", true},
		{"a", "a", false},
		{"ab", "a", false},
		{"b" + sep + "a", "a", false},
	}
	for _, tt := range tests {
		if got := isSubPath(tt.path, tt.parent); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.path, tt.parent, got, tt.want)
		}
	}
}
