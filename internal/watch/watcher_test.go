package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string, debounce time.Duration) *atomic.Int64 {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var calls atomic.Int64
	go Watch(ctx, root, debounce, logger, func() {
		calls.Add(1)
	})
	time.Sleep(100 * time.Millisecond)
	return &calls
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NoteChangeTriggersCallback(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, 50*time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "no callback for a new note")
}

func TestWatcher_BurstCoalesced(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, 200*time.Millisecond)

	for i := 0; i < 20; i++ {
		name := filepath.Join(root, "n"+string(rune('a'+i))+".md")
		_ = os.WriteFile(name, []byte("# N"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "no callback for the burst")
	// Let any stragglers flush, then check the burst collapsed.
	time.Sleep(500 * time.Millisecond)
	if got := calls.Load(); got > 3 {
		t.Errorf("calls = %d, want the burst coalesced into a few callbacks", got)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, 50*time.Millisecond)

	subDir := filepath.Join(root, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "no callback for a new directory")

	before := calls.Load()
	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() > before
	}, "file in new subdir not picked up")
}

func TestWatcher_RenameTriggersCallback(t *testing.T) {
	root := t.TempDir()
	_ = os.WriteFile(filepath.Join(root, "old.md"), []byte("# Rename"), 0o644)
	calls := startWatcher(t, root, 50*time.Millisecond)

	_ = os.Rename(filepath.Join(root, "old.md"), filepath.Join(root, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "no callback for a rename")
}

func TestWatcher_HiddenIgnored(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, 50*time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, ".hidden.md"), []byte("x"), 0o644)

	time.Sleep(500 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("calls = %d for a hidden file, want 0", got)
	}
}

func TestWatcher_MissingRootReturnsError(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	root := filepath.Join(t.TempDir(), "does-not-exist")

	err := Watch(context.Background(), root, 50*time.Millisecond, logger, func() {})
	if err == nil {
		t.Fatal("Watch on a missing root should fail so callers can surface it")
	}
}
