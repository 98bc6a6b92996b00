package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte("motion:\n  move_sensitivity: 0.001\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(Default().Motion)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Watch(ctx, path, store); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("motion:\n  move_sensitivity: 0.05\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for store.Motion().MoveSensitivity != 0.05 {
		select {
		case <-deadline:
			t.Fatalf("reload not observed; move_sensitivity = %v", store.Motion().MoveSensitivity)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatch_IgnoresBrokenRewrite(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte("motion:\n  move_sensitivity: 0.02\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(MotionConfig{MoveSensitivity: 0.02, RotateSensitivity: 0.0005})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Watch(ctx, path, store); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("{{{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Give the watcher time to see the event; the store must keep the last
	// good settings.
	time.Sleep(300 * time.Millisecond)
	if got := store.Motion().MoveSensitivity; got != 0.02 {
		t.Errorf("move_sensitivity = %v, want untouched 0.02", got)
	}
}

func TestWatch_MissingDirFailsUpFront(t *testing.T) {
	store := NewStore(Default().Motion)
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "test.yaml"), store)
	if err == nil {
		t.Error("expected error for missing watch directory, got nil")
	}
}
