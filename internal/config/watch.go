package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mkrigman/scnav/internal/debug"
)

// Watch reloads the config file whenever it changes on disk and pushes the
// new motion settings into store. It watches the parent directory rather
// than the file itself, so editors that replace the file (write to temp,
// rename over) are still seen.
//
// Watch returns after starting a background goroutine; the goroutine stops
// and the watcher closes when ctx is cancelled.
func Watch(ctx context.Context, path string, store *Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir %s: %w", dir, err)
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					debug.Error(fmt.Errorf("config reload: %w", err))
					continue
				}
				store.SetMotion(cfg.Motion)
				debug.Info("config reloaded from %s", path)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.Error(fmt.Errorf("config watcher: %w", err))
			}
		}
	}()

	return nil
}
