package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ragchat-cli/cmd/utils"
)

// debounceDuration lets editors finish their write/rename sequence before reloading.
const debounceDuration = 100 * time.Millisecond

// Watch calls onChange after the config file at path is written, created or replaced.
// The parent directory is watched so atomic-rename saves are seen. Bursts of events
// within debounceDuration produce a single call. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	match := func(name string) bool { return name == abs }
	return watchDir(ctx, filepath.Dir(abs), match, func(string) { onChange() })
}

// WatchDir calls onChange with the path of any ragchat config file (see
// SupportedConfigFiles) written or created directly in dir. It lets a session
// started without a config file pick one up later.
func WatchDir(ctx context.Context, dir string, onChange func(path string)) error {
	if dir == "" {
		return fmt.Errorf("config directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve config directory: %w", err)
	}
	match := func(name string) bool { return filepath.Dir(name) == abs && IsConfigFile(name) }
	return watchDir(ctx, abs, match, onChange)
}

func watchDir(ctx context.Context, dir string, match func(string) bool, onChange func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	utils.LogDebugf("watching config in %s", dir)

	go func() {
		defer watcher.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Clean(event.Name)
				if !match(name) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				utils.LogDebugf("config event: %s", event)
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDuration, func() {
					if ctx.Err() != nil {
						return
					}
					onChange(name)
				})
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				utils.LogDebugf("config watcher error: %v", err)
			}
		}
	}()
	return nil
}
