package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 300 * time.Millisecond

// watchFiles calls onChange after any of paths is written or re-created,
// coalescing bursts of events. onChange runs on the calling goroutine, so
// calls never overlap; changes made during a call trigger one more call. It
// blocks until ctx is done.
func watchFiles(ctx context.Context, paths []string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch directories, editors often replace files instead of writing them.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[absPath] = true

		dir := filepath.Dir(absPath)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			if !watched[absPath] {
				continue
			}
			slog.Debug("watched file changed", "path", absPath, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
