package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchTemplates reloads the registry whenever a YAML file in userDir
// changes. Bursts of events within debounce collapse into one reload. The
// channel is closed when ctx is done; a slow reader only sees the latest
// registry.
func WatchTemplates(ctx context.Context, userDir string, debounce time.Duration) (<-chan *Registry, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(userDir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", userDir, err)
	}

	out := make(chan *Registry, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".yaml" {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					fire = time.After(debounce)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-fire:
				fire = nil
				reg, err := LoadRegistry(userDir)
				if err != nil {
					continue
				}
				select {
				case <-out:
				default:
				}
				out <- reg
			}
		}
	}()
	return out, nil
}
