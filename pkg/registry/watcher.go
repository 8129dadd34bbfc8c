// pkg/registry/watcher.go
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc observes the outcome of each reload triggered by the watcher.
type ReloadFunc func(err error)

// Watch reloads r whenever a catalog file in its directory is written,
// created, renamed or removed. Bursts of events are debounced. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, r *Registry, debounce time.Duration, onReload ReloadFunc) error {
	if r.dir == "" {
		return fmt.Errorf("registry has no directory to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir, err := filepath.Abs(r.dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", r.dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
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
			if !isCatalogFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				err := r.Reload()
				if onReload != nil {
					onReload(err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onReload != nil {
				onReload(fmt.Errorf("watcher: %w", err))
			}
		}
	}
}
