package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/monitor"
)

func syncSourcesFromFile(mon *monitor.Monitor, path string, log logger.Logger) error {
	sources, err := monitor.LoadSources(path)
	if err != nil {
		return err
	}
	added, removed := mon.SyncSources(sources)
	log.Info("Watch-list synced from sources file",
		logger.String("path", path),
		logger.Int("added", added),
		logger.Int("removed", removed),
	)
	return nil
}

// WatchSources reloads the watch-list whenever the sources file changes.
// The watch is placed on the parent directory so editor rename-on-save
// still triggers a reload. The returned channel closes when the watcher
// goroutine exits.
func WatchSources(ctx context.Context, mon *monitor.Monitor, path string, log logger.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve sources path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch sources directory: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := syncSourcesFromFile(mon, absPath, log); err != nil {
					log.Warn("Sources reload failed", logger.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Sources watcher error", logger.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Watching sources file for changes", logger.String("path", absPath))
	return done, nil
}
