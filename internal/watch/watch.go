// Package watch re-runs a callback when a file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce coalesces bursts of events, such as an editor's truncate then write.
var Debounce = 100 * time.Millisecond

// File calls onChange after path is written or re-created. The parent directory is
// watched so atomic rename-over saves are seen. Callback errors are logged and
// watching continues. File returns nil once ctx is done.
func File(ctx context.Context, path string, onChange func() error, logger *slog.Logger) (err error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching file", "path", abs)

	timer := time.NewTimer(Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(Debounce)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "path", abs, "error", werr)
		case <-timer.C:
			if cbErr := onChange(); cbErr != nil {
				logger.Warn("change handler failed", "path", abs, "error", cbErr)
			}
		}
	}
}
