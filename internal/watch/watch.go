// Package watch notifies read-only presentation surfaces when the persisted
// registry changes on disk, e.g. because another process started a timer.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long Watch waits for a burst of events to end before
// calling onChange.
const DefaultSettle = 50 * time.Millisecond

// Watch calls onChange after file is written, created or replaced, until
// ctx is cancelled. It watches the parent directory so atomic rename-based
// saves are seen. Bursts of events within settle collapse into one call.
func Watch(ctx context.Context, file string, settle time.Duration, log *zap.Logger, onChange func()) error {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	file = filepath.Clean(file)
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return err
	}
	log.Debug("watching for changes", zap.String("file", file))

	// pending fires once a burst has settled; nil while idle.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if pending == nil {
					pending = time.After(settle)
				}
			}

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			log.Warn("file watcher error", zap.Error(err))
		}
	}
}
