package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
)

// ReportFunc receives the outcome of each triggered run.
type ReportFunc func(*Report, error)

// Watch reloads path whenever it changes, until ctx is done. Bursts of
// events within debounce collapse into one run. The parent directory is
// watched so that editors replacing the file by rename are seen.
func (l *Loader) Watch(ctx context.Context, path string, debounce time.Duration, onReport ReportFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if addErr := watcher.Add(filepath.Dir(target)); addErr != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), addErr)
	}

	l.logger.Info("Watching course file", infralogger.String("file", target))

	timer := time.NewTimer(debounce)
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
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.logger.Debug("Course file changed",
				infralogger.String("file", target),
				infralogger.String("op", event.Op.String()),
			)
			timer.Reset(debounce)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("File watcher error", infralogger.Error(watchErr))

		case <-timer.C:
			report, runErr := l.Run(ctx, path)
			if onReport != nil {
				onReport(report, runErr)
			}
		}
	}
}
