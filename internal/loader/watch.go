package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/debounce"
)

// ErrWatchUnsupported is returned by Watch for sources that are not files.
var ErrWatchUnsupported = errors.New("watch requires a file source")

// Watch reloads the snapshot whenever the data file changes, until ctx is
// cancelled. Bursts of events are coalesced by the debounce window, so an
// editor save that writes the file several times causes one Reload.
//
// The containing directory is watched rather than the file itself so that
// replace-by-rename saves are seen. Reload failures are logged and the
// previous snapshot stays published.
func (ld *Loader) Watch(ctx context.Context) error {
	fs, ok := ld.source.(*FileSource)
	if !ok {
		return ErrWatchUnsupported
	}
	target, err := filepath.Abs(fs.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", fs.Path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	ld.logger.Info("watching data file", zap.String("path", target))

	reload := make(chan struct{}, 1)
	d := debounce.New(ld.delay, func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}, debounce.WithClock(ld.clock))
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			ld.logger.Info("stopped watching data file", zap.String("path", target))
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(event, target) {
				continue
			}
			ld.logger.Debug("data file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			d.Trigger()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ld.logger.Warn("watcher error", zap.Error(err))

		case <-reload:
			// Errors are already logged by Reload.
			_, _ = ld.Reload(ctx)
		}
	}
}

func relevant(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
