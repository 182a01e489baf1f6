package importer

import (
	"bytes"
	"condec/diagram"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for further writes before
// re-importing.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Format   string // explicit format; empty means extension then detection
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch imports path once, then again whenever its content changes, calling
// fn with each result. The directory is watched rather than the file so
// editors that replace files on save are followed. Watch blocks until ctx
// is cancelled.
func (r *Registry) Watch(ctx context.Context, path string, opts WatchOptions, fn func(*diagram.Diagram, error)) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var last []byte
	reimport := func() {
		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Debug("watched file unreadable", slog.String("path", abs), slog.String("error", err.Error()))
			return
		}
		sum := sha256.Sum256(data)
		if bytes.Equal(sum[:], last) {
			return
		}
		last = sum[:]
		d, format, err := r.ImportFile(abs, opts.Format)
		if err == nil {
			logger.Info("diagram reimported", slog.String("path", abs), slog.String("format", format))
		}
		fn(d, err)
	}
	reimport()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			reimport()
		}
	}
}
