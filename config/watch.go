package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc receives every configuration that loaded successfully after a change
type ReloadFunc func(cfg *Config)

// WatchOption configures Watch
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	logger   *zap.Logger
}

// WithDebounce sets how long Watch waits for writes to settle
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload failures
func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Watch reloads the configuration with loader whenever path changes and hands
// the result to fn. A configuration that fails to load is logged and dropped.
// The parent directory is watched so editors that replace the file are seen.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, loader Loader, fn ReloadFunc, opts ...WatchOption) error {
	o := watchOptions{debounce: 300 * time.Millisecond, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	reload := func() {
		cfg := &Config{}
		if err := loader.Load(cfg); err != nil {
			o.logger.Warn("Configuration reload failed, keeping current configuration",
				zap.String("path", abs), zap.Error(err))
			return
		}
		o.logger.Info("Configuration reloaded", zap.String("path", abs))
		fn(cfg)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(o.debounce)
			}

		case <-timer.C:
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("Configuration watcher error", zap.Error(err))
		}
	}
}
