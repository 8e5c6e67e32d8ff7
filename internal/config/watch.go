package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes.
type Watcher struct {
	path     string
	envFiles []string
	logger   *zap.Logger
}

// NewWatcher watches the config file at path (or the default location).
func NewWatcher(path string, logger *zap.Logger, envFiles ...string) (*Watcher, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: resolved, envFiles: envFiles, logger: logger}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Start begins watching and returns once the watch is registered. onChange
// receives each successfully reloaded config; reload errors are logged and
// the previous config stays in effect. Watching stops when ctx is done.
//
// The parent directory is watched so editors that replace the file by
// rename are still seen.
func (w *Watcher) Start(ctx context.Context, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(w.path, w.envFiles...)
				if err != nil {
					w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
					continue
				}
				w.logger.Info("config reloaded", zap.String("path", w.path))
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
