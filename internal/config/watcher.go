package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher keeps the latest valid configuration loaded from a file.
// Readers call Current; a reload that fails to load or validate keeps the
// previous value.
type Watcher struct {
	path string
	log  zerolog.Logger
	cur  atomic.Pointer[Config]

	// OnReload, when set, is called after each successful swap.
	OnReload func(*Config)
}

// NewWatcher starts from initial, which should already be valid.
func NewWatcher(path string, initial *Config, logger zerolog.Logger) *Watcher {
	w := &Watcher{path: path, log: logger}
	w.cur.Store(initial)
	return w
}

// Current returns the configuration in effect.
func (w *Watcher) Current() *Config { return w.cur.Load() }

// Reload loads and validates the file, then swaps it in.
func (w *Watcher) Reload() error {
	c, err := Load(w.path)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config %q: %w", w.path, err)
	}
	w.cur.Store(c)
	if w.OnReload != nil {
		w.OnReload(c)
	}
	return nil
}

// Run watches the directory holding the file until ctx is done. Editors often
// replace files instead of writing them, so the directory is watched and events
// are filtered by name.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", w.path, err)
	}
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	w.log.Info().Str("dir", dir).Msg("watching configuration")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.log.Warn().Err(err).Msg("config reload failed, keeping previous")
				continue
			}
			w.log.Info().Str("path", w.path).Msg("configuration reloaded")
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}
