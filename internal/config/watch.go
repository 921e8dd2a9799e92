package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

// Watch reloads the tuning file whenever it changes on disk and hands each
// successfully validated config to apply. Invalid edits are logged and
// skipped so the previous thresholds stay in force. The containing
// directory is watched because editors usually replace files rather than
// write them in place. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, apply func(*TuningConfig)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != absPath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadTuningConfig(absPath)
			if err != nil {
				monitoring.Logf("config: ignoring change to %s: %v", absPath, err)
				continue
			}
			monitoring.Logf("config: reloaded %s (%s)", absPath, cfg.Params())
			apply(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			monitoring.Logf("config: watcher error: %v", err)
		}
	}
}
