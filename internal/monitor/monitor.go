// Package monitor re-triggers packaging runs while the user edits the
// project: it watches the real project tree for change notifications
// (fsnotify, not the open-event observation used during builds) and invokes
// a rebuild callback after changes settle.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/texpack/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// Monitor watches a project root and debounces rapid bursts of file changes.
type Monitor struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	ignore   map[string]bool
}

// New creates a monitor for root. debounce groups rapid successive saves
// into one rebuild. Paths in ignore never trigger one; the produced archive
// must be listed here when it lands inside the watched tree, or every rebuild
// would trigger the next.
func New(root string, debounce time.Duration, ignore ...string) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	ignored := make(map[string]bool, len(ignore))
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignored[abs] = true
		}
	}
	m := &Monitor{root: root, debounce: debounce, watcher: w, ignore: ignored}
	if err := m.addRecursive(root); err != nil {
		w.Close()
		return nil, err
	}
	return m, nil
}

// addRecursive registers dir and every subdirectory, skipping VCS metadata.
func (m *Monitor) addRecursive(dir string) error {
	stack := []string{dir}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := m.watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
		entries, err := os.ReadDir(d)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", d, err)
		}
		for _, e := range entries {
			if e.IsDir() && e.Name() != ".git" {
				stack = append(stack, filepath.Join(d, e.Name()))
			}
		}
	}
	return nil
}

// Run blocks until ctx is done, invoking onRebuild after each debounced burst
// of changes. Rebuild failures are logged, not fatal; the next save gets
// another chance.
func (m *Monitor) Run(ctx context.Context, onRebuild func(context.Context) error) error {
	defer m.watcher.Close()

	slog.Info("Watching project for changes", logfields.Path(m.root))
	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if abs, err := filepath.Abs(event.Name); err == nil && m.ignore[abs] {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := m.addRecursive(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Source change detected", logfields.Path(event.Name))
			if timer == nil {
				timer = time.NewTimer(m.debounce)
				pending = timer.C
			} else {
				timer.Stop()
				timer.Reset(m.debounce)
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watch error", logfields.Error(err))

		case <-pending:
			timer = nil
			pending = nil
			if err := onRebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}
