package deps

import (
	"context"
	"os"
	"strings"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/util/sets"
	"git.home.luguber.info/inful/texpack/internal/watcher"
)

// Collector coordinates one watched compiler run. It holds no state across
// calls; each Collect is an independent pass.
type Collector struct {
	Runner *Runner
}

// openWatcher is the watcher surface Collect depends on; tests substitute it
// to simulate observation failures the kernel only produces under load.
type openWatcher interface {
	Events() <-chan watcher.Event
	Close() error
}

var newWatcher = func(root string) (openWatcher, error) { return watcher.New(root) }

// Collect runs one build of entryRel under root and returns the set of files
// the build opened. The watch is established before the compiler starts and
// stopped only after it has exited, on every path including build failure.
func (c *Collector) Collect(ctx context.Context, root, entryRel, outputDir string) (sets.Set[string], error) {
	w, err := newWatcher(root)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategorySetup, "cannot observe project root "+root)
	}

	// Single-owner accumulator: only this goroutine touches the slice until
	// the events channel is closed by the watcher's drain on Close.
	var opened []watcher.Event
	accumulated := make(chan struct{})
	go func() {
		defer close(accumulated)
		for ev := range w.Events() {
			opened = append(opened, ev)
		}
	}()

	buildErr := c.Runner.Run(ctx, root, entryRel, outputDir)
	watchErr := w.Close()
	<-accumulated

	if buildErr != nil {
		return nil, buildErr
	}
	if watchErr != nil {
		return nil, apperrors.Wrap(watchErr, apperrors.CategoryBuild, "dependency observation incomplete")
	}
	return collapse(root, opened), nil
}

// collapse folds raw open events into a required-file set: directories,
// paths outside root, and paths that no longer exist by closure time are
// race-tolerated noise, filtered silently.
func collapse(root string, events []watcher.Event) sets.Set[string] {
	required := sets.New[string]()
	prefix := root + string(os.PathSeparator)
	for _, ev := range events {
		if ev.IsDir || !strings.HasPrefix(ev.Path, prefix) {
			continue
		}
		fi, err := os.Lstat(ev.Path)
		if err != nil || fi.IsDir() {
			continue
		}
		required.Add(ev.Path)
	}
	return required
}
