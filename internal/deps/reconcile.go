package deps

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/tex"
	"git.home.luguber.info/inful/texpack/internal/util/fscopy"
	"git.home.luguber.info/inful/texpack/internal/util/sets"
)

// Reconciler resolves the case where tikz externalization defers diagram
// rendering, making the cached artifacts invisible to a single pass.
type Reconciler struct {
	Collector *Collector
}

// Resolve inspects the pass-1 file set for externalization directives. When
// none are declared, pass 1 is final. Otherwise the existing cache contents
// are relocated from the stale output tree into stagingDir, which is swapped
// in as the output tree, and the collection runs once more against it. The
// returned bool reports whether a second pass ran.
//
// Pass 2's set is returned as-is, not unioned: the unchanged sources still
// reference everything pass 1 needed, so pass 2 is a superset by
// construction, plus the now-reopened cached renders.
func (r *Reconciler) Resolve(ctx context.Context, root, entryRel, outputDir, stagingDir string, pass1 sets.Set[string]) (sets.Set[string], bool, error) {
	prefixes, err := tex.ExternalizePrefixes(sets.Sorted(pass1))
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CategoryFileSystem, "externalize directive scan failed")
	}
	if len(prefixes) == 0 {
		return pass1, false, nil
	}
	slog.Info("Externalized diagram caches found, compiling a second time",
		logfields.Count(len(prefixes)), slog.String("prefixes", strings.Join(prefixes, ", ")))

	for _, prefix := range prefixes {
		if err := relocateCache(outputDir, stagingDir, prefix); err != nil {
			return nil, false, err
		}
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CategoryRelocate, "cannot clear stale output tree")
	}
	if err := os.Rename(stagingDir, outputDir); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CategoryRelocate, "cannot swap in primed output tree")
	}
	// The compiler expects the project's directory skeleton inside the output
	// tree, same as on the first pass.
	if err := fscopy.MirrorDirs(root, outputDir); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CategoryRelocate, "cannot rebuild output directory skeleton")
	}

	pass2, err := r.Collector.Collect(ctx, root, entryRel, outputDir)
	if err != nil {
		return nil, false, err
	}
	return pass2, true, nil
}

// relocateCache copies one cache prefix from the pass-1 output tree into the
// staging tree, preserving its relative position. A missing or unreadable
// cache is fatal: an unprimed cache would make pass-2 discovery unreliable.
func relocateCache(outputDir, stagingDir, prefix string) error {
	clean := filepath.Clean(prefix)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return apperrors.New(apperrors.CategoryRelocate, "externalize prefix escapes the output tree: "+prefix)
	}
	src := filepath.Join(outputDir, clean)
	if _, err := os.Stat(src); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryRelocate, "diagram cache missing from first-pass output: "+prefix)
	}
	if err := fscopy.CopyTree(src, filepath.Join(stagingDir, clean), nil); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryRelocate, "cannot relocate diagram cache "+prefix)
	}
	return nil
}
