package pack

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/tex"
	"git.home.luguber.info/inful/texpack/internal/util/fscopy"
)

// stageStrip rewrites every .tex file in the scratch copy with comments
// removed, so build-only noise never reaches the archive. Only the scratch
// copy is touched.
func stageStrip(_ context.Context, st *State) error {
	files, err := fscopy.Files(st.ScratchRoot)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot list scratch copy")
	}
	stripped := 0
	for _, f := range files {
		if filepath.Ext(f) != ".tex" {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot read "+f)
		}
		filtered := tex.Filter(string(data), st.Opts.DisableExternalize)
		if err := os.WriteFile(f, []byte(filtered), 0o600); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot rewrite "+f)
		}
		stripped++
	}
	slog.Info("Stripped comments from tex sources", logfields.Count(stripped))
	return nil
}
