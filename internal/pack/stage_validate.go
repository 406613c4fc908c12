package pack

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
)

// stageValidate resolves paths and rejects bad input before anything is
// copied or spawned. In particular, an explicitly included file that is
// missing or escapes the project root is a setup error raised here, never a
// mid-build surprise. Tool names are validated where flags and configuration
// merge; Options arriving here may name any executable.
func stageValidate(_ context.Context, st *State) error {
	entry, err := filepath.Abs(st.Opts.Entry)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot resolve entry document")
	}
	if fi, err := os.Stat(entry); err != nil || fi.IsDir() {
		return apperrors.New(apperrors.CategorySetup, "entry document not found: "+entry)
	}

	root := st.Opts.Root
	if root == "" {
		root = filepath.Dir(entry)
	}
	if root, err = filepath.Abs(root); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot resolve project root")
	}
	if !within(root, entry) {
		return apperrors.New(apperrors.CategorySetup, "entry document "+entry+" is not inside project root "+root)
	}
	st.Root = root
	if st.EntryRel, err = filepath.Rel(root, entry); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot relativize entry document")
	}

	for i, inc := range st.Opts.Include {
		p := inc
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if p, err = filepath.Abs(p); err != nil {
			return apperrors.Wrap(err, apperrors.CategorySetup, "cannot resolve included file "+inc)
		}
		if !within(root, p) {
			return apperrors.New(apperrors.CategorySetup, "included file is not in a subdirectory of "+root).
				WithContext("path", p)
		}
		if _, err := os.Stat(p); err != nil {
			return apperrors.New(apperrors.CategorySetup, "included file does not exist").
				WithContext("path", p)
		}
		st.Opts.Include[i] = p
	}

	if filepath.Ext(st.Opts.Output) != ".zip" {
		st.Opts.Output += ".zip"
	}
	return nil
}

// within reports whether path lies inside root (root itself excluded).
func within(root, path string) bool {
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
