package pack

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/util/fscopy"
	"git.home.luguber.info/inful/texpack/internal/workspace"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// stagePrepare creates the workspace and populates the scratch copy of the
// project plus the output tree's directory skeleton (tikz externalization
// expects the project's directories to exist inside the output tree).
func stagePrepare(_ context.Context, st *State) error {
	st.WS = workspace.NewManager("", st.Opts.KeepWorkspace)
	if err := st.WS.Create(); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot create workspace")
	}

	var err error
	if st.ScratchRoot, err = st.WS.CreateSubdir("root"); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot create scratch root")
	}
	if st.OutDir, err = st.WS.CreateSubdir("out"); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot create output tree")
	}
	if st.ArchiveStage, err = st.WS.CreateSubdir("zip"); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot create archive staging tree")
	}
	// Created on demand by the reconciler's relocation; must not pre-exist
	// or the swap rename would fail.
	st.CacheStage = st.WS.Subpath("newout")

	filter, err := copyFilter(st.Root, st.Opts.RespectGitignore)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot read gitignore patterns")
	}
	slog.Info("Copying project to scratch workspace", logfields.Path(st.Root))
	if err := fscopy.CopyTree(st.Root, st.ScratchRoot, filter); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot copy project tree")
	}
	if err := fscopy.MirrorDirs(st.ScratchRoot, st.OutDir); err != nil {
		return apperrors.Wrap(err, apperrors.CategorySetup, "cannot mirror directory skeleton")
	}

	// Explicit includes are copied unconditionally; the tree filter may have
	// skipped them.
	st.Includes = st.Includes[:0]
	for _, inc := range st.Opts.Include {
		rel, err := filepath.Rel(st.Root, inc)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategorySetup, "cannot relativize included file "+inc)
		}
		dst := filepath.Join(st.ScratchRoot, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return apperrors.Wrap(err, apperrors.CategorySetup, "cannot stage included file "+inc)
		}
		if err := fscopy.CopyFile(inc, dst); err != nil {
			return apperrors.Wrap(err, apperrors.CategorySetup, "cannot stage included file "+inc)
		}
		st.Includes = append(st.Includes, dst)
	}
	return nil
}

// copyFilter always skips VCS metadata; with respectGitignore it also skips
// everything the project's .gitignore files exclude.
func copyFilter(root string, respectGitignore bool) (fscopy.Filter, error) {
	var matcher gitignore.Matcher
	if respectGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			return nil, err
		}
		matcher = gitignore.NewMatcher(patterns)
	}
	return func(rel string, isDir bool) bool {
		if isDir && filepath.Base(rel) == ".git" {
			return false
		}
		if matcher != nil && matcher.Match(strings.Split(rel, string(os.PathSeparator)), isDir) {
			return false
		}
		return true
	}, nil
}
