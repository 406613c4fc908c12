package pack

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/util/fscopy"
	"git.home.luguber.info/inful/texpack/internal/util/sets"
)

// stageAssemble copies the dependency closure into the archive staging tree.
// Raw .bib databases stay out (the processed .bbl replaces them), and paths
// that vanished since the build are race-tolerated noise, skipped silently.
func stageAssemble(_ context.Context, st *State) error {
	slog.Info("Assembling archive tree", logfields.Count(st.Required.Len()))
	for _, p := range sets.Sorted(st.Required) {
		rel, err := filepath.Rel(st.ScratchRoot, p)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategoryInternal, "required path outside scratch copy: "+p)
		}
		if filepath.Ext(p) == ".bib" {
			continue
		}
		fi, err := os.Lstat(p)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		dst := filepath.Join(st.ArchiveStage, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot stage "+rel)
		}
		if err := fscopy.CopyFile(p, dst); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot stage "+rel)
		}
		slog.Info("Including source file", logfields.File(rel))
	}

	for _, stem := range st.BibTargets {
		name := stem + ".bbl"
		dst := filepath.Join(st.ArchiveStage, name)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot stage "+name)
		}
		if err := fscopy.CopyFile(filepath.Join(st.OutDir, name), dst); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryBibliography, "processed bibliography missing: "+name)
		}
		slog.Info("Including processed bibliography", logfields.File(name))
	}
	return nil
}

// zipEpoch is the fixed timestamp written for every archive member, so two
// runs over identical inputs produce byte-identical archives.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// stageArchive writes the staged tree as the output zip.
func stageArchive(_ context.Context, st *State) error {
	files, err := fscopy.Files(st.ArchiveStage)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot list archive staging tree")
	}
	out, err := os.Create(st.Opts.Output)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot create archive "+st.Opts.Output)
	}
	zw := zip.NewWriter(out)
	for _, p := range files {
		rel, err := filepath.Rel(st.ArchiveStage, p)
		if err != nil {
			out.Close()
			return apperrors.Wrap(err, apperrors.CategoryInternal, "staged path outside staging tree: "+p)
		}
		if err := addArchiveFile(zw, p, filepath.ToSlash(rel)); err != nil {
			out.Close()
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot archive "+rel)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot finalize archive")
	}
	if err := out.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot finalize archive")
	}
	slog.Info("Archive written", logfields.Path(st.Opts.Output), logfields.Count(len(files)))
	return nil
}

func addArchiveFile(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
