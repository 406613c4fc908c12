package deps

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
)

// Runner spawns the external LaTeX compiler against a project root.
type Runner struct {
	Compiler    string // pdflatex or lualatex
	ShellEscape bool
	ExtraFlags  []string
}

// Args returns the full argument vector for one compiler invocation.
func (r *Runner) Args(outputDir, entryRel string) []string {
	var args []string
	if r.ShellEscape {
		args = append(args, "--shell-escape")
	}
	args = append(args, r.ExtraFlags...)
	return append(args,
		"--interaction=nonstopmode",
		"--halt-on-error",
		"--output-directory", outputDir,
		entryRel,
	)
}

// Run blocks until the compiler exits. A non-zero exit or a context
// cancellation is a build failure; the run is never retried, since a failed
// compilation has no trustworthy partial dependency set.
func (r *Runner) Run(ctx context.Context, root, entryRel, outputDir string) error {
	cmd := exec.CommandContext(ctx, r.Compiler, r.Args(outputDir, entryRel)...)
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("Running LaTeX compiler", logfields.Compiler(r.Compiler), logfields.File(entryRel))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return apperrors.Wrap(ctx.Err(), apperrors.CategoryBuild, "build terminated before completion")
		}
		return apperrors.Wrap(err, apperrors.CategoryBuild, r.Compiler+" failed for "+entryRel)
	}
	return nil
}
