// Package bib determines and runs the bibliography-processor invocations a
// built document needs: every build-metadata (.aux) file carrying a
// bibliography directive yields one target, so multi-bibliography documents
// are processed entry by entry.
package bib

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"git.home.luguber.info/inful/texpack/internal/logfields"
	"git.home.luguber.info/inful/texpack/internal/util/fscopy"
)

// directive matches the aux-file lines bibtex and biber leave behind for
// processed bibliographies.
var directive = regexp.MustCompile(`^\\bib(style|data)\{[^}]*\}`)

// ProcessedExt is the extension of the artifact each target must produce.
const ProcessedExt = ".bbl"

// FindTargets scans outputDir for .aux files containing a bibliography
// directive. Each hit becomes a target stem relative to outputDir, without
// the extension.
func FindTargets(outputDir string) ([]string, error) {
	files, err := fscopy.Files(outputDir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot scan output tree for bibliographies")
	}
	var targets []string
	for _, f := range files {
		if filepath.Ext(f) != ".aux" {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, "cannot read "+f)
		}
		if !hasDirective(string(data)) {
			continue
		}
		rel, err := filepath.Rel(outputDir, f)
		if err != nil {
			return nil, err
		}
		targets = append(targets, strings.TrimSuffix(rel, ".aux"))
	}
	return targets, nil
}

func hasDirective(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if directive.MatchString(line) {
			return true
		}
	}
	return false
}

// Processor runs the external bibliography tool for each target.
type Processor struct {
	Tool string // bibtex or biber
}

// Process invokes the tool once per target with the output tree as working
// directory. The project root is supplied as an additional database search
// path: biber takes it as an explicit flag, the legacy processors via the
// BIBINPUTS/BSTINPUTS environment.
func (p *Processor) Process(ctx context.Context, projectRoot, outputDir string, targets []string) error {
	for _, stem := range targets {
		var cmd *exec.Cmd
		if p.Tool == "biber" {
			cmd = exec.CommandContext(ctx, p.Tool, "--input-directory", projectRoot, stem)
		} else {
			cmd = exec.CommandContext(ctx, p.Tool, stem)
			cmd.Env = append(os.Environ(),
				"BIBINPUTS="+projectRoot+":"+os.Getenv("BIBINPUTS"),
				"BSTINPUTS="+projectRoot+":"+os.Getenv("BSTINPUTS"),
			)
		}
		cmd.Dir = outputDir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		slog.Info("Processing bibliography", logfields.File(stem), logfields.Tool(p.Tool))
		if err := cmd.Run(); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryBibliography, p.Tool+" failed for "+stem)
		}
	}
	return nil
}
