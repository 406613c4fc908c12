package pack

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/texpack/internal/bib"
	"git.home.luguber.info/inful/texpack/internal/logfields"
)

// stageBibliography finds every bibliography the built document references
// and runs the external processor for each, with the original project root
// as an additional database search path.
func stageBibliography(ctx context.Context, st *State) error {
	targets, err := bib.FindTargets(st.OutDir)
	if err != nil {
		return err
	}
	st.BibTargets = targets
	if len(targets) == 0 {
		return nil
	}
	slog.Info("Bibliographies found", logfields.Count(len(targets)))
	proc := &bib.Processor{Tool: st.Opts.BibliographyProcessor}
	return proc.Process(ctx, st.Root, st.OutDir, targets)
}
