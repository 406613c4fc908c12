package pack

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/texpack/internal/deps"
	"git.home.luguber.info/inful/texpack/internal/logfields"
)

// stageCompile performs the first watched compilation pass.
func stageCompile(ctx context.Context, st *State) error {
	required, err := st.collector().Collect(ctx, st.ScratchRoot, st.EntryRel, st.OutDir)
	if err != nil {
		return err
	}
	st.Required = required
	slog.Info("First pass complete",
		logfields.RunID(st.RunID), logfields.Pass(1), logfields.Count(required.Len()))
	return nil
}

// stageReconcile runs the second pass when the first pass's sources declare
// externalized diagram caches; otherwise the pass-1 set stands.
func stageReconcile(ctx context.Context, st *State) error {
	rec := &deps.Reconciler{Collector: st.collector()}
	required, secondPass, err := rec.Resolve(ctx, st.ScratchRoot, st.EntryRel, st.OutDir, st.CacheStage, st.Required)
	if err != nil {
		return err
	}
	st.Required = required
	st.SecondPass = secondPass
	if secondPass {
		slog.Info("Second pass complete",
			logfields.RunID(st.RunID), logfields.Pass(2), logfields.Count(required.Len()))
	}
	return nil
}

// stageInclude unions the explicitly requested extra files into the closure.
func stageInclude(_ context.Context, st *State) error {
	for _, p := range st.Includes {
		st.Required.Add(p)
	}
	return nil
}
