package pack

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/texpack/internal/logfields"
	"github.com/google/uuid"
)

// Run executes one packaging run described by opts. The workspace is removed
// on every exit path unless opts.KeepWorkspace is set.
func Run(ctx context.Context, opts Options) error {
	st := &State{
		Opts:    opts,
		RunID:   uuid.NewString(),
		Timings: make(map[string]time.Duration),
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	slog.Info("Starting pack run",
		logfields.RunID(st.RunID),
		logfields.File(opts.Entry),
		logfields.Compiler(opts.Compiler))

	defer func() {
		if st.WS == nil {
			return
		}
		if err := st.WS.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	err := runStages(ctx, st, []namedStage{
		{"validate", stageValidate},
		{"prepare", stagePrepare},
		{"strip", stageStrip},
		{"compile", stageCompile},
		{"reconcile", stageReconcile},
		{"include", stageInclude},
		{"bibliography", stageBibliography},
		{"assemble", stageAssemble},
		{"archive", stageArchive},
	})
	if err != nil {
		return err
	}

	slog.Info("Pack run finished",
		logfields.RunID(st.RunID),
		logfields.Path(st.Opts.Output),
		logfields.Count(st.Required.Len()),
		slog.Bool("second_pass", st.SecondPass))
	return nil
}
