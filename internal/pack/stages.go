package pack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/texpack/internal/logfields"
)

// Stage is a discrete unit of work in the packaging run.
type Stage func(ctx context.Context, st *State) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first failure. Every failure is fatal for the run; there is no retry, since
// an incomplete build's opened-file set is not a trustworthy closure.
func runStages(ctx context.Context, st *State, stages []namedStage) error {
	for _, stage := range stages {
		select {
		case <-ctx.Done():
			return newCanceledStageError(stage.name, ctx.Err())
		default:
		}
		t0 := time.Now()
		err := stage.fn(ctx, st)
		dur := time.Since(t0)
		st.Timings[stage.name] = dur
		slog.Debug("Stage finished",
			logfields.RunID(st.RunID),
			logfields.Stage(stage.name),
			logfields.DurationMS(float64(dur.Milliseconds())),
			logfields.Error(err))
		if err != nil {
			var se *StageError
			if errors.As(err, &se) {
				return se
			}
			if ctx.Err() != nil {
				return newCanceledStageError(stage.name, err)
			}
			return newFatalStageError(stage.name, err)
		}
	}
	return nil
}
