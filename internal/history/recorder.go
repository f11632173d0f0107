package history

import (
	"context"
	"log/slog"
	"time"

	"jedisim/internal/logging"
	"jedisim/internal/pipeline"
	"jedisim/internal/runner"
)

// Recorder journals a single run through the pipeline observer hooks.
// Journal failures are logged and never interrupt the run.
type Recorder struct {
	store  *Store
	runID  string
	logger *slog.Logger
	seq    int
	now    func() time.Time
}

// NewRecorder returns an observer writing to store under runID.
func NewRecorder(store *Store, runID string, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		runID:  runID,
		logger: logging.NewComponentLogger(logger, "history"),
		now:    time.Now,
	}
}

// StateReached implements pipeline.Observer.
func (r *Recorder) StateReached(ctx context.Context, state pipeline.State) {
	if err := r.store.UpdateState(context.WithoutCancel(ctx), r.runID, state.String()); err != nil {
		r.warn(err)
	}
}

// StepFinished implements pipeline.Observer.
func (r *Recorder) StepFinished(ctx context.Context, step pipeline.Step, result runner.Result, err error) {
	r.seq++
	rec := StageRecord{
		RunID:    r.runID,
		Seq:      r.seq,
		State:    step.State.String(),
		Action:   step.Action.String(),
		Label:    step.Label,
		Argv:     step.Argv,
		ExitCode: result.ExitCode,
		Elapsed:  result.Elapsed,
		Finished: r.now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if recErr := r.store.RecordStage(context.WithoutCancel(ctx), rec); recErr != nil {
		r.warn(recErr)
	}
}

func (r *Recorder) warn(err error) {
	logging.WarnWithContext(r.logger, "run history write failed", "history_write_failed",
		logging.String(logging.FieldRunID, r.runID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on "+r.store.Path()),
		logging.String(logging.FieldImpact, "this run will be missing from jedisim history"),
	)
}
