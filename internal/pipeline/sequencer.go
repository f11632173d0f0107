package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jedisim/internal/catalog"
	"jedisim/internal/fileutil"
	"jedisim/internal/logging"
	"jedisim/internal/runner"
	"jedisim/internal/services"
	"jedisim/internal/services/jedi"
	"jedisim/internal/settings"
	"jedisim/internal/workspace"
)

// StageRunner launches one stage. *runner.Runner satisfies it.
type StageRunner interface {
	Run(ctx context.Context, label string, argv []string) (runner.Result, error)
}

// WeightTable supplies the jedicolor blend weights per iteration.
// *weights.Table satisfies it.
type WeightTable interface {
	Rows() int
	Bulge(i int) float64
	Disk(i int) float64
}

// Observer receives progress notifications. Implementations must not block
// for long; they run on the sequencer goroutine.
type Observer interface {
	StateReached(ctx context.Context, state State)
	StepFinished(ctx context.Context, step Step, result runner.Result, err error)
}

// Config holds the sequencer parameters taken from the tool configuration.
type Config struct {
	SettingsPath      string
	PSFPattern        string
	Iterations        int
	BatchSize         int
	Rotated           bool
	WriteAverageLists bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the sequencer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an observer. Multiple observers are notified in
// registration order.
func WithObserver(obs Observer) Option {
	return func(s *Sequencer) {
		if obs != nil {
			s.observers = append(s.observers, obs)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		if now != nil {
			s.now = now
		}
	}
}

// Report summarizes a run, successful or not.
type Report struct {
	Started  time.Time
	Finished time.Time
	Final    State
	Steps    int
	Results  []runner.Result
}

// Duration is the wall-clock length of the run.
func (r Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Error reports the state a run stopped in and the step that failed.
type Error struct {
	State State
	Step  Step
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline aborted in state %s at %s %q: %v", e.State, e.Step.Action, e.Step.Label, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Sequencer executes the planned steps of one run.
type Sequencer struct {
	ns        settings.Namespace
	run       StageRunner
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
	layout    workspace.Layout
	steps     []Step
	state     State
}

// New validates the inputs and plans the run. ns must be the derived
// namespace.
func New(ns settings.Namespace, table WeightTable, client *jedi.Client, run StageRunner, cfg Config, opts ...Option) (*Sequencer, error) {
	if client == nil {
		client = jedi.New(nil)
	}
	if run == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "stage runner required", nil)
	}
	if table == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "weight table required", nil)
	}
	if cfg.Iterations <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			fmt.Sprintf("iterations must be positive, got %d", cfg.Iterations), nil)
	}
	if table.Rows() < cfg.Iterations {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new",
			fmt.Sprintf("weight table has %d rows, need %d", table.Rows(), cfg.Iterations), nil)
	}
	if cfg.PSFPattern == "" {
		cfg.PSFPattern = "psf/psf%d.fits"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = workspace.DefaultBatchSize
	}

	s := &Sequencer{
		ns:     ns,
		run:    run,
		logger: logging.NewNop(),
		now:    time.Now,
		state:  StateInit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "pipeline")

	cases := []settings.Case{settings.Baseline}
	if cfg.Rotated {
		cases = append(cases, settings.Rotated)
	}
	layout, err := workspace.BuildLayout(ns, cfg.BatchSize, cases...)
	if err != nil {
		return nil, err
	}
	s.layout = layout

	p := &planner{
		ns:           ns,
		client:       client,
		weights:      table,
		settingsPath: cfg.SettingsPath,
		psfPattern:   cfg.PSFPattern,
		iterations:   cfg.Iterations,
		writeLists:   cfg.WriteAverageLists,
	}
	steps, err := buildPlan(p, layout, cfg.Rotated)
	if err != nil {
		return nil, err
	}
	s.steps = steps
	return s, nil
}

// Layout returns the directory set the run provisions.
func (s *Sequencer) Layout() workspace.Layout { return s.layout }

// State reports the last state reached.
func (s *Sequencer) State() State { return s.state }

// Run executes every step in order. A nil error means the run reached
// Complete.
func (s *Sequencer) Run(ctx context.Context) (Report, error) {
	return s.execute(ctx, s.steps, true)
}

// ProvisionOnly resets the output directories and stops.
func (s *Sequencer) ProvisionOnly(ctx context.Context) (Report, error) {
	return s.execute(ctx, s.filter(ActionProvision), false)
}

// RotateOnly rewrites the rotated catalog and lists from existing baseline
// outputs and stops.
func (s *Sequencer) RotateOnly(ctx context.Context) (Report, error) {
	steps := s.filter(ActionRotate)
	if len(steps) == 0 {
		return Report{}, services.Wrap(services.ErrConfiguration, "pipeline", "rotate", "rotated case disabled", nil)
	}
	return s.execute(ctx, steps, false)
}

func (s *Sequencer) filter(action Action) []Step {
	var out []Step
	for _, st := range s.steps {
		if st.Action == action {
			out = append(out, st)
		}
	}
	return out
}

func (s *Sequencer) execute(ctx context.Context, steps []Step, complete bool) (Report, error) {
	if complete {
		s.state = StateInit
	}
	report := Report{Started: s.now(), Final: s.state}
	s.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("steps", len(steps)),
		logging.Time("begin", report.Started),
	)

	for idx, step := range steps {
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, report, step, err)
		}
		stepCtx := services.WithCase(ctx, stepCase(step))
		if step.State.Phase == LoopIteration {
			stepCtx = services.WithIteration(stepCtx, step.State.Iteration)
		}

		result, err := s.perform(stepCtx, step)
		report.Results = append(report.Results, result)
		report.Steps++
		for _, obs := range s.observers {
			obs.StepFinished(stepCtx, step, result, err)
		}
		if err != nil {
			return s.abort(ctx, report, step, err)
		}

		last := idx == len(steps)-1
		if last || steps[idx+1].State != step.State {
			s.reach(ctx, step.State)
			report.Final = s.state
		}
	}

	if complete {
		s.reach(ctx, State{Phase: Complete})
		report.Final = s.state
	}
	report.Finished = s.now()
	s.logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("state", report.Final.String()),
		logging.Time("begin", report.Started),
		logging.Time("end", report.Finished),
		logging.Duration("total", report.Duration()),
	)
	return report, nil
}

func (s *Sequencer) abort(ctx context.Context, report Report, step Step, err error) (Report, error) {
	report.Finished = s.now()
	report.Final = s.state
	perr := &Error{State: s.state, Step: step, Err: err}
	logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "run aborted", "run_aborted",
		logging.String("state", s.state.String()),
		logging.String("step", step.Label),
		logging.String("action", step.Action.String()),
		logging.Duration("total", report.Duration()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	return report, perr
}

func (s *Sequencer) reach(ctx context.Context, state State) {
	s.state = state
	s.logger.Debug("state reached",
		logging.String(logging.FieldEventType, "state_reached"),
		logging.String("state", state.String()),
	)
	for _, obs := range s.observers {
		obs.StateReached(ctx, state)
	}
}

func (s *Sequencer) perform(ctx context.Context, step Step) (runner.Result, error) {
	switch step.Action {
	case ActionStage:
		return s.run.Run(ctx, step.Label, step.Argv)
	case ActionProvision:
		return s.local(step, func() error {
			return workspace.Provision(ctx, logging.WithContext(ctx, s.logger), step.layout)
		})
	case ActionWriteList:
		return s.local(step, func() error {
			if err := fileutil.WriteLinesAtomic(step.listPath, step.listLines); err != nil {
				return services.Wrap(services.ErrConfiguration, "pipeline", "write list", step.listPath, err)
			}
			s.logger.Info("rescaled list written",
				logging.String(logging.FieldEventType, "list_written"),
				logging.String("path", step.listPath),
				logging.Int("entries", len(step.listLines)),
			)
			return nil
		})
	case ActionRotate:
		return s.local(step, func() error {
			if err := catalog.RotateAll(step.from, step.to, step.pairs...); err != nil {
				return err
			}
			s.logger.Info("rotated catalogs written",
				logging.String(logging.FieldEventType, "catalogs_rotated"),
				logging.Int("files", len(step.pairs)),
				logging.String("from", step.from),
				logging.String("to", step.to),
			)
			return nil
		})
	default:
		return runner.Result{}, fmt.Errorf("unknown action %v", step.Action)
	}
}

// local runs an in-process step and reports it like a stage.
func (s *Sequencer) local(step Step, fn func() error) (runner.Result, error) {
	started := s.now()
	err := fn()
	finished := s.now()
	res := runner.Result{
		Label:    step.Label,
		Argv:     step.Argv,
		Started:  started,
		Elapsed:  finished.Sub(started),
		ExitCode: 0,
	}
	if err != nil {
		res.ExitCode = -1
	}
	return res, err
}

func stepCase(step Step) string {
	switch step.State.Phase {
	case LoopIteration, PostLoopStagesDone:
		return step.State.Case.String()
	case RotatedCatalogsReady:
		return settings.Rotated.String()
	default:
		return ""
	}
}
